package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/config"
	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/pipeline"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "varbudget",
		Short: "Estimate cross-channel sales dynamics and recommend a budget split",
		Long: "varbudget runs a single-pass VAR analysis over one entity's weekly " +
			"marketing and sales series: stationarization, lag selection, OLS " +
			"estimation, orthogonalized impulse responses with bootstrap bands, " +
			"Granger causality, and a normalized budget-share recommendation.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Logging)

			tbl, err := pipeline.LoadTable(cfg.Data.Path, cfg.Data.Channels, cfg.Data.Sales)
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{
				"path":     cfg.Data.Path,
				"weeks":    tbl.Len(),
				"channels": len(cfg.Data.Channels),
			}).Info("loaded input table")

			bundle, err := pipeline.New(cfg, logger).Run(tbl)
			if err != nil {
				return err
			}
			if err := pipeline.WriteReports(cfg.Output.Dir, bundle); err != nil {
				return err
			}

			for _, ch := range bundle.Plan.Ranked() {
				logger.WithFields(logrus.Fields{
					"channel": ch,
					"share":   fmt.Sprintf("%.1f%%", bundle.Plan.Shares[ch]*100),
				}).Info("recommended allocation")
			}
			logger.WithField("dir", cfg.Output.Dir).Info("reports written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to configuration file")
	return cmd
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
