package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/stationarity"
	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/varmodel"
)

// WriteReports writes every CSV artifact of the bundle into dir. These files
// are the interface handed to the external plotting/reporting side.
func WriteReports(dir string, bundle *ResultBundle) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	writers := []struct {
		name string
		fn   func(string, *ResultBundle) error
	}{
		{"stationarity_results.csv", writeStationarityCSV},
		{"var_coefficients.csv", writeCoefficientsCSV},
		{"var_residuals.csv", writeResidualsCSV},
		{"irf_results.csv", writeIRFCSV},
		{"granger_results.csv", writeGrangerCSV},
		{"allocation_plan.csv", writeAllocationCSV},
	}
	for _, w := range writers {
		if err := w.fn(filepath.Join(dir, w.name), bundle); err != nil {
			return fmt.Errorf("write %s: %w", w.name, err)
		}
	}
	return nil
}

func withCSVWriter(path string, fn func(*csv.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	return fn(writer)
}

var testKindOrder = []stationarity.TestKind{
	stationarity.TestADF,
	stationarity.TestPP,
	stationarity.TestKPSS,
}

func writeVerdictRows(w *csv.Writer, v *stationarity.Verdict) error {
	for _, kind := range testKindOrder {
		test, ok := v.Tests[kind]
		if !ok {
			continue
		}
		rec := []string{
			string(v.Channel),
			string(kind),
			fmt.Sprintf("%f", test.Statistic),
			fmt.Sprintf("%f", test.PValue),
			fmt.Sprintf("%t", test.NonStationary),
			fmt.Sprintf("%t", v.NeedsFirstDiff),
			fmt.Sprintf("%f", v.SeasonalStrength),
			fmt.Sprintf("%t", v.NeedsSeasonalDiff),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func writeStationarityCSV(path string, bundle *ResultBundle) error {
	return withCSVWriter(path, func(w *csv.Writer) error {
		header := []string{"Channel", "Test", "Statistic", "PValue", "NonStationary", "NeedsFirstDiff", "SeasonalStrength", "NeedsSeasonalDiff"}
		if err := w.Write(header); err != nil {
			return err
		}
		for _, ch := range bundle.ChannelOrder {
			if err := writeVerdictRows(w, bundle.Channels[ch].Verdict); err != nil {
				return err
			}
		}
		return writeVerdictRows(w, bundle.SalesVerdict)
	})
}

func writeCoefficientsCSV(path string, bundle *ResultBundle) error {
	return withCSVWriter(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"Lag", "Equation", "Regressor", "Coefficient"}); err != nil {
			return err
		}
		m := bundle.Model
		if m.C != nil {
			for eq, name := range m.Names {
				rec := []string{"0", string(name), "const", fmt.Sprintf("%f", m.C.AtVec(eq))}
				if err := w.Write(rec); err != nil {
					return err
				}
			}
		}
		for lag, A := range m.A {
			for eq := range m.Names {
				for v := range m.Names {
					rec := []string{
						fmt.Sprintf("%d", lag+1),
						string(m.Names[eq]),
						string(m.Names[v]),
						fmt.Sprintf("%f", A.At(eq, v)),
					}
					if err := w.Write(rec); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func writeResidualsCSV(path string, bundle *ResultBundle) error {
	return withCSVWriter(path, func(w *csv.Writer) error {
		m := bundle.Model
		header := make([]string, len(m.Names))
		for i, n := range m.Names {
			header[i] = string(n)
		}
		if err := w.Write(header); err != nil {
			return err
		}
		rows, cols := m.Residuals.Dims()
		for i := 0; i < rows; i++ {
			rec := make([]string, cols)
			for j := 0; j < cols; j++ {
				rec[j] = fmt.Sprintf("%f", m.Residuals.At(i, j))
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeIRFCSV(path string, bundle *ResultBundle) error {
	return withCSVWriter(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"ShockChannel", "ResponseChannel", "Horizon", "Point", "Lower", "Upper"}); err != nil {
			return err
		}
		for _, ch := range bundle.ChannelOrder {
			band := bundle.Channels[ch].IRF
			if band == nil {
				continue
			}
			for h := range band.Point {
				rec := []string{
					string(band.Impulse),
					string(band.Response),
					fmt.Sprintf("%d", h),
					fmt.Sprintf("%f", band.Point[h]),
					fmt.Sprintf("%f", band.Lower[h]),
					fmt.Sprintf("%f", band.Upper[h]),
				}
				if err := w.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func grangerRecord(res *varmodel.CausalityResult) []string {
	conclusion := "no evidence of causality"
	if res.Significant {
		conclusion = "Granger-causes"
	}
	return []string{
		string(res.Cause),
		string(res.Effect),
		fmt.Sprintf("%f", res.FStatistic),
		fmt.Sprintf("%f", res.PValue),
		fmt.Sprintf("%d", res.Lags),
		conclusion,
	}
}

func writeGrangerCSV(path string, bundle *ResultBundle) error {
	return withCSVWriter(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"CauseVar", "EffectVar", "FStatistic", "PValue", "Lags", "Conclusion"}); err != nil {
			return err
		}
		for _, ch := range bundle.ChannelOrder {
			result := bundle.Channels[ch]
			if err := w.Write(grangerRecord(result.CausesSales)); err != nil {
				return err
			}
			if err := w.Write(grangerRecord(result.SalesCauses)); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeAllocationCSV(path string, bundle *ResultBundle) error {
	return withCSVWriter(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"Channel", "Elasticity", "Share"}); err != nil {
			return err
		}
		for _, ch := range bundle.Plan.Ranked() {
			rec := []string{
				string(ch),
				fmt.Sprintf("%f", bundle.Channels[ch].Elasticity),
				fmt.Sprintf("%f", bundle.Plan.Shares[ch]),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
