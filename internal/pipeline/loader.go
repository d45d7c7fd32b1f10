package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/timeseries"
	apperrors "github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/pkg/errors"
)

// LoadTable reads a weekly CSV into an aligned table. The file must carry a
// header naming every requested column; a week-index column, if present, is
// carried as the time axis. All requested values must parse and be strictly
// positive; the modeling core assumes validated input, so violations fail
// here rather than deep in the transform.
func LoadTable(path string, channels []string, sales string) (*timeseries.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	wanted := append(append([]string{}, channels...), sales)
	colIdx := make(map[string]int, len(wanted))
	for _, name := range wanted {
		colIdx[name] = -1
	}
	weekIdx := -1
	for i, h := range header {
		if _, ok := colIdx[h]; ok {
			colIdx[h] = i
		}
		if h == "week" {
			weekIdx = i
		}
	}
	for _, name := range wanted {
		if colIdx[name] < 0 {
			return nil, apperrors.NewInputError(name, "column not found in %s", path)
		}
	}

	cols := make(map[timeseries.Channel][]float64, len(wanted))
	var times []float64
	row := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+2, err)
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}
		for _, name := range wanted {
			s := record[colIdx[name]]
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, apperrors.NewInputError(name, "row %d: cannot parse %q", row+2, s)
			}
			if v <= 0 {
				return nil, apperrors.NewInputError(name, "row %d: value %g is not strictly positive", row+2, v)
			}
			cols[timeseries.Channel(name)] = append(cols[timeseries.Channel(name)], v)
		}
		if weekIdx >= 0 && weekIdx < len(record) {
			if w, err := strconv.ParseFloat(record[weekIdx], 64); err == nil {
				times = append(times, w)
			}
		}
		row++
	}
	if row == 0 {
		return nil, apperrors.NewInputError("", "no data rows in %s", path)
	}

	names := make([]timeseries.Channel, 0, len(wanted))
	for _, name := range wanted {
		names = append(names, timeseries.Channel(name))
	}
	tbl, err := timeseries.NewTable(names, cols)
	if err != nil {
		return nil, err
	}
	if len(times) == tbl.Len() {
		tbl.Time = times
	}
	return tbl, nil
}
