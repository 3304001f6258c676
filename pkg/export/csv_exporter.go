package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is the tabular payload shared by every report format. Rows are
// keyed by header name so each renderer lays out columns independently.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

func (d Dataset) record(i int) []string {
	out := make([]string, len(d.Headers))
	for col, header := range d.Headers {
		out[col] = d.Rows[i][header]
	}
	return out
}

// CSVExporter renders report datasets as RFC 4180 CSV. The header row is
// always emitted, even for an empty period.
type CSVExporter struct{}

// NewCSVExporter constructs the exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("report dataset has no columns")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for i := range data.Rows {
		if err := w.Write(data.record(i)); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
