package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
)

// CSVExporter renders statements as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter constructs a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header row, data rows and a trailing summary block.
func (e *CSVExporter) Render(st Statement) ([]byte, error) {
	if len(st.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if err := w.Write(st.Headers); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range st.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	if len(st.Summary) > 0 {
		if err := w.Write([]string{}); err != nil {
			return nil, fmt.Errorf("write csv separator: %w", err)
		}
		keys := make([]string, 0, len(st.Summary))
		for k := range st.Summary {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := w.Write([]string{k, st.Summary[k]}); err != nil {
				return nil, fmt.Errorf("write csv summary: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType implements Exporter.
func (e *CSVExporter) ContentType() string { return "text/csv" }

// Extension implements Exporter.
func (e *CSVExporter) Extension() string { return "csv" }
