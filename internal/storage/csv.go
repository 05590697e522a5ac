package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/pmacsim/internal/engine"
)

// WriteCSV writes one named column per series, aligned by grid index.
func WriteCSV(w io.Writer, series *engine.Series) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(engine.Columns); err != nil {
		return err
	}

	cols := make([][]float64, len(engine.Columns))
	for j, name := range engine.Columns {
		cols[j] = series.Column(name)
	}

	row := make([]string, len(cols))
	for i := 0; i < series.Len(); i++ {
		for j, col := range cols {
			row[j] = formatFloat(col[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the output of WriteCSV. Columns may appear in any order.
func ReadCSV(r io.Reader) (*engine.Series, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	cols := make(map[string][]float64, len(header))
	for _, name := range header {
		cols[name] = make([]float64, 0, len(records))
	}

	for line, record := range records {
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", line+2, header[j], err)
			}
			cols[header[j]] = append(cols[header[j]], v)
		}
	}

	return engine.SeriesFromColumns(cols)
}
