// Package csvfile reads raw tree rows from the open-data CSV extracts.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"montreal-tree-map/internal/config"
	"montreal-tree-map/internal/domain"
)

// Source reads one CSV extract, mapping header columns to the canonical
// tree fields via a ColumnMapping.
type Source struct {
	path    string
	mapping config.ColumnMapping
}

// New creates a Source for one CSV file.
func New(path string, mapping config.ColumnMapping) *Source {
	return &Source{path: path, mapping: mapping}
}

// Name identifies the source in reports and errors.
func (s *Source) Name() string {
	return filepath.Base(s.path)
}

// Read parses the whole file. A missing or unreadable file is a fatal
// error; rows with fewer fields than the header are counted and skipped.
// Returned row order follows file order.
func (s *Source) Read() ([]domain.RawTreeRow, int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, 0, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are handled here, not by the reader

	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header of %s: %w", s.Name(), err)
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[h] = i
	}
	if err := s.checkMappedColumns(colIdx); err != nil {
		return nil, 0, err
	}

	var rows []domain.RawTreeRow
	var shortRows int
	line := 1 // header
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read %s: %w", s.Name(), err)
		}
		line++

		if len(fields) < len(header) {
			shortRows++
			continue
		}
		rows = append(rows, s.mapRow(fields, header, colIdx, line))
	}
	return rows, shortRows, nil
}

// checkMappedColumns verifies the required mapped headers exist, so a
// wrong mapping fails the run immediately instead of rejecting every row.
func (s *Source) checkMappedColumns(colIdx map[string]int) error {
	for _, col := range []string{s.mapping.Year, s.mapping.Latitude, s.mapping.Longitude} {
		if _, ok := colIdx[col]; !ok {
			return fmt.Errorf("source %s has no column %q", s.Name(), col)
		}
	}
	return nil
}

func (s *Source) mapRow(fields, header []string, colIdx map[string]int, line int) domain.RawTreeRow {
	get := func(col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return fields[i]
	}

	row := domain.RawTreeRow{
		Source:      s.Name(),
		Line:        line,
		ID:          get(s.mapping.ID),
		Species:     get(s.mapping.Species),
		PlantedDate: get(s.mapping.Year),
		Lat:         get(s.mapping.Latitude),
		Lon:         get(s.mapping.Longitude),
	}

	mapped := map[string]bool{
		s.mapping.ID:        s.mapping.ID != "",
		s.mapping.Species:   s.mapping.Species != "",
		s.mapping.Year:      true,
		s.mapping.Latitude:  true,
		s.mapping.Longitude: true,
	}
	extra := make(map[string]string)
	for i, h := range header {
		if mapped[h] || i >= len(fields) {
			continue
		}
		extra[h] = fields[i]
	}
	if len(extra) > 0 {
		row.Extra = extra
	}
	return row
}
