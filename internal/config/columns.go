package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ColumnMapping names the CSV headers that carry the canonical tree
// fields. Headers not named here pass through into each record's Extra
// map unchanged. An empty ID means no source column holds an identifier
// and the normalizer synthesizes one.
type ColumnMapping struct {
	ID        string `yaml:"id"`
	Species   string `yaml:"species"`
	Year      string `yaml:"year"`
	Latitude  string `yaml:"latitude"`
	Longitude string `yaml:"longitude"`
}

// DefaultColumns matches the Ville de Montréal open-data extracts.
func DefaultColumns() ColumnMapping {
	return ColumnMapping{
		Species:   "Essence_en",
		Year:      "Date_Plantation",
		Latitude:  "Latitude",
		Longitude: "Longitude",
	}
}

// LoadColumns reads a YAML column mapping. Fields left empty in the file
// fall back to the Montréal defaults, so a mapping file only needs to
// name the headers that differ.
func LoadColumns(path string) (ColumnMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ColumnMapping{}, fmt.Errorf("read column mapping: %w", err)
	}

	mapping := DefaultColumns()
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return ColumnMapping{}, fmt.Errorf("parse column mapping %s: %w", path, err)
	}
	if err := mapping.Validate(); err != nil {
		return ColumnMapping{}, fmt.Errorf("column mapping %s: %w", path, err)
	}
	return mapping, nil
}

// Validate checks that the mapping names every required column.
func (m ColumnMapping) Validate() error {
	if m.Year == "" {
		return errors.New("year column is required")
	}
	if m.Latitude == "" || m.Longitude == "" {
		return errors.New("latitude and longitude columns are required")
	}
	return nil
}
