// Package dataset defines the consolidated tree dataset: a GeoJSON
// FeatureCollection with a metadata block, written once by the normalizer
// and read once by the viewer.
package dataset

import (
	"fmt"
	"sort"
	"time"

	"montreal-tree-map/internal/domain"
)

// Property keys owned by the normalizer. Everything else in a feature's
// properties is passthrough from the source columns.
const (
	propID      = "id"
	propSpecies = "species"
	propYear    = "planted_year"
)

// FeatureCollection is the on-disk dataset shape.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Feature is one tree as a GeoJSON point feature.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry holds a GeoJSON point. Coordinates are [longitude, latitude].
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Metadata summarizes the dataset for consumers that only need counts.
type Metadata struct {
	TotalTrees  int       `json:"total_trees"`
	YearRange   YearRange `json:"year_range"`
	Species     []string  `json:"species"`
	GeneratedAt string    `json:"generated_at"`
}

// YearRange is the inclusive planting-year span of the dataset. Min and
// Max are nil for an empty dataset.
type YearRange struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

// Build assembles a FeatureCollection from validated records. Feature
// order follows record order, which the normalizer pins to source order
// then row order, so identical inputs produce identical output.
func Build(records []domain.TreeRecord) FeatureCollection {
	features := make([]Feature, 0, len(records))
	speciesSet := make(map[string]bool)
	var yr YearRange

	for _, rec := range records {
		features = append(features, RecordFeature(rec))
		speciesSet[rec.Species] = true
		year := rec.PlantedYear
		if yr.Min == nil || year < *yr.Min {
			y := year
			yr.Min = &y
		}
		if yr.Max == nil || year > *yr.Max {
			y := year
			yr.Max = &y
		}
	}

	species := make([]string, 0, len(speciesSet))
	for s := range speciesSet {
		species = append(species, s)
	}
	sort.Strings(species)

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
		Metadata: &Metadata{
			TotalTrees:  len(features),
			YearRange:   yr,
			Species:     species,
			GeneratedAt: domain.Clock().Now().UTC().Format(time.RFC3339),
		},
	}
}

// RecordFeature converts one record to its GeoJSON feature.
func RecordFeature(rec domain.TreeRecord) Feature {
	props := make(map[string]any, len(rec.Extra)+3)
	for k, v := range rec.Extra {
		props[k] = v
	}
	props[propID] = rec.ID
	props[propSpecies] = rec.Species
	props[propYear] = rec.PlantedYear

	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{rec.Longitude, rec.Latitude},
		},
		Properties: props,
	}
}

// FeatureRecord converts a feature back into a TreeRecord. It rejects
// features it cannot interpret; the loader skips those instead of failing
// the whole dataset.
func FeatureRecord(f Feature) (domain.TreeRecord, error) {
	if f.Geometry.Type != "Point" || len(f.Geometry.Coordinates) != 2 {
		return domain.TreeRecord{}, fmt.Errorf("feature geometry is not a point")
	}

	id, _ := f.Properties[propID].(string)
	if id == "" {
		return domain.TreeRecord{}, fmt.Errorf("feature has no id")
	}

	yearVal, ok := f.Properties[propYear].(float64)
	if !ok || yearVal != float64(int(yearVal)) {
		return domain.TreeRecord{}, fmt.Errorf("feature %s has no integer planted_year", id)
	}

	species, _ := f.Properties[propSpecies].(string)
	if species == "" {
		species = domain.UnknownSpecies
	}

	extra := make(map[string]string)
	for k, v := range f.Properties {
		if k == propID || k == propSpecies || k == propYear {
			continue
		}
		if s, ok := v.(string); ok {
			extra[k] = s
		}
	}

	return domain.TreeRecord{
		ID:          id,
		Species:     species,
		PlantedYear: int(yearVal),
		Latitude:    f.Geometry.Coordinates[1],
		Longitude:   f.Geometry.Coordinates[0],
		Extra:       extra,
	}, nil
}
