package domain

// RawTreeRow is one CSV row after header mapping, all fields still text.
// Extra holds every column that is not mapped to a named field.
type RawTreeRow struct {
	Source      string // source file the row came from
	Line        int    // 1-based line number within the source, header included
	ID          string
	Species     string
	PlantedDate string // bare year or ISO planting date
	Lat         string
	Lon         string
	Extra       map[string]string
}

// TreeRecord is one validated tree observation. Records are built once by
// the normalizer and never mutated afterward.
type TreeRecord struct {
	ID          string
	Species     string
	PlantedYear int
	Latitude    float64
	Longitude   float64
	Extra       map[string]string
}

// Validation bounds for the planting year. Values outside the range are
// data-entry errors and reject the row.
const (
	MinPlantedYear = 1850
	MaxPlantedYear = 2025
)

// Montréal plausibility box. Coordinates outside it cannot belong to a
// city-owned tree.
const (
	MinLatitude  = 44.5
	MaxLatitude  = 47.0
	MinLongitude = -75.5
	MaxLongitude = -72.0
)

// UnknownSpecies substitutes for an empty species label.
const UnknownSpecies = "Unknown"
