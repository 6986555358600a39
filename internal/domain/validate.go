package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RejectReason labels why a row was dropped. Reasons are stable strings:
// they key operator report counts and the rows_rejected_total metric.
type RejectReason string

const (
	RejectShortRow     RejectReason = "short_row"
	RejectYearMissing  RejectReason = "year_missing"
	RejectYearInvalid  RejectReason = "year_invalid"
	RejectYearSentinel RejectReason = "year_sentinel"
	RejectYearRange    RejectReason = "year_range"
	RejectCoordMissing RejectReason = "coord_missing"
	RejectCoordInvalid RejectReason = "coord_invalid"
	RejectCoordZero    RejectReason = "coord_zero"
	RejectCoordBounds  RejectReason = "coord_bounds"
	RejectDuplicateID  RejectReason = "duplicate_id"
)

// RejectReasons lists every reason in report order.
var RejectReasons = []RejectReason{
	RejectShortRow,
	RejectYearMissing,
	RejectYearInvalid,
	RejectYearSentinel,
	RejectYearRange,
	RejectCoordMissing,
	RejectCoordInvalid,
	RejectCoordZero,
	RejectCoordBounds,
	RejectDuplicateID,
}

// RejectError reports a row-level validation failure. Row errors are never
// fatal: the pipeline counts them and moves on.
type RejectError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func reject(reason RejectReason, format string, args ...any) error {
	return &RejectError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// sentinelYears are literal values known to be data-entry artifacts rather
// than real years. 205 is the truncated-millennium typo seen in the
// Montréal extracts.
var sentinelYears = map[int]bool{
	205: true,
}

// ValidateTreeRow converts a raw row into a TreeRecord, applying the
// validation rules documented in the package comment. On failure the
// returned error is a *RejectError.
func ValidateTreeRow(row RawTreeRow) (TreeRecord, error) {
	year, err := ParsePlantedYear(row.PlantedDate)
	if err != nil {
		return TreeRecord{}, err
	}

	lat, lon, err := parseCoordinates(row.Lat, row.Lon)
	if err != nil {
		return TreeRecord{}, err
	}

	species := strings.TrimSpace(row.Species)
	if species == "" {
		species = UnknownSpecies
	}

	id := strings.TrimSpace(row.ID)
	if id == "" {
		id = SynthesizeID(species, year, lat, lon)
	}

	return TreeRecord{
		ID:          id,
		Species:     species,
		PlantedYear: year,
		Latitude:    lat,
		Longitude:   lon,
		Extra:       row.Extra,
	}, nil
}

// ParsePlantedYear extracts a planting year from a bare integer ("2010"),
// an ISO date ("2010-05-14"), or an ISO datetime ("2010-05-14T00:00:00").
func ParsePlantedYear(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, reject(RejectYearMissing, "no planting date")
	}

	year, err := strconv.Atoi(value)
	if err != nil {
		year, err = yearFromISODate(value)
	}
	if err != nil {
		return 0, reject(RejectYearInvalid, "unparseable planting date %q", value)
	}

	if sentinelYears[year] {
		return 0, reject(RejectYearSentinel, "artifact year %d", year)
	}
	if year < MinPlantedYear || year > MaxPlantedYear {
		return 0, reject(RejectYearRange, "year %d outside [%d, %d]", year, MinPlantedYear, MaxPlantedYear)
	}
	return year, nil
}

func yearFromISODate(value string) (int, error) {
	// Strip the zero time suffix the portal emits ("2010-05-14T00:00:00").
	if i := strings.IndexByte(value, 'T'); i > 0 {
		value = value[:i]
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}

func parseCoordinates(latStr, lonStr string) (float64, float64, error) {
	latStr = strings.TrimSpace(latStr)
	lonStr = strings.TrimSpace(lonStr)
	if latStr == "" || lonStr == "" {
		return 0, 0, reject(RejectCoordMissing, "lat=%q lon=%q", latStr, lonStr)
	}

	lat, errLat := strconv.ParseFloat(latStr, 64)
	lon, errLon := strconv.ParseFloat(lonStr, 64)
	if errLat != nil || errLon != nil {
		return 0, 0, reject(RejectCoordInvalid, "lat=%q lon=%q", latStr, lonStr)
	}

	// The portal writes 0 (or values near 0) when the surveyor recorded no
	// position. Anything below 10 degrees absolute is the same sentinel.
	if math.Abs(lat) < 10 || math.Abs(lon) < 10 {
		return 0, 0, reject(RejectCoordZero, "null-island coordinates (%g, %g)", lat, lon)
	}

	if lat < MinLatitude || lat > MaxLatitude || lon < MinLongitude || lon > MaxLongitude {
		return 0, 0, reject(RejectCoordBounds, "(%g, %g) outside Montréal box", lat, lon)
	}
	return lat, lon, nil
}

// SynthesizeID produces a deterministic ID from a record's key fields.
// Deterministic IDs keep reruns byte-identical and make true duplicate
// rows collapse to a single record.
func SynthesizeID(species string, year int, lat, lon float64) string {
	input := fmt.Sprintf("%s|%d|%.6f|%.6f", species, year, lat, lon)
	hash := sha256.Sum256([]byte(input))
	return "tree-" + hex.EncodeToString(hash[:8])
}
