// Package viewer loads the consolidated dataset once and answers the
// time-slider queries: which trees existed at (or were planted in) a
// given year, optionally narrowed to one species.
package viewer

import (
	"fmt"
	"sort"
	"strings"

	"montreal-tree-map/internal/dataset"
	"montreal-tree-map/internal/domain"
)

// Mode selects the year-filter semantics.
type Mode string

const (
	// ModeCumulative shows every tree planted up to and including the
	// query year. The default: matches the timeline framing of the map.
	ModeCumulative Mode = "cumulative"
	// ModeYear shows only trees planted exactly in the query year.
	ModeYear Mode = "year"
)

// ParseMode interprets a query-string mode value. Empty selects
// cumulative.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(value)) {
	case "", ModeCumulative:
		return ModeCumulative, nil
	case ModeYear:
		return ModeYear, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want cumulative or year)", value)
	}
}

// Store holds the loaded records and the YearIndex. Built once at load
// time and never mutated, so it is safe for concurrent readers.
type Store struct {
	records []domain.TreeRecord
	years   []int         // distinct planting years, ascending
	byYear  map[int][]int // year → record indices in dataset order
	species []string
	meta    *dataset.Metadata
	skipped int
}

// Load reads the dataset file and builds the index. The one read this
// store ever performs.
func Load(path string) (*Store, error) {
	result, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	store := New(result.Records, result.Metadata)
	store.skipped = result.Skipped
	return store, nil
}

// New builds a Store (and its YearIndex) from records already in memory.
func New(records []domain.TreeRecord, meta *dataset.Metadata) *Store {
	byYear := make(map[int][]int)
	speciesSet := make(map[string]bool)
	for i, rec := range records {
		byYear[rec.PlantedYear] = append(byYear[rec.PlantedYear], i)
		speciesSet[rec.Species] = true
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	species := make([]string, 0, len(speciesSet))
	for s := range speciesSet {
		species = append(species, s)
	}
	sort.Strings(species)

	return &Store{
		records: records,
		years:   years,
		byYear:  byYear,
		species: species,
		meta:    meta,
	}
}

// Query returns the records to display for a year under the given mode.
// Cumulative results are monotonic: the set for year+1 is a superset of
// the set for year. Result order follows dataset order.
func (s *Store) Query(year int, mode Mode) []domain.TreeRecord {
	var out []domain.TreeRecord
	switch mode {
	case ModeYear:
		for _, i := range s.byYear[year] {
			out = append(out, s.records[i])
		}
	default:
		for _, y := range s.years {
			if y > year {
				break
			}
			for _, i := range s.byYear[y] {
				out = append(out, s.records[i])
			}
		}
	}
	return out
}

// FilterSpecies applies the species predicate after the year filter. The
// match is exact and case-insensitive; the underlying index is untouched.
func FilterSpecies(records []domain.TreeRecord, species string) []domain.TreeRecord {
	if species == "" {
		return records
	}
	var out []domain.TreeRecord
	for _, rec := range records {
		if strings.EqualFold(rec.Species, species) {
			out = append(out, rec)
		}
	}
	return out
}

// Years returns the distinct planting years in ascending order.
func (s *Store) Years() []int {
	return s.years
}

// YearCount returns how many trees were planted in one year.
func (s *Store) YearCount(year int) int {
	return len(s.byYear[year])
}

// YearRange returns the inclusive planting-year span; ok is false for an
// empty store.
func (s *Store) YearRange() (minYear, maxYear int, ok bool) {
	if len(s.years) == 0 {
		return 0, 0, false
	}
	return s.years[0], s.years[len(s.years)-1], true
}

// Species returns the distinct species labels, sorted.
func (s *Store) Species() []string {
	return s.species
}

// Metadata returns the dataset's metadata block, which may be nil for a
// dataset written without one.
func (s *Store) Metadata() *dataset.Metadata {
	return s.meta
}

// Len is the number of loaded records.
func (s *Store) Len() int {
	return len(s.records)
}

// Skipped is the number of features the loader could not interpret.
func (s *Store) Skipped() int {
	return s.skipped
}
