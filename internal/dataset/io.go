package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"montreal-tree-map/internal/domain"
)

// Write serializes the collection as compact JSON. Compact output plus
// Go's sorted map-key encoding keeps reruns byte-identical.
func Write(path string, fc FeatureCollection) error {
	data, err := Encode(fc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

// Encode renders the collection as compact JSON with a trailing newline.
func Encode(fc FeatureCollection) ([]byte, error) {
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	return append(data, '\n'), nil
}

// LoadResult is the outcome of reading a dataset from disk.
type LoadResult struct {
	Records  []domain.TreeRecord
	Metadata *Metadata
	Skipped  int // features present in the file but not interpretable
}

// Load reads a consolidated dataset in one pass. The file-level envelope
// must parse; individual features that do not are skipped and counted so
// a hand-edited file degrades instead of failing the page load.
func Load(path string) (LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("read dataset: %w", err)
	}
	return Decode(data)
}

// Decode parses dataset bytes; see Load for the tolerance contract.
func Decode(data []byte) (LoadResult, error) {
	var raw struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
		Metadata *Metadata         `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return LoadResult{}, fmt.Errorf("parse dataset: %w", err)
	}
	if raw.Type != "FeatureCollection" {
		return LoadResult{}, fmt.Errorf("parse dataset: unexpected type %q", raw.Type)
	}

	result := LoadResult{
		Records:  make([]domain.TreeRecord, 0, len(raw.Features)),
		Metadata: raw.Metadata,
	}
	for _, rawFeature := range raw.Features {
		var f Feature
		if err := json.Unmarshal(rawFeature, &f); err != nil {
			result.Skipped++
			continue
		}
		rec, err := FeatureRecord(f)
		if err != nil {
			result.Skipped++
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}
