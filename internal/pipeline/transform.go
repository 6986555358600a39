package pipeline

import (
	"montreal-tree-map/internal/dataset"
	"montreal-tree-map/internal/domain"
)

// TreeTransformer implements Transformer using the domain validation
// rules.
type TreeTransformer struct{}

// NewTransformer creates the standard TreeTransformer.
func NewTransformer() *TreeTransformer {
	return &TreeTransformer{}
}

func (t *TreeTransformer) Transform(row domain.RawTreeRow) (domain.TreeRecord, error) {
	return domain.ValidateTreeRow(row)
}

// FileLoader implements Loader by writing the dataset to one path.
type FileLoader struct {
	Path string
}

// NewFileLoader creates a Loader targeting path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

func (l *FileLoader) Load(fc dataset.FeatureCollection) error {
	return dataset.Write(l.Path, fc)
}
