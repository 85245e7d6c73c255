package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"classical-quiz-service/internal/domain"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Samples []domain.Item `yaml:"samples"`
}

// CatalogLoader reads the sample catalog from a YAML file. Relative sample paths are
// resolved against the file's directory.
type CatalogLoader struct {
	path string
}

func NewCatalogLoader(path string) *CatalogLoader {
	return &CatalogLoader{path: path}
}

func (l *CatalogLoader) Path() string {
	return l.path
}

func (l *CatalogLoader) LoadCatalog(_ context.Context) ([]domain.Item, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var parsed catalogFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", l.path, err)
	}
	if len(parsed.Samples) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	dups := lo.FindDuplicatesBy(parsed.Samples, func(item domain.Item) int { return item.ID })
	if len(dups) > 0 {
		return nil, fmt.Errorf("catalog %s: duplicate sample id %d", l.path, dups[0].ID)
	}

	base := filepath.Dir(l.path)
	return lo.Map(parsed.Samples, func(item domain.Item, _ int) domain.Item {
		item.URI = resolveURI(base, item.URI)
		return item
	}), nil
}

func resolveURI(base, uri string) string {
	if uri == "" || strings.Contains(uri, "://") || filepath.IsAbs(uri) {
		return uri
	}
	return filepath.Join(base, uri)
}
