// Package seed loads the achievement catalog from YAML into the database.
package seed

import (
	"context"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lingoleap/api/internal/model"
)

type catalogFile struct {
	Achievements []model.Achievement `yaml:"achievements"`
}

// LoadCatalog parses and validates a catalog document.
func LoadCatalog(r io.Reader) ([]model.Achievement, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Achievements))
	for i, a := range f.Achievements {
		switch {
		case a.Key == "":
			return nil, fmt.Errorf("achievement %d: key is required", i)
		case seen[a.Key]:
			return nil, fmt.Errorf("achievement %q: duplicate key", a.Key)
		case !slices.Contains(model.Categories, a.Category):
			return nil, fmt.Errorf("achievement %q: unknown category %q", a.Key, a.Category)
		case a.Title == "":
			return nil, fmt.Errorf("achievement %q: title is required", a.Key)
		case len(a.Goals) == 0 || !model.AscendingGoals(a.Goals) || a.Goals[0] < 1:
			return nil, fmt.Errorf("achievement %q: goals must be positive and strictly ascending", a.Key)
		}
		seen[a.Key] = true
	}
	return f.Achievements, nil
}

// Apply upserts the catalog by key. Achievements missing from the catalog
// are left alone so user progress on them survives.
func Apply(ctx context.Context, db *gorm.DB, catalog []model.Achievement) (int, error) {
	if len(catalog) == 0 {
		return 0, nil
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"category", "title", "description", "goals", "updated_at"}),
	}).Create(&catalog).Error
	if err != nil {
		return 0, fmt.Errorf("upsert achievements: %w", err)
	}
	return len(catalog), nil
}
