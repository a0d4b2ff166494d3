package seed

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoleap/api/internal/database/dbtest"
	"github.com/lingoleap/api/internal/model"
)

const catalog = `
achievements:
  - key: first-steps
    category: lessons
    title: First steps
    description: Complete lessons
    goals: [1, 10, 50]
  - key: flawless
    category: perfect
    title: Flawless
    goals: [1, 5]
`

func TestLoadCatalog(t *testing.T) {
	got, err := LoadCatalog(strings.NewReader(catalog))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first-steps", got[0].Key)
	assert.Equal(t, model.Goals{1, 10, 50}, got[0].Goals)
}

func TestLoadCatalog_Rejects(t *testing.T) {
	cases := map[string]string{
		"descending goals": "achievements:\n  - {key: a, category: lessons, title: A, goals: [5, 1]}\n",
		"unknown category": "achievements:\n  - {key: a, category: cooking, title: A, goals: [1]}\n",
		"duplicate key":    "achievements:\n  - {key: a, category: chat, title: A, goals: [1]}\n  - {key: a, category: chat, title: B, goals: [2]}\n",
		"unknown field":    "achievements:\n  - {key: a, category: chat, title: A, goals: [1], points: 3}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestApply_Upserts(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	first, err := LoadCatalog(strings.NewReader(catalog))
	require.NoError(t, err)
	n, err := Apply(ctx, db, first)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	updated, err := LoadCatalog(strings.NewReader(strings.Replace(catalog, "goals: [1, 5]", "goals: [1, 3, 9]", 1)))
	require.NoError(t, err)
	_, err = Apply(ctx, db, updated)
	require.NoError(t, err)

	var rows []model.Achievement
	require.NoError(t, db.Order("key").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, model.Goals{1, 3, 9}, rows[1].Goals)
}

func TestShippedCatalogIsValid(t *testing.T) {
	f, err := os.Open("../../data/achievements.yaml")
	require.NoError(t, err)
	defer f.Close()

	got, err := LoadCatalog(f)
	require.NoError(t, err)

	categories := map[string]bool{}
	for _, a := range got {
		categories[a.Category] = true
	}
	for _, c := range model.Categories {
		assert.True(t, categories[c], "catalog covers %s", c)
	}
}
