package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoleap/api/internal/database/dbtest"
	"github.com/lingoleap/api/internal/model"
)

func TestAchievementGoals_StoredAsJSON(t *testing.T) {
	db := dbtest.Open(t)

	a := model.Achievement{Key: "streaker", Category: model.CategoryStreak, Title: "On a roll", Goals: model.Goals{3, 7, 30}}
	require.NoError(t, db.Create(&a).Error)

	var raw string
	require.NoError(t, db.Raw("SELECT goals FROM achievements WHERE id = ?", a.ID).Scan(&raw).Error)
	assert.JSONEq(t, `[3,7,30]`, raw)

	var got model.Achievement
	require.NoError(t, db.First(&got, a.ID).Error)
	assert.Equal(t, model.Goals{3, 7, 30}, got.Goals)
}

func TestAscendingGoals(t *testing.T) {
	assert.True(t, model.AscendingGoals(nil))
	assert.True(t, model.AscendingGoals([]int{1}))
	assert.True(t, model.AscendingGoals(model.Goals{1, 5, 25}))
	assert.False(t, model.AscendingGoals([]int{1, 1}))
	assert.False(t, model.AscendingGoals([]int{5, 2}))
}
