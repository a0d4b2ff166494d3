package model

import (
	"time"

	"gorm.io/datatypes"
)

// Achievement categories. Progress for each is derived from a different
// counter, see progress.Tracker.
const (
	CategoryLessons    = "lessons"
	CategoryPerfect    = "perfect"
	CategoryExperience = "experience"
	CategoryStreak     = "streak"
	CategoryPolyglot   = "polyglot"
	CategoryChat       = "chat"
)

var Categories = []string{
	CategoryLessons,
	CategoryPerfect,
	CategoryExperience,
	CategoryStreak,
	CategoryPolyglot,
	CategoryChat,
}

// Goals is an ascending list of tier thresholds stored as a JSON array.
type Goals = datatypes.JSONSlice[int]

// AscendingGoals reports whether every goal is strictly greater than the
// previous one.
func AscendingGoals(goals []int) bool {
	for i := 1; i < len(goals); i++ {
		if goals[i] <= goals[i-1] {
			return false
		}
	}
	return true
}

type Achievement struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Key         string    `gorm:"not null;uniqueIndex;size:50" json:"key" binding:"required,max=50" yaml:"key"`
	Category    string    `gorm:"not null;index;size:20" json:"category" binding:"required" yaml:"category"`
	Title       string    `gorm:"not null;size:100" json:"title" binding:"required,max=100" yaml:"title"`
	Description string    `gorm:"type:text" json:"description" yaml:"description"`
	Goals       Goals     `gorm:"not null" json:"goals" binding:"required,min=1" yaml:"goals"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
}

func (Achievement) TableName() string {
	return "achievements"
}

type UserAchievement struct {
	ID            int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64        `gorm:"not null;uniqueIndex:idx_user_achievement,priority:1" json:"userId"`
	AchievementID int64        `gorm:"not null;uniqueIndex:idx_user_achievement,priority:2" json:"achievementId"`
	Progress      int          `gorm:"not null;default:0" json:"progress"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	Achievement   *Achievement `gorm:"foreignKey:AchievementID;constraint:OnDelete:CASCADE" json:"achievement,omitempty"`
	User          *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
