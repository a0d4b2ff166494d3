package model

import (
	"time"

	"gorm.io/datatypes"
)

type DailyWord struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Day           string         `gorm:"not null;size:10;uniqueIndex:idx_daily_word_day_language,priority:1" json:"day"`
	Language      string         `gorm:"not null;size:10;uniqueIndex:idx_daily_word_day_language,priority:2" json:"language"`
	Word          string         `gorm:"not null;size:100" json:"word"`
	Translation   string         `gorm:"size:255" json:"translation"`
	Pronunciation string         `gorm:"size:255" json:"pronunciation"`
	Definition    string         `gorm:"type:text" json:"definition"`
	Examples      datatypes.JSON `json:"examples"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func (DailyWord) TableName() string {
	return "daily_words"
}
