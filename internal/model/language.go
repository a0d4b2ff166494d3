package model

import "time"

// Language tracks a user's proficiency in one practised language.
type Language struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_user_language,priority:1" json:"userId"`
	Code      string    `gorm:"not null;size:10;uniqueIndex:idx_user_language,priority:2" json:"code"`
	Exp       int       `gorm:"not null;default:0" json:"exp"`
	Rank      int       `gorm:"not null;default:1" json:"rank"`
	UpdatedAt time.Time `json:"updatedAt"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Language) TableName() string {
	return "languages"
}
