package model

import "time"

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"not null;uniqueIndex;size:255" json:"email"`
	Username     string    `gorm:"not null;uniqueIndex;size:50" json:"username"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Provider     string    `gorm:"not null;default:'local';size:20" json:"provider"`
	ProviderID   string    `gorm:"size:255" json:"-"`
	AvatarURL    string    `json:"avatarUrl"`
	Exp          int       `gorm:"not null;default:0" json:"exp"`
	Streak       int       `gorm:"not null;default:0" json:"streak"`
	MaxStreak    int       `gorm:"not null;default:0" json:"maxStreak"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
