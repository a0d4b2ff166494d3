package model

import "time"

const (
	SourceLesson = "lesson"
	SourceChat   = "chat"
)

// Result is one scoring event. Leaderboards sum Exp over these rows.
type Result struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_results_user_created,priority:1" json:"userId"`
	Language  string    `gorm:"not null;size:10;index" json:"language"`
	Exp       int       `gorm:"not null" json:"exp"`
	Source    string    `gorm:"not null;size:20;default:'lesson'" json:"source"`
	CreatedAt time.Time `gorm:"index:idx_results_user_created,priority:2" json:"createdAt"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Result) TableName() string {
	return "results"
}

// Challenge is one completed exercise set.
type Challenge struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"not null;index" json:"userId"`
	ResultID      int64     `gorm:"not null;index" json:"resultId"`
	Language      string    `gorm:"not null;size:10" json:"language"`
	Topic         string    `gorm:"size:100" json:"topic"`
	QuestionCount int       `gorm:"not null" json:"questionCount"`
	Mistakes      int       `gorm:"not null" json:"mistakes"`
	CreatedAt     time.Time `json:"createdAt"`
	User          *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Result        *Result   `gorm:"foreignKey:ResultID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Challenge) TableName() string {
	return "challenges"
}

func (c Challenge) Perfect() bool {
	return c.Mistakes == 0 && c.QuestionCount > 0
}
