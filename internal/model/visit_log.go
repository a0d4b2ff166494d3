package model

import "time"

// DayLayout is the calendar-day key format used by VisitLog and DailyWord.
const DayLayout = "2006-01-02"

type VisitLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_visit_user_day,priority:1" json:"userId"`
	Day       string    `gorm:"not null;size:10;uniqueIndex:idx_visit_user_day,priority:2" json:"day"`
	CreatedAt time.Time `json:"createdAt"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (VisitLog) TableName() string {
	return "visit_logs"
}
