package models

import "time"

// ScrapeRun is one recorded scrape attempt (operational log, SQLite)
type ScrapeRun struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	RunID     string        `gorm:"uniqueIndex;not null" json:"run_id"`
	Username  string        `gorm:"index;not null" json:"username"`
	Source    string        `json:"source"` // nitter, rss, browser
	PostCount int           `json:"post_count"`
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

// GeneratedRecord is one recorded generation (operational log, SQLite)
type GeneratedRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"index;not null" json:"username"`
	UserID     string    `gorm:"index" json:"user_id"`
	Topic      string    `json:"topic"`
	Length     string    `json:"length"`
	Prediction string    `json:"prediction"`
	Post       string    `gorm:"type:text" json:"post"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
