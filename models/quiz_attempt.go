package models

import (
	"time"
)

// QuizAttempt is a point-in-time fact: created once at submission,
// never updated, removed only by admin delete or quiz cascade.
type QuizAttempt struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`
	QuizID     uint      `json:"quiz_id" gorm:"not null;index"`
	Timestamp  time.Time `json:"timestamp" gorm:"not null;index"`
	TotalScore float64   `json:"total_score" gorm:"not null"`
	MaxScore   float64   `json:"max_score" gorm:"not null"`
	Percentage float64   `json:"percentage" gorm:"not null"` // 0-100, 2 decimals

	// Relationships
	User User `json:"user,omitempty"`
	Quiz Quiz `json:"quiz,omitempty"`
}
