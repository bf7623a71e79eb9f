package models

import (
	"time"
)

type Question struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	QuizID            uint      `json:"quiz_id" gorm:"not null;index"`
	QuestionStatement string    `json:"question_statement" gorm:"not null"`
	Option1           string    `json:"option1" gorm:"not null"`
	Option2           string    `json:"option2" gorm:"not null"`
	Option3           string    `json:"option3" gorm:"not null"`
	Option4           string    `json:"option4" gorm:"not null"`
	CorrectOption     int       `json:"correct_option" gorm:"not null"` // 1..4
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Relationships
	Quiz Quiz `json:"quiz,omitempty"`
}
