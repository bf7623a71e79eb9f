package models

import (
	"time"
)

type Quiz struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"not null"`
	ChapterID    uint      `json:"chapter_id" gorm:"not null;index"`
	DateOfQuiz   time.Time `json:"date_of_quiz" gorm:"not null"`
	TimeDuration int       `json:"time_duration" gorm:"not null"` // minutes
	Remarks      string    `json:"remarks"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Chapter   Chapter       `json:"chapter,omitempty"`
	Questions []Question    `json:"questions,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
	Attempts  []QuizAttempt `json:"attempts,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}
