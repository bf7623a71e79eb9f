package models

import (
	"time"
)

type Chapter struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	SubjectID   uint      `json:"subject_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Subject Subject `json:"subject,omitempty"`
	Quizzes []Quiz  `json:"quizzes,omitempty" gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE"`
}
