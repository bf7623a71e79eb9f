package models

import (
	"time"
)

type Subject struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Chapters []Chapter `json:"chapters,omitempty" gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE"`
}
