package models

import (
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Email         string     `json:"email" gorm:"uniqueIndex;not null"`
	Password      string     `json:"-" gorm:"not null"`
	FullName      string     `json:"full_name" gorm:"not null"`
	Qualification string     `json:"qualification"`
	DOB           *time.Time `json:"dob,omitempty"`
	Role          string     `json:"role" gorm:"not null;default:'user'"`
	Active        bool       `json:"active" gorm:"not null;default:true"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relationships
	Attempts []QuizAttempt `json:"attempts,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
