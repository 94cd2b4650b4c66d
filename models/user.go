package models

import "time"

// User is the authenticated identity every appointment and review belongs to.
type User struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Username     string       `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email        string       `gorm:"size:254" json:"email"`
	PasswordHash string       `gorm:"not null" json:"-"`
	IsAdmin      bool         `gorm:"not null" json:"is_admin"`
	Profile      *UserProfile `json:"profile,omitempty"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

// UserProfile carries optional contact details; one per user, created on first access.
type UserProfile struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	PhoneNumber string     `gorm:"size:15" json:"phone_number"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	Address     string     `gorm:"type:text" json:"address"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=150"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
