package models

import "time"

const MaxCommentLength = 1000

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reviews_user_doctor" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	DoctorID  uint      `gorm:"not null;uniqueIndex:idx_reviews_user_doctor;index" json:"doctor_id"`
	Doctor    *Doctor   `gorm:"constraint:OnDelete:CASCADE" json:"doctor,omitempty"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Reviewer  string    `gorm:"-" json:"reviewer,omitempty"`
}
