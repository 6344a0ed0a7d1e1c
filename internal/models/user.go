package models

import (
	"time"
)

// User is an account identified by email. The password is only ever held
// as a bcrypt hash and is set through the user service.
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Email        string    `gorm:"size:255;not null" json:"email"`
	EmailKey     string    `gorm:"size:255;not null;uniqueIndex" json:"-"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	IsActive     bool      `gorm:"not null" json:"-"`
	IsStaff      bool      `gorm:"not null" json:"-"`
	IsSuperuser  bool      `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Token is the opaque API key issued to a user. Each user holds at most one.
type Token struct {
	Key       string    `gorm:"primarykey;size:40" json:"key"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"-"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
