package models

import (
	"time"
)

// User is an account in the users table. Passwd holds a bcrypt hash, never
// the plain text password.
type User struct {
	ID        uint      `gorm:"column:user_id;primaryKey" json:"user_id"`
	Login     string    `gorm:"uniqueIndex;not null" json:"login"`
	Passwd    string    `gorm:"not null" json:"-"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
