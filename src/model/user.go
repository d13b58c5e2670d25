package model

import "time"

// User owns simulations. Passwords are stored bcrypt-hashed, never in clear.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	// Email is a pointer so users registered without one store NULL and
	// never collide on the unique index.
	Email        *string   `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
