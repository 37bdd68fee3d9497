package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// SessionUser is the identity snapshot cached for a session. It is taken at
// login time and never re-read from the users table.
type SessionUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

func (u *User) SessionUser() SessionUser {
	return SessionUser{ID: u.ID, Username: u.Username}
}
