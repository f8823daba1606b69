package domain

import "time"

type User struct {
	ID           uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// Identity is the authenticated caller of a request, rebuilt from the bearer
// token on every call.
type Identity struct {
	UserID uint64
	Email  string
}
