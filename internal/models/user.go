package models

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// User is the identity summary supplied by the identity provider. The core
// only reads it; registration and credentials live outside this service.
type User struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Surname    string  `json:"surname,omitempty"`
	AvatarPath *string `json:"avatar_path,omitempty"`
	Reputation float64 `json:"reputation"`
}

type Claims struct {
	UserID uint `json:"user_id"`
	jwt.StandardClaims
}

type Session struct {
	UserID       int       `json:"user_id"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
