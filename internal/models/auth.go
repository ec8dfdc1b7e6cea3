package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds staff credentials.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// StudentLoginRequest identifies a student by university and national id.
type StudentLoginRequest struct {
	UniversityID string `json:"universityId" validate:"required"`
	NationalID   string `json:"nationalId" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// LoginResponse returns the issued token and who it was issued to.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresIn   int64     `json:"expiresIn"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// UserInfo describes the authenticated principal in responses.
type UserInfo struct {
	ID           string   `json:"id"`
	Email        string   `json:"email,omitempty"`
	FullName     string   `json:"fullName"`
	Role         UserRole `json:"role"`
	DepartmentID *int     `json:"departmentId,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID       string   `json:"userId"`
	Role         UserRole `json:"role"`
	Email        string   `json:"email,omitempty"`
	FullName     string   `json:"fullName"`
	DepartmentID *int     `json:"departmentId,omitempty"`
	jwt.RegisteredClaims
}
