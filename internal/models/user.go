package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates portal roles.
type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleDoctor UserRole = "DOCTOR"
)

// JWTClaims carries the identity attached to a request. Tokens are issued by
// the faculty auth service; this API only validates them.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	DoctorID string   `json:"doctor_id,omitempty"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Pagination carries list paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
