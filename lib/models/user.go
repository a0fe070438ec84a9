package models

import (
	"database/sql"
	"time"
)

// User represents a company user profile based on the iam.users table.
// Authentication lives in Cognito; this table carries the profile and role.
type User struct {
	UserID    int64          `json:"user_id"`
	CompanyID int64          `json:"company_id"`
	CognitoID string         `json:"cognito_id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Phone     sql.NullString `json:"phone,omitempty"`
	Role      string         `json:"role"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	CreatedBy int64          `json:"created_by"`
	UpdatedAt time.Time      `json:"updated_at"`
	UpdatedBy int64          `json:"updated_by"`
}

// CreateUserRequest represents the request payload for inviting a new user
type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone,omitempty" validate:"max=20"`
	Role      string `json:"role" validate:"required,oneof=admin manager staff viewer"`
}

// UpdateUserRequest represents the request payload for updating a user profile
type UpdateUserRequest struct {
	FirstName string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone     string `json:"phone,omitempty" validate:"max=20"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=admin manager staff viewer"`
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=active disabled"`
}

// UserListResponse represents the response for listing users
type UserListResponse struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}
