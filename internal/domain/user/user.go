package user

import (
	"errors"
	"time"
)

// Role is the fixed set of access levels. Stored as text in the DB.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleEngineer   Role = "ENGINEER"
	RoleTechnician Role = "TECHNICIAN"
	RoleViewer     Role = "VIEWER"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEngineer, RoleTechnician, RoleViewer:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never expose hash in JSON
	Role         Role       `json:"role"`
	Phone        string     `json:"phone,omitempty"`
	Department   string     `json:"department,omitempty"`
	Avatar       string     `json:"avatar,omitempty"`
	IsActive     bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type CreateUserRequest struct {
	Name       string `json:"name" binding:"required,min=2,max=120"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Role       Role   `json:"role" binding:"omitempty,oneof=ADMIN MANAGER ENGINEER TECHNICIAN VIEWER"`
	Phone      string `json:"phone" binding:"omitempty,max=40"`
	Department string `json:"department" binding:"omitempty,max=120"`
}

// UpdateProfileRequest is the self-service payload. Identity and access
// fields are deliberately absent; only admins may touch those.
type UpdateProfileRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=2,max=120"`
	Phone      *string `json:"phone" binding:"omitempty,max=40"`
	Department *string `json:"department" binding:"omitempty,max=120"`
	Avatar     *string `json:"avatar" binding:"omitempty,url"`
}

// AdminUpdateUserRequest is the superset an admin may send.
type AdminUpdateUserRequest struct {
	UpdateProfileRequest
	Email    *string `json:"email" binding:"omitempty,email"`
	Role     *Role   `json:"role" binding:"omitempty,oneof=ADMIN MANAGER ENGINEER TECHNICIAN VIEWER"`
	IsActive *bool   `json:"isActive"`
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Search   *string
	Role     *Role
	IsActive *bool
	Page     int
	Limit    int
}
