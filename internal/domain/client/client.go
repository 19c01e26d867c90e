package client

import (
	"errors"
	"time"
)

// Client is a customer of the firm, not an API consumer.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Document  string    `json:"document,omitempty"` // tax id, unique when present
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrNotFound      = errors.New("client not found")
	ErrDocumentTaken = errors.New("client document already registered")
)

type CreateClientRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=200"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone" binding:"omitempty,max=40"`
	Document string `json:"document" binding:"omitempty,max=40"`
	Address  string `json:"address" binding:"omitempty,max=300"`
	City     string `json:"city" binding:"omitempty,max=120"`
	State    string `json:"state" binding:"omitempty,max=60"`
	Notes    string `json:"notes" binding:"omitempty,max=5000"`
}

type UpdateClientRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=200"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone" binding:"omitempty,max=40"`
	Document *string `json:"document" binding:"omitempty,max=40"`
	Address  *string `json:"address" binding:"omitempty,max=300"`
	City     *string `json:"city" binding:"omitempty,max=120"`
	State    *string `json:"state" binding:"omitempty,max=60"`
	Notes    *string `json:"notes" binding:"omitempty,max=5000"`
	IsActive *bool   `json:"isActive"`
}

type ListFilter struct {
	Search   *string
	IsActive *bool
	Page     int
	Limit    int
}
