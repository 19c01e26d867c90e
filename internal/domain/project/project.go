package project

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPlanning   Status = "PLANNING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOnHold     Status = "ON_HOLD"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPlanning, StatusInProgress, StatusOnHold, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

type Project struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Code          string     `json:"code"` // unique short identifier, e.g. "RA-0042"
	Status        Status     `json:"status"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	EstimatedCost *float64   `json:"estimatedCost,omitempty"`
	Address       string     `json:"address,omitempty"`
	City          string     `json:"city,omitempty"`
	State         string     `json:"state,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	ClientID      *string    `json:"clientId,omitempty"`
	ManagerID     *string    `json:"managerId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

var (
	ErrNotFound  = errors.New("project not found")
	ErrCodeTaken = errors.New("project code already in use")
)

type CreateProjectRequest struct {
	Name          string     `json:"name" binding:"required,min=2,max=200"`
	Description   string     `json:"description" binding:"omitempty,max=5000"`
	Code          string     `json:"code" binding:"required,min=2,max=40"`
	Status        Status     `json:"status" binding:"omitempty,oneof=PLANNING IN_PROGRESS ON_HOLD COMPLETED CANCELLED"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	EstimatedCost *float64   `json:"estimatedCost" binding:"omitempty,gt=0"`
	Address       string     `json:"address" binding:"omitempty,max=300"`
	City          string     `json:"city" binding:"omitempty,max=120"`
	State         string     `json:"state" binding:"omitempty,max=60"`
	Notes         string     `json:"notes" binding:"omitempty,max=5000"`
	ClientID      *string    `json:"clientId" binding:"omitempty,uuid"`
	ManagerID     *string    `json:"managerId" binding:"omitempty,uuid"`
}

type UpdateProjectRequest struct {
	Name          *string    `json:"name" binding:"omitempty,min=2,max=200"`
	Description   *string    `json:"description" binding:"omitempty,max=5000"`
	Code          *string    `json:"code" binding:"omitempty,min=2,max=40"`
	Status        *Status    `json:"status" binding:"omitempty,oneof=PLANNING IN_PROGRESS ON_HOLD COMPLETED CANCELLED"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	EstimatedCost *float64   `json:"estimatedCost" binding:"omitempty,gt=0"`
	Address       *string    `json:"address" binding:"omitempty,max=300"`
	City          *string    `json:"city" binding:"omitempty,max=120"`
	State         *string    `json:"state" binding:"omitempty,max=60"`
	Notes         *string    `json:"notes" binding:"omitempty,max=5000"`
	ClientID      *string    `json:"clientId" binding:"omitempty,uuid"`
	ManagerID     *string    `json:"managerId" binding:"omitempty,uuid"`
}

type ListFilter struct {
	Search    *string
	Status    *Status
	ClientID  *string
	ManagerID *string
	Page      int
	Limit     int
}
