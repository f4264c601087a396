package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateOrganizationRequest) (*OrganizationResponse, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]OrganizationListResponseItem, error)
	GetForUser(ctx context.Context, orgID string, userID snowflake.ID) (*OrganizationResponse, error)
	RemoveMember(ctx context.Context, requesterID snowflake.ID, orgID string, memberUserID string) (*RemovedMember, error)
}

type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

type OrganizationResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	OwnerID string `json:"owner_id"`
}

type OrganizationListResponseItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// RemovedMember identifies the user whose membership was deleted.
type RemovedMember struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrNotFound            = errors.New("organization_not_found")
	ErrMemberNotFound      = errors.New("member_not_found")
	ErrForbidden           = errors.New("forbidden")
	ErrLastAdmin           = errors.New("last_admin")
	ErrCreateFailed        = errors.New("organization_create_failed")
)
