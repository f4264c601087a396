package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// GenerateToken mints a shareable invite token for the organization.
	GenerateToken(ctx context.Context, orgID string) (*TokenResponse, error)
	// SendInvites creates one invitation per email, bound to the token
	// carried by inviteLink, and enqueues a notification for each.
	SendInvites(ctx context.Context, orgID string, emails []string, inviteLink string) error
	// Redeem converts a pending invitation into a USER membership for the
	// account whose email matches the invited address.
	Redeem(ctx context.Context, rawToken string, userID snowflake.ID) error
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

var (
	ErrInvalidInviteLink  = errors.New("invalid_invite_link")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrNoRecipients       = errors.New("no_recipients")
	ErrTokenNotFound      = errors.New("invite_token_not_found")
	ErrTokenExpired       = errors.New("invite_token_expired")
	ErrInvitationNotFound = errors.New("invitation_not_found")
	ErrMustRegister       = errors.New("must_register")
	ErrAlreadyMember      = errors.New("already_member")
)
