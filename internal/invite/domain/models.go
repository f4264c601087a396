// Package domain contains the invite token and invitation models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// InviteToken is a shareable, organization-scoped token. A single token can
// back any number of invitations until it expires.
type InviteToken struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	Token     string       `gorm:"type:text;not null;uniqueIndex:ux_invite_tokens_token" json:"token"`
	ExpiresAt time.Time    `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InviteToken) TableName() string { return "invite_tokens" }

// Live reports whether the token can still be used at the given instant.
func (t InviteToken) Live(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

type InvitationStatus string

const (
	StatusPending  InvitationStatus = "PENDING"
	StatusAccepted InvitationStatus = "ACCEPTED"
)

// Invitation binds one invite token to one target email address. The email,
// stored normalized (trimmed, lower-cased), is the key a redeeming account
// is matched on.
type Invitation struct {
	ID        snowflake.ID     `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID     `gorm:"not null;index" json:"org_id"`
	TokenID   snowflake.ID     `gorm:"column:token_id;not null" json:"token_id"`
	Token     string           `gorm:"type:text;not null;index:ix_invitations_token_email,priority:1" json:"token"`
	Email     string           `gorm:"type:text;not null;index:ix_invitations_token_email,priority:2" json:"email"`
	Status    InvitationStatus `gorm:"type:text;not null;default:'PENDING'" json:"status"`
	CreatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invitation) TableName() string { return "invitations" }
