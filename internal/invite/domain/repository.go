package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateToken(ctx context.Context, token InviteToken) error
	FindToken(ctx context.Context, token string, orgID snowflake.ID) (*InviteToken, error)
	FindTokenByID(ctx context.Context, id snowflake.ID) (*InviteToken, error)
	CreateInvitations(ctx context.Context, invitations []Invitation) error
	FindInvitation(ctx context.Context, token, email string) (*Invitation, error)
	MarkAccepted(ctx context.Context, invitationID snowflake.ID, at time.Time) error
}
