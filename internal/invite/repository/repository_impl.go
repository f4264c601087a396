package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamhub/internal/invite/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateToken(ctx context.Context, token domain.InviteToken) error {
	return r.db.WithContext(ctx).Create(&token).Error
}

func (r *repository) FindToken(ctx context.Context, token string, orgID snowflake.ID) (*domain.InviteToken, error) {
	var row domain.InviteToken
	err := r.db.WithContext(ctx).
		First(&row, "token = ? AND org_id = ?", token, orgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindTokenByID(ctx context.Context, id snowflake.ID) (*domain.InviteToken, error) {
	var row domain.InviteToken
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) CreateInvitations(ctx context.Context, invitations []domain.Invitation) error {
	if len(invitations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&invitations).Error
}

// FindInvitation returns the best match for (token, email): a pending
// invitation when one exists, otherwise the oldest consumed one. The caller
// decides what a consumed invitation means for the current operation.
func (r *repository) FindInvitation(ctx context.Context, token, email string) (*domain.Invitation, error) {
	var row domain.Invitation
	err := r.db.WithContext(ctx).
		Where("token = ? AND email = ?", token, email).
		Order("CASE WHEN status = 'PENDING' THEN 0 ELSE 1 END, created_at ASC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) MarkAccepted(ctx context.Context, invitationID snowflake.ID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Invitation{}).
		Where("id = ?", invitationID).
		Updates(map[string]interface{}{
			"status":     domain.StatusAccepted,
			"updated_at": at,
		}).Error
}
