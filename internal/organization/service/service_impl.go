package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/teamhub/internal/organization/domain"
	userdomain "github.com/smallbiznis/teamhub/internal/user/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db    *gorm.DB
	repo  domain.Repository
	users userdomain.Repository
	genID *snowflake.Node
	now   func() time.Time
}

func NewService(db *gorm.DB, repo domain.Repository, users userdomain.Repository, genID *snowflake.Node) domain.Service {
	return &service{
		db:    db,
		repo:  repo,
		users: users,
		genID: genID,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateOrganizationRequest) (*domain.OrganizationResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.now()
	orgID := s.genID.Generate()
	org := domain.Organization{
		ID:        orgID,
		Name:      name,
		Slug:      slug.Make(name) + "-" + orgID.String(),
		OwnerID:   userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganization(ctx, org); err != nil {
			return err
		}

		member := domain.Member{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			UserID:    userID,
			Role:      domain.RoleAdmin,
			CreatedAt: now,
		}

		return repo.AddMember(ctx, member)
	})
	if err != nil {
		// Surface a generic error to the caller; the cause stays in the logs.
		zap.L().Error("organization create failed",
			zap.String("owner_id", userID.String()),
			zap.Error(err),
		)
		return nil, domain.ErrCreateFailed
	}

	return &domain.OrganizationResponse{
		ID:      orgID.String(),
		Name:    name,
		Slug:    org.Slug,
		OwnerID: userID.String(),
	}, nil
}

func (s *service) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.OrganizationListResponseItem, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.OrganizationListResponseItem, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.OrganizationListResponseItem{
			ID:        item.ID.String(),
			Name:      item.Name,
			Role:      item.Role,
			CreatedAt: item.CreatedAt,
		})
	}

	return resp, nil
}

// GetForUser returns the organization only when the requester holds a
// membership in it; anything else is reported as not found.
func (s *service) GetForUser(ctx context.Context, orgID string, userID snowflake.ID) (*domain.OrganizationResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	id, err := parseOrgID(orgID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindMember(ctx, id, userID); err != nil {
		if err == domain.ErrMemberNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.OrganizationResponse{
		ID:      org.ID.String(),
		Name:    org.Name,
		Slug:    org.Slug,
		OwnerID: org.OwnerID.String(),
	}, nil
}

func (s *service) RemoveMember(ctx context.Context, requesterID snowflake.ID, orgID string, memberUserID string) (*domain.RemovedMember, error) {
	if requesterID == 0 {
		return nil, domain.ErrInvalidUser
	}

	id, err := parseOrgID(orgID)
	if err != nil {
		return nil, err
	}
	targetID, err := snowflake.ParseString(strings.TrimSpace(memberUserID))
	if err != nil {
		return nil, domain.ErrInvalidUser
	}

	requester, err := s.repo.FindMember(ctx, id, requesterID)
	if err != nil {
		if err == domain.ErrMemberNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if requester.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	target, err := s.repo.FindMember(ctx, id, targetID)
	if err != nil {
		return nil, err
	}

	if target.Role == domain.RoleAdmin {
		admins, err := s.repo.CountMembersByRole(ctx, id, domain.RoleAdmin)
		if err != nil {
			return nil, err
		}
		// An organization must never be left without an admin.
		if admins <= 1 {
			return nil, domain.ErrLastAdmin
		}
	}

	if err := s.repo.DeleteMember(ctx, target.ID); err != nil {
		return nil, err
	}

	removed := &domain.RemovedMember{UserID: targetID.String()}
	if user, err := s.users.FindByID(ctx, targetID); err == nil {
		removed.Username = user.Username
		removed.Email = user.Email
	}

	return removed, nil
}

func parseOrgID(raw string) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, domain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil {
		return 0, domain.ErrInvalidOrganization
	}
	return id, nil
}
