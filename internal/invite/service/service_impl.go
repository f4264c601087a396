package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/teamhub/internal/invite/domain"
	organizationdomain "github.com/smallbiznis/teamhub/internal/organization/domain"
	emailprovider "github.com/smallbiznis/teamhub/internal/providers/email"
	"github.com/smallbiznis/teamhub/internal/providers/mailqueue"
	userdomain "github.com/smallbiznis/teamhub/internal/user/domain"
	"github.com/smallbiznis/teamhub/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const inviteSubject = "Invitation to Join Organization"

type service struct {
	db    *gorm.DB
	repo  domain.Repository
	orgs  organizationdomain.Repository
	users userdomain.Repository
	queue mailqueue.Queue
	genID *snowflake.Node
	now   func() time.Time
}

func NewService(
	conn *gorm.DB,
	repo domain.Repository,
	orgs organizationdomain.Repository,
	users userdomain.Repository,
	queue mailqueue.Queue,
	genID *snowflake.Node,
) domain.Service {
	return &service{
		db:    conn,
		repo:  repo,
		orgs:  orgs,
		users: users,
		queue: queue,
		genID: genID,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// GenerateToken mints a token that expires exactly one year from now.
func (s *service) GenerateToken(ctx context.Context, orgID string) (*domain.TokenResponse, error) {
	id, err := parseOrgID(orgID)
	if err != nil {
		return nil, err
	}

	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	token := domain.InviteToken{
		ID:        s.genID.Generate(),
		OrgID:     org.ID,
		Token:     uuid.NewString(),
		ExpiresAt: now.AddDate(1, 0, 0),
		CreatedAt: now,
	}

	if err := s.repo.CreateToken(ctx, token); err != nil {
		return nil, err
	}

	return &domain.TokenResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// SendInvites binds the link's token to each recipient. All invitation rows
// are written in one transaction; notifications are enqueued only after the
// transaction commits, and enqueue failures are logged, never returned.
func (s *service) SendInvites(ctx context.Context, orgID string, emails []string, inviteLink string) error {
	id, err := parseOrgID(orgID)
	if err != nil {
		return err
	}

	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		return err
	}

	rawToken, err := tokenFromInviteLink(inviteLink)
	if err != nil {
		return err
	}

	token, err := s.repo.FindToken(ctx, rawToken, org.ID)
	if err != nil {
		return err
	}
	if !token.Live(s.now()) {
		return domain.ErrTokenExpired
	}

	if len(emails) == 0 {
		return domain.ErrNoRecipients
	}

	now := s.now()
	invitations := make([]domain.Invitation, 0, len(emails))
	for _, email := range emails {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized == "" || !strings.Contains(normalized, "@") {
			return domain.ErrInvalidEmail
		}
		invitations = append(invitations, domain.Invitation{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			TokenID:   token.ID,
			Token:     token.Token,
			Email:     normalized,
			Status:    domain.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateInvitations(ctx, invitations)
	})
	if err != nil {
		return err
	}

	for _, invitation := range invitations {
		s.notify(ctx, org.Name, invitation.Email, inviteLink)
	}

	return nil
}

// Redeem validates the invitation and creates the membership. The checks
// run in order: registered user, matching invitation, live token, existing
// organization, no prior membership, unconsumed invitation.
func (s *service) Redeem(ctx context.Context, rawToken string, userID snowflake.ID) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.ErrInvitationNotFound
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == userdomain.ErrNotFound {
			return domain.ErrMustRegister
		}
		return err
	}

	invitation, err := s.repo.FindInvitation(ctx, rawToken, strings.ToLower(strings.TrimSpace(user.Email)))
	if err != nil {
		return err
	}

	token, err := s.repo.FindTokenByID(ctx, invitation.TokenID)
	if err != nil {
		if err == domain.ErrTokenNotFound {
			return domain.ErrInvitationNotFound
		}
		return err
	}
	if !token.Live(s.now()) {
		return domain.ErrInvitationNotFound
	}

	org, err := s.orgs.FindByID(ctx, invitation.OrgID)
	if err != nil {
		return err
	}

	members, err := s.orgs.ListMembers(ctx, org.ID)
	if err != nil {
		return err
	}
	for _, member := range members {
		if member.UserID == userID {
			return domain.ErrAlreadyMember
		}
	}

	// The membership check above runs first so a repeat redemption by an
	// existing member reports the conflict, not a consumed invitation.
	if invitation.Status != domain.StatusPending {
		return domain.ErrInvitationNotFound
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orgs.WithTx(tx).AddMember(ctx, organizationdomain.Member{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			UserID:    userID,
			Role:      organizationdomain.RoleUser,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		return s.repo.WithTx(tx).MarkAccepted(ctx, invitation.ID, now)
	})
	if err != nil {
		// A racing redemption that won the ux_org_user index is the same
		// outcome as the membership scan above.
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrAlreadyMember
		}
		return err
	}

	return nil
}

func (s *service) notify(ctx context.Context, orgName, email, inviteLink string) {
	html, err := emailprovider.RenderTemplate("invite_member", map[string]interface{}{
		"OrgName":    orgName,
		"InviteLink": inviteLink,
	})
	if err != nil {
		zap.L().Warn("failed to render invite email",
			zap.String("email", email),
			zap.Error(err),
		)
		return
	}

	if err := s.queue.Enqueue(ctx, mailqueue.Message{
		To:      email,
		Subject: inviteSubject,
		HTML:    html,
	}); err != nil {
		zap.L().Warn("failed to enqueue invite email",
			zap.String("email", email),
			zap.Error(err),
		)
	}
}

// tokenFromInviteLink extracts the value of the link's first query
// parameter, which by convention carries the invite token.
func tokenFromInviteLink(inviteLink string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(inviteLink))
	if err != nil {
		return "", domain.ErrInvalidInviteLink
	}

	for _, pair := range strings.Split(parsed.RawQuery, "&") {
		if pair == "" {
			continue
		}
		_, value, _ := strings.Cut(pair, "=")
		decoded, err := url.QueryUnescape(value)
		if err != nil || strings.TrimSpace(decoded) == "" {
			return "", domain.ErrInvalidInviteLink
		}
		return decoded, nil
	}

	return "", domain.ErrInvalidInviteLink
}

func parseOrgID(raw string) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, organizationdomain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil {
		return 0, organizationdomain.ErrInvalidOrganization
	}
	return id, nil
}
