package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	invitedomain "github.com/smallbiznis/teamhub/internal/invite/domain"
	inviterepo "github.com/smallbiznis/teamhub/internal/invite/repository"
	organizationdomain "github.com/smallbiznis/teamhub/internal/organization/domain"
	organizationrepo "github.com/smallbiznis/teamhub/internal/organization/repository"
	"github.com/smallbiznis/teamhub/internal/providers/mailqueue"
	userdomain "github.com/smallbiznis/teamhub/internal/user/domain"
	userrepo "github.com/smallbiznis/teamhub/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type captureQueue struct {
	messages []mailqueue.Message
}

func (q *captureQueue) Enqueue(ctx context.Context, msg mailqueue.Message) error {
	_ = ctx
	q.messages = append(q.messages, msg)
	return nil
}

type failingQueue struct {
	attempts int
}

func (q *failingQueue) Enqueue(ctx context.Context, msg mailqueue.Message) error {
	_ = ctx
	_ = msg
	q.attempts++
	return fmt.Errorf("queue unavailable")
}

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	queue *captureQueue
	svc   *service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&organizationdomain.Organization{},
		&organizationdomain.Member{},
		&invitedomain.InviteToken{},
		&invitedomain.Invitation{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	queue := &captureQueue{}
	svc := NewService(
		db,
		inviterepo.NewRepository(db),
		organizationrepo.NewRepository(db),
		userrepo.NewRepository(db),
		queue,
		node,
	).(*service)

	return &fixture{db: db, node: node, queue: queue, svc: svc}
}

func (f *fixture) createUser(t *testing.T, email string) *userdomain.User {
	t.Helper()
	user := &userdomain.User{
		ID:       f.node.Generate(),
		Username: strings.Split(email, "@")[0],
		Email:    email,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *fixture) createOrg(t *testing.T, name string, ownerID snowflake.ID) *organizationdomain.Organization {
	t.Helper()
	org := &organizationdomain.Organization{
		ID:      f.node.Generate(),
		Name:    name,
		Slug:    strings.ToLower(name),
		OwnerID: ownerID,
	}
	require.NoError(t, f.db.Create(org).Error)
	require.NoError(t, f.db.Create(&organizationdomain.Member{
		ID:     f.node.Generate(),
		OrgID:  org.ID,
		UserID: ownerID,
		Role:   organizationdomain.RoleAdmin,
	}).Error)
	return org
}

func inviteLink(token string) string {
	return "https://app.example.com/invite?token=" + token
}

func TestGenerateToken_ExpiresExactlyOneYearOut(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	resp, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.ExpiresAt.Equal(now.AddDate(1, 0, 0)))

	var row invitedomain.InviteToken
	require.NoError(t, f.db.First(&row, "token = ?", resp.Token).Error)
	assert.Equal(t, org.ID, row.OrgID)
	assert.True(t, row.Live(now))
	assert.False(t, row.Live(now.AddDate(1, 0, 0)))
}

func TestGenerateToken_DistinctTokensPerCall(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	first, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)
	second, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)

	var count int64
	require.NoError(t, f.db.Model(&invitedomain.InviteToken{}).Where("org_id = ?", org.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestGenerateToken_OrganizationNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GenerateToken(context.Background(), f.node.Generate().String())
	assert.ErrorIs(t, err, organizationdomain.ErrNotFound)
}

func TestSendInvites_CreatesOneInvitationAndOneEnqueuePerEmail(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)

	err = f.svc.SendInvites(context.Background(), org.ID.String(),
		[]string{"a@x.com", "b@x.com"}, inviteLink(token.Token))
	require.NoError(t, err)

	var invitations []invitedomain.Invitation
	require.NoError(t, f.db.Where("org_id = ?", org.ID).Order("id ASC").Find(&invitations).Error)
	require.Len(t, invitations, 2)
	assert.Equal(t, "a@x.com", invitations[0].Email)
	assert.Equal(t, "b@x.com", invitations[1].Email)
	for _, invitation := range invitations {
		assert.Equal(t, token.Token, invitation.Token)
		assert.Equal(t, invitedomain.StatusPending, invitation.Status)
	}

	require.Len(t, f.queue.messages, 2)
	assert.Equal(t, "a@x.com", f.queue.messages[0].To)
	assert.Equal(t, "b@x.com", f.queue.messages[1].To)
	for _, msg := range f.queue.messages {
		assert.Equal(t, "Invitation to Join Organization", msg.Subject)
		assert.Contains(t, msg.HTML, org.Name)
		assert.Contains(t, msg.HTML, inviteLink(token.Token))
	}
}

func TestSendInvites_DuplicateEmailsAreNotDeduplicated(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)

	err = f.svc.SendInvites(context.Background(), org.ID.String(),
		[]string{"a@x.com", "a@x.com"}, inviteLink(token.Token))
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&invitedomain.Invitation{}).Where("org_id = ?", org.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestSendInvites_NormalizesRecipientEmails(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)

	err = f.svc.SendInvites(context.Background(), org.ID.String(),
		[]string{"  Bob@X.com "}, inviteLink(token.Token))
	require.NoError(t, err)

	var invitation invitedomain.Invitation
	require.NoError(t, f.db.First(&invitation, "org_id = ?", org.ID).Error)
	assert.Equal(t, "bob@x.com", invitation.Email)
}

func TestSendInvites_EmptyRecipientList(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)

	err = f.svc.SendInvites(context.Background(), org.ID.String(), nil, inviteLink(token.Token))
	assert.ErrorIs(t, err, invitedomain.ErrNoRecipients)
}

func TestSendInvites_InvalidLink(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	for _, link := range []string{
		"https://app.example.com/invite",
		"https://app.example.com/invite?token=",
		"",
	} {
		err := f.svc.SendInvites(context.Background(), org.ID.String(), []string{"a@x.com"}, link)
		assert.ErrorIs(t, err, invitedomain.ErrInvalidInviteLink, "link %q", link)
	}
}

func TestSendInvites_TokenScopedToOrganization(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	org := f.createOrg(t, "acme", owner.ID)
	other := f.createOrg(t, "globex", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), other.ID.String())
	require.NoError(t, err)

	err = f.svc.SendInvites(context.Background(), org.ID.String(),
		[]string{"a@x.com"}, inviteLink(token.Token))
	assert.ErrorIs(t, err, invitedomain.ErrTokenNotFound)
}

func TestSendInvites_ExpiredTokenRejected(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().UTC().AddDate(1, 0, 1) }

	err = f.svc.SendInvites(context.Background(), org.ID.String(),
		[]string{"a@x.com"}, inviteLink(token.Token))
	assert.ErrorIs(t, err, invitedomain.ErrTokenExpired)
}

func TestSendInvites_EnqueueFailureDoesNotFailTheCall(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)

	queue := &failingQueue{}
	f.svc.queue = queue

	err = f.svc.SendInvites(context.Background(), org.ID.String(),
		[]string{"a@x.com"}, inviteLink(token.Token))
	require.NoError(t, err)
	assert.Equal(t, 1, queue.attempts)

	var count int64
	require.NoError(t, f.db.Model(&invitedomain.Invitation{}).Where("org_id = ?", org.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRedeem_JoinThenRepeatConflicts(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	bob := f.createUser(t, "bob@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)
	require.NoError(t, f.svc.SendInvites(context.Background(), org.ID.String(),
		[]string{"bob@x.com"}, inviteLink(token.Token)))

	require.NoError(t, f.svc.Redeem(context.Background(), token.Token, bob.ID))

	var member organizationdomain.Member
	require.NoError(t, f.db.First(&member, "org_id = ? AND user_id = ?", org.ID, bob.ID).Error)
	assert.Equal(t, organizationdomain.RoleUser, member.Role)

	var invitation invitedomain.Invitation
	require.NoError(t, f.db.First(&invitation, "token = ? AND email = ?", token.Token, "bob@x.com").Error)
	assert.Equal(t, invitedomain.StatusAccepted, invitation.Status)

	err = f.svc.Redeem(context.Background(), token.Token, bob.ID)
	assert.ErrorIs(t, err, invitedomain.ErrAlreadyMember)

	var count int64
	require.NoError(t, f.db.Model(&organizationdomain.Member{}).
		Where("org_id = ? AND user_id = ?", org.ID, bob.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// scanBlindOrgRepo hides existing memberships from reads so a redemption
// behaves like the loser of a race: the pre-check sees no member and the
// insert runs into the unique index.
type scanBlindOrgRepo struct {
	organizationdomain.Repository
}

func (r *scanBlindOrgRepo) ListMembers(ctx context.Context, orgID snowflake.ID) ([]organizationdomain.Member, error) {
	_ = ctx
	_ = orgID
	return nil, nil
}

func TestRedeem_UniqueIndexArbitratesRacingJoins(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	bob := f.createUser(t, "bob@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)
	require.NoError(t, f.svc.SendInvites(context.Background(), org.ID.String(),
		[]string{"bob@x.com"}, inviteLink(token.Token)))
	require.NoError(t, f.svc.Redeem(context.Background(), token.Token, bob.ID))

	// Re-arm the invitation and blind the membership scan so the second
	// redemption reaches the insert, as a concurrent one would.
	require.NoError(t, f.db.Model(&invitedomain.Invitation{}).
		Where("token = ? AND email = ?", token.Token, "bob@x.com").
		Update("status", invitedomain.StatusPending).Error)
	f.svc.orgs = &scanBlindOrgRepo{Repository: f.svc.orgs}

	err = f.svc.Redeem(context.Background(), token.Token, bob.ID)
	assert.ErrorIs(t, err, invitedomain.ErrAlreadyMember)

	var count int64
	require.NoError(t, f.db.Model(&organizationdomain.Member{}).
		Where("org_id = ? AND user_id = ?", org.ID, bob.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRedeem_UnregisteredUser(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)
	require.NoError(t, f.svc.SendInvites(context.Background(), org.ID.String(),
		[]string{"ghost@x.com"}, inviteLink(token.Token)))

	err = f.svc.Redeem(context.Background(), token.Token, f.node.Generate())
	assert.ErrorIs(t, err, invitedomain.ErrMustRegister)
}

func TestRedeem_EmailMismatch(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	mallory := f.createUser(t, "mallory@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)
	require.NoError(t, f.svc.SendInvites(context.Background(), org.ID.String(),
		[]string{"bob@x.com"}, inviteLink(token.Token)))

	err = f.svc.Redeem(context.Background(), token.Token, mallory.ID)
	assert.ErrorIs(t, err, invitedomain.ErrInvitationNotFound)
}

func TestRedeem_EmailMatchIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	bob := f.createUser(t, "bob@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)
	require.NoError(t, f.svc.SendInvites(context.Background(), org.ID.String(),
		[]string{"BOB@X.COM"}, inviteLink(token.Token)))

	require.NoError(t, f.svc.Redeem(context.Background(), token.Token, bob.ID))
}

func TestRedeem_ExpiredTokenReportsInvitationNotFound(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	bob := f.createUser(t, "bob@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)
	require.NoError(t, f.svc.SendInvites(context.Background(), org.ID.String(),
		[]string{"bob@x.com"}, inviteLink(token.Token)))

	f.svc.now = func() time.Time { return time.Now().UTC().AddDate(1, 0, 1) }

	err = f.svc.Redeem(context.Background(), token.Token, bob.ID)
	assert.ErrorIs(t, err, invitedomain.ErrInvitationNotFound)
}

func TestRedeem_ConsumedInvitationCannotBackASecondJoin(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@x.com")
	bob := f.createUser(t, "bob@x.com")
	org := f.createOrg(t, "acme", owner.ID)

	token, err := f.svc.GenerateToken(context.Background(), org.ID.String())
	require.NoError(t, err)
	require.NoError(t, f.svc.SendInvites(context.Background(), org.ID.String(),
		[]string{"bob@x.com"}, inviteLink(token.Token)))
	require.NoError(t, f.svc.Redeem(context.Background(), token.Token, bob.ID))

	// Remove the membership; the consumed invitation stays consumed.
	require.NoError(t, f.db.Delete(&organizationdomain.Member{},
		"org_id = ? AND user_id = ?", org.ID, bob.ID).Error)

	err = f.svc.Redeem(context.Background(), token.Token, bob.ID)
	assert.ErrorIs(t, err, invitedomain.ErrInvitationNotFound)
}

func TestTokenFromInviteLink(t *testing.T) {
	cases := []struct {
		name    string
		link    string
		want    string
		wantErr bool
	}{
		{name: "single param", link: "https://x.com/invite?token=abc", want: "abc"},
		{name: "first of many", link: "https://x.com/invite?token=abc&utm=mail", want: "abc"},
		{name: "escaped value", link: "https://x.com/invite?t=a%2Db", want: "a-b"},
		{name: "no query", link: "https://x.com/invite", wantErr: true},
		{name: "empty value", link: "https://x.com/invite?token=", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tokenFromInviteLink(tc.link)
			if tc.wantErr {
				assert.ErrorIs(t, err, invitedomain.ErrInvalidInviteLink)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
