package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type OrganizationListItem struct {
	ID        snowflake.ID
	Name      string
	Role      string
	CreatedAt time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	FindByID(ctx context.Context, orgID snowflake.ID) (*Organization, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]OrganizationListItem, error)
	AddMember(ctx context.Context, member Member) error
	FindMember(ctx context.Context, orgID, userID snowflake.ID) (*Member, error)
	ListMembers(ctx context.Context, orgID snowflake.ID) ([]Member, error)
	DeleteMember(ctx context.Context, memberID snowflake.ID) error
	CountMembersByRole(ctx context.Context, orgID snowflake.ID, role string) (int64, error)
}
