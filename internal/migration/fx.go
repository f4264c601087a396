package migration

import (
	"github.com/smallbiznis/teamhub/internal/config"
	invitedomain "github.com/smallbiznis/teamhub/internal/invite/domain"
	organizationdomain "github.com/smallbiznis/teamhub/internal/organization/domain"
	"github.com/smallbiznis/teamhub/internal/seed"
	userdomain "github.com/smallbiznis/teamhub/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql are dev conveniences; let gorm own the schema there.
			if err := conn.AutoMigrate(
				&userdomain.User{},
				&organizationdomain.Organization{},
				&organizationdomain.Member{},
				&invitedomain.InviteToken{},
				&invitedomain.Invitation{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDefaultUser && !cfg.IsProduction() {
			return seed.EnsureDefaultUser(conn)
		}
		return nil
	}),
)
