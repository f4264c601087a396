package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamhub/internal/config"
	"github.com/smallbiznis/teamhub/internal/invite"
	"github.com/smallbiznis/teamhub/internal/logger"
	"github.com/smallbiznis/teamhub/internal/migration"
	"github.com/smallbiznis/teamhub/internal/organization"
	"github.com/smallbiznis/teamhub/internal/providers/email"
	"github.com/smallbiznis/teamhub/internal/providers/mailqueue"
	"github.com/smallbiznis/teamhub/internal/server"
	"github.com/smallbiznis/teamhub/internal/user"
	"github.com/smallbiznis/teamhub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		migration.Module,

		// Providers
		email.Module,
		mailqueue.Module,

		// Domains
		user.Module,
		organization.Module,
		invite.Module,

		// Transport
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
