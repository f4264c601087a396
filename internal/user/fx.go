package user

import (
	"github.com/smallbiznis/teamhub/internal/user/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("user",
	fx.Provide(repository.NewRepository),
)
