package mailqueue

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/teamhub/internal/config"
	emailprovider "github.com/smallbiznis/teamhub/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.mailqueue",
	fx.Provide(NewFromConfig),
	fx.Invoke(registerWorker),
)

// NewFromConfig builds the redis-backed queue, or a no-op queue when redis
// is not configured.
func NewFromConfig(cfg config.Config, log *zap.Logger) Queue {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		log.Info("mail queue disabled, no redis configured")
		return &NoOpQueue{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return NewRedisQueue(client, cfg.Redis.MailKey)
}

func registerWorker(lc fx.Lifecycle, queue Queue, provider emailprovider.Provider, cfg config.Config, log *zap.Logger) {
	redisQueue, ok := queue.(*RedisQueue)
	if !ok {
		return
	}

	worker := NewWorker(redisQueue.client, cfg.Redis.MailKey, provider, log)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			worker.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := worker.Stop(ctx)
			if closeErr := redisQueue.Close(); err == nil {
				err = closeErr
			}
			return err
		},
	})
}
