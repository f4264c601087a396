package mailqueue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/teamhub/internal/providers/email"
	"go.uber.org/zap"
)

// Worker drains the redis mail list and delivers messages through the email
// provider. Delivery is best-effort; failed sends are logged and dropped.
type Worker struct {
	client   *redis.Client
	key      string
	provider email.Provider
	log      *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(client *redis.Client, key string, provider email.Provider, log *zap.Logger) *Worker {
	return &Worker{
		client:   client,
		key:      key,
		provider: provider,
		log:      log,
	}
}

func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx)
}

func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		result, err := w.client.BRPop(ctx, 5*time.Second, w.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			w.log.Warn("mail queue pop failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		// BRPop returns [key, value].
		if len(result) != 2 {
			continue
		}
		w.deliver(ctx, []byte(result[1]))
	}
}

func (w *Worker) deliver(ctx context.Context, payload []byte) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		w.log.Warn("dropping malformed mail message", zap.Error(err))
		return
	}
	if err := w.provider.Send(ctx, []string{msg.To}, msg.Subject, msg.HTML); err != nil {
		w.log.Warn("mail delivery failed",
			zap.String("to", msg.To),
			zap.Error(err),
		)
	}
}
