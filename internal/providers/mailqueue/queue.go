// Package mailqueue is the best-effort outbound mail channel. Enqueueing is
// fire-and-forget: delivery failures never propagate back into the
// transaction that produced the message.
package mailqueue

import "context"

// Message is a single outbound email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type Queue interface {
	Enqueue(ctx context.Context, msg Message) error
}

// NoOpQueue drops messages; used when no redis is configured and in tests.
type NoOpQueue struct{}

func (q *NoOpQueue) Enqueue(ctx context.Context, msg Message) error {
	return nil
}
