package store

import (
	"context"

	"warelay/internal/model"
)

// Store is the persistence interface for webhook subscriptions. All
// implementations must pass the shared conformance suite in
// conformance_test.go.
type Store interface {
	// Init idempotently ensures the backing schema exists. It is called
	// on every process start.
	Init(ctx context.Context) error

	// InsertWebhook persists a new record and returns it with the
	// store-assigned id. Validation (non-empty event_code/post_url) is
	// the caller's job; the store accepts any otherwise-valid record.
	InsertWebhook(ctx context.Context, w model.Webhook) (model.Webhook, error)

	// RemoveWebhook deletes by id. Removing an unknown id is a no-op
	// success; callers that need existence confirmation check first.
	RemoveWebhook(ctx context.Context, id string) error

	// ListWebhooks returns all subscriptions. Order is not guaranteed.
	ListWebhooks(ctx context.Context) ([]model.Webhook, error)

	// ListWebhooksByEvent returns subscriptions whose event_code equals
	// eventCode exactly (case-sensitive).
	ListWebhooksByEvent(ctx context.Context, eventCode string) ([]model.Webhook, error)

	// Ping reports backend reachability; used by the readiness endpoint.
	Ping(ctx context.Context) error

	Close() error
}
