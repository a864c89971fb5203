package store

import "context"

// Store defines the interface for event storage operations
type Store interface {
	// Event operations
	RecordEvent(ctx context.Context, e *Event) error
	GetVariantStats(ctx context.Context) ([]VariantStats, error)
	GetPlanStats(ctx context.Context) ([]PlanStats, error)
	GetEvents(ctx context.Context, variant string) ([]*Event, error)

	// Webhook idempotency
	MarkWebhookEvent(ctx context.Context, id, eventType string) (bool, error)
	ForgetWebhookEvent(ctx context.Context, id string) error

	// Lifecycle
	Close() error
}
