package providers

import (
	"context"
	"time"
)

// Subscription is an ephemeral mapping from a live notification connection
// to the job key it is waiting on. Created on subscribe, removed on
// disconnect; its lifetime is bounded by the connection's own.
type Subscription struct {
	ConnectionID string    `json:"connection_id"`
	JobKey       string    `json:"job_key"`
	CreatedAt    time.Time `json:"created_at"`
}

// SubscriptionRegistry tracks live subscriptions. Lookup by job key is a
// full scan of all live subscriptions, not an indexed query; acceptable at
// low fan-out and noted as a scaling limit.
type SubscriptionRegistry interface {
	// Register records a connection's interest in a job key
	Register(ctx context.Context, sub *Subscription) error

	// Remove deletes a connection's subscription on disconnect
	Remove(ctx context.Context, connectionID string) error

	// ListByJobKey scans all live subscriptions for the given job key
	ListByJobKey(ctx context.Context, jobKey string) ([]Subscription, error)
}
