package subscriptions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/YingY4ang/Transcriber/internal/domain/providers"
	redisclient "github.com/YingY4ang/Transcriber/internal/infrastructure/clients/redis"
)

const (
	keyPrefix = "subscriptions:"

	// subscriptionTTL bounds orphaned entries when a connection dies without
	// a clean disconnect
	subscriptionTTL = 24 * time.Hour

	scanBatch = 100
)

// RedisSubscriptionRegistry implements the SubscriptionRegistry interface on
// Redis keys, one per live connection. Lookup by job key is a SCAN over all
// live subscriptions; fan-out stays small enough that an index is not worth
// its bookkeeping.
type RedisSubscriptionRegistry struct {
	client *redisclient.Client
}

// NewRedisSubscriptionRegistry creates a Redis-backed subscription registry
func NewRedisSubscriptionRegistry(client *redisclient.Client) providers.SubscriptionRegistry {
	return &RedisSubscriptionRegistry{client: client}
}

// Register records a connection's interest in a job key
func (r *RedisSubscriptionRegistry) Register(ctx context.Context, sub *providers.Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}
	if err := r.client.Client().Set(ctx, keyPrefix+sub.ConnectionID, data, subscriptionTTL).Err(); err != nil {
		return fmt.Errorf("failed to register subscription: %w", err)
	}
	return nil
}

// Remove deletes a connection's subscription on disconnect
func (r *RedisSubscriptionRegistry) Remove(ctx context.Context, connectionID string) error {
	if err := r.client.Client().Del(ctx, keyPrefix+connectionID).Err(); err != nil {
		return fmt.Errorf("failed to remove subscription: %w", err)
	}
	return nil
}

// ListByJobKey scans all live subscriptions for the given job key
func (r *RedisSubscriptionRegistry) ListByJobKey(ctx context.Context, jobKey string) ([]providers.Subscription, error) {
	var matched []providers.Subscription
	var cursor uint64

	for {
		keys, next, err := r.client.Client().Scan(ctx, cursor, keyPrefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriptions: %w", err)
		}

		for _, key := range keys {
			data, err := r.client.Client().Get(ctx, key).Bytes()
			if err != nil {
				// expired between scan and get
				continue
			}
			var sub providers.Subscription
			if err := json.Unmarshal(data, &sub); err != nil {
				continue
			}
			if sub.JobKey == jobKey {
				matched = append(matched, sub)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return matched, nil
}
