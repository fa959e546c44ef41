package providers

import (
	"context"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
)

// EventBus carries consultation completion events from the worker to live
// notification streams. Delivery is best effort: a dropped event never
// affects the job outcome.
type EventBus interface {
	// Publish publishes an event to all subscribers of a channel
	Publish(ctx context.Context, channel string, event *entities.ConsultationEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ConsultationEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelConnectionPrefix is the prefix for per-connection channels
const EventChannelConnectionPrefix = "notify:"

// GetConnectionChannel returns the channel name for one live connection
func GetConnectionChannel(connectionID string) string {
	return EventChannelConnectionPrefix + connectionID
}
