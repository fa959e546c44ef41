package providers

import (
	"context"
	"path"
	"strings"
)

// JobMessage identifies a newly uploaded audio object awaiting processing
type JobMessage struct {
	Bucket    string `json:"bucket"`
	ObjectKey string `json:"object_key"`

	// ReceiptHandle is set by the queue adapter on receive and is required
	// to acknowledge the message.
	ReceiptHandle string `json:"-"`
}

// PatientID extracts the patient identifier by convention from the object
// key's filename prefix before the first underscore, defaulting to "unknown"
func (m *JobMessage) PatientID() string {
	base := path.Base(m.ObjectKey)
	if idx := strings.Index(base, "_"); idx > 0 {
		return base[:idx]
	}
	return "unknown"
}

// JobQueue is the opaque durable queue the pipeline consumes from. Delivery
// is at-least-once: messages not acknowledged reappear after the substrate's
// visibility timeout, and consumers must tolerate duplicates.
type JobQueue interface {
	// Enqueue adds a job to the queue
	Enqueue(ctx context.Context, msg *JobMessage) error

	// Receive long-polls for the next job. Returns (nil, nil) when the poll
	// window elapses with no message.
	Receive(ctx context.Context) (*JobMessage, error)

	// Ack acknowledges a received message so it is never redelivered
	Ack(ctx context.Context, msg *JobMessage) error
}
