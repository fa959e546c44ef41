package repositories

import (
	"context"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
)

// ConsultationRepository defines persistence for result records.
type ConsultationRepository interface {
	// Save writes the whole record, keyed by its audio key
	Save(ctx context.Context, record *entities.ResultRecord) error

	// GetByKey loads a record, or a not-found error while the job is still
	// mid-pipeline
	GetByKey(ctx context.Context, audioKey string) (*entities.ResultRecord, error)

	// UpdateTaskStatus sets one task's status and recomputes the task
	// counters, using an optimistic compare-and-swap on the record version.
	// Returns a conflict error when a concurrent update wins the race.
	UpdateTaskStatus(ctx context.Context, audioKey, taskID string, status entities.TaskStatus) (*entities.ResultRecord, error)
}
