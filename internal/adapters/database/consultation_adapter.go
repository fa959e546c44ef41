package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
	"github.com/YingY4ang/Transcriber/internal/domain/repositories"
	"github.com/YingY4ang/Transcriber/internal/infrastructure/clients/postgres"
	apperrors "github.com/YingY4ang/Transcriber/pkg/errors"
)

const resultsTable = "consultation_results"

// ConsultationAdapter implements result record persistence in Postgres. The
// full record is stored as one JSONB document alongside a few denormalized
// columns for dashboard queries; record_version guards concurrent
// task-status updates with an optimistic compare-and-swap.
type ConsultationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewConsultationAdapter creates a new consultation result adapter
func NewConsultationAdapter(client *postgres.Client) repositories.ConsultationRepository {
	return &ConsultationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Save writes the whole record, keyed by its audio key. Saving an existing
// key replaces the record and resets its version.
func (a *ConsultationAdapter) Save(ctx context.Context, record *entities.ResultRecord) error {
	if record == nil {
		return apperrors.NewInternalError("result record is nil", fmt.Errorf("result record is nil"))
	}
	record.RecordVersion = 1

	doc, err := json.Marshal(record)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal result record", err)
	}

	row := goqu.Record{
		"audio_key":          record.AudioKey,
		"patient_id":         record.PatientID,
		"created_at":         record.Timestamp,
		"primary_diagnosis":  nullString(record.PrimaryDiagnosis),
		"pending_task_count": record.PendingTaskCount,
		"urgent_task_count":  record.UrgentTaskCount,
		"total_task_count":   record.TotalTaskCount,
		"record":             doc,
		"record_version":     record.RecordVersion,
	}

	query, args, err := a.db.Insert(resultsTable).
		Rows(row).
		OnConflict(goqu.DoUpdate("audio_key", row)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build result insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to save result record", err)
	}
	return nil
}

// GetByKey loads a record by its audio key
func (a *ConsultationAdapter) GetByKey(ctx context.Context, audioKey string) (*entities.ResultRecord, error) {
	query, args, err := a.db.From(resultsTable).
		Select("record", "record_version").
		Where(goqu.Ex{"audio_key": audioKey}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build result select query", err)
	}

	var doc []byte
	var version int64
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&doc, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no result for key %s", audioKey))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load result record", err)
	}

	var record entities.ResultRecord
	if err := json.Unmarshal(doc, &record); err != nil {
		return nil, apperrors.NewInternalError("failed to unmarshal result record", err)
	}
	record.RecordVersion = version
	return &record, nil
}

// UpdateTaskStatus sets one task's status and recomputes the task counters.
// The write is guarded by a compare-and-swap on record_version; a concurrent
// update surfaces as a conflict error and the caller may retry with fresh
// state.
func (a *ConsultationAdapter) UpdateTaskStatus(ctx context.Context, audioKey, taskID string, status entities.TaskStatus) (*entities.ResultRecord, error) {
	if !entities.ValidTaskStatus(status) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid task status %q", status))
	}

	record, err := a.GetByKey(ctx, audioKey)
	if err != nil {
		return nil, err
	}

	task := record.TaskByID(taskID)
	if task == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no task %s in result %s", taskID, audioKey))
	}
	task.Status = status
	// keep the nested artifact copy in step with the flat task list
	if nested := record.Artifact.TaskByID(taskID); nested != nil {
		nested.Status = status
	}
	record.RecomputeTaskCounters()

	previousVersion := record.RecordVersion
	record.RecordVersion = previousVersion + 1

	doc, err := json.Marshal(record)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal result record", err)
	}

	query, args, err := a.db.Update(resultsTable).
		Set(goqu.Record{
			"record":             doc,
			"record_version":     record.RecordVersion,
			"pending_task_count": record.PendingTaskCount,
			"urgent_task_count":  record.UrgentTaskCount,
			"total_task_count":   record.TotalTaskCount,
		}).
		Where(goqu.Ex{
			"audio_key":      audioKey,
			"record_version": previousVersion,
		}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build task update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update task status", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read update result", err)
	}
	if affected == 0 {
		return nil, apperrors.NewConflictError(fmt.Sprintf("result %s was updated concurrently", audioKey))
	}
	return record, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
