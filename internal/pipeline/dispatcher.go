package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
	"github.com/YingY4ang/Transcriber/internal/domain/providers"
	"github.com/YingY4ang/Transcriber/internal/domain/repositories"
	"github.com/YingY4ang/Transcriber/internal/fhir"
	"github.com/YingY4ang/Transcriber/internal/infrastructure/observability"
)

// Extractor produces the structured artifact for a transcript. It never
// fails: extraction errors surface as a low-confidence fallback artifact.
type Extractor interface {
	Extract(ctx context.Context, consultationID, transcript string) *entities.ConsultationArtifact
}

// ReportRenderer renders an artifact into a PDF document
type ReportRenderer interface {
	Render(artifact *entities.ConsultationArtifact) ([]byte, error)
}

// Dispatcher drives the consultation pipeline: it consumes jobs from the
// queue and runs each through transcription, extraction, derived-artifact
// generation, persistence and notification.
//
// Per-stage failure policy:
//   - missing source object: duplicate delivery, acknowledge and skip
//   - transcription failure: leave the job unacknowledged for redelivery,
//     keep the source object, persist nothing
//   - extraction failure: absorbed inside the extractor as a fallback artifact
//   - report or bundle failure: complete the job without that output
//   - persistence failure: log and continue; the source object is consumed
//     and reprocessing cannot restore it
//   - notification failure: swallowed per subscriber
type Dispatcher struct {
	queue         providers.JobQueue
	store         providers.ObjectStore
	transcription *TranscriptionStage
	extractor     Extractor
	renderer      ReportRenderer
	repo          repositories.ConsultationRepository
	bus           providers.EventBus
	subscriptions providers.SubscriptionRegistry

	reportsBucket string
	tempDir       string

	metrics *observability.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// DispatcherConfig wires the dispatcher's collaborators
type DispatcherConfig struct {
	Queue         providers.JobQueue
	Store         providers.ObjectStore
	Transcription *TranscriptionStage
	Extractor     Extractor
	Renderer      ReportRenderer
	Repository    repositories.ConsultationRepository
	EventBus      providers.EventBus
	Subscriptions providers.SubscriptionRegistry
	ReportsBucket string
	TempDir       string

	// Metrics is optional; a nil value disables pipeline instrumentation
	Metrics *observability.Metrics

	Logger zerolog.Logger
}

// NewDispatcher creates a pipeline dispatcher
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		queue:         cfg.Queue,
		store:         cfg.Store,
		transcription: cfg.Transcription,
		extractor:     cfg.Extractor,
		renderer:      cfg.Renderer,
		repo:          cfg.Repository,
		bus:           cfg.EventBus,
		subscriptions: cfg.Subscriptions,
		reportsBucket: cfg.ReportsBucket,
		tempDir:       cfg.TempDir,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger.With().Str("component", "dispatcher").Logger(),
		now:           time.Now,
	}
}

// Run consumes jobs until the context is cancelled
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info().Msg("Dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("Dispatcher stopping")
			return ctx.Err()
		default:
		}

		msg, err := d.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.logger.Error().Err(err).Msg("Queue receive failed")
			time.Sleep(time.Second)
			continue
		}
		if msg == nil {
			continue
		}

		d.ProcessJob(ctx, msg)
	}
}

// ProcessJob runs one job through the full pipeline. Stage outcomes decide
// acknowledgement; ProcessJob itself never returns an error because every
// failure mode has a defined disposition.
func (d *Dispatcher) ProcessJob(ctx context.Context, msg *providers.JobMessage) {
	logger := d.logger.With().
		Str("bucket", msg.Bucket).
		Str("key", msg.ObjectKey).
		Logger()
	logger.Info().Msg("Processing job")
	jobStart := time.Now()

	exists, err := d.store.Exists(ctx, msg.Bucket, msg.ObjectKey)
	if err != nil {
		logger.Error().Err(err).Msg("Source existence check failed, leaving job for redelivery")
		d.recordJob(ctx, "redelivery", jobStart)
		return
	}
	if !exists {
		logger.Info().Err(ErrSourceMissing).Msg("Job already processed, acknowledging duplicate delivery")
		d.ack(ctx, msg, logger)
		d.recordJob(ctx, "duplicate", jobStart)
		return
	}

	jobDir, err := os.MkdirTemp(d.tempDir, "job-")
	if err != nil {
		logger.Error().Err(err).Msg("Temp dir creation failed, leaving job for redelivery")
		return
	}
	defer os.RemoveAll(jobDir)

	localPath := filepath.Join(jobDir, filepath.Base(msg.ObjectKey))
	if err := d.store.Download(ctx, msg.Bucket, msg.ObjectKey, localPath); err != nil {
		logger.Error().Err(err).Msg("Audio download failed, leaving job for redelivery")
		d.recordJob(ctx, "redelivery", jobStart)
		return
	}

	stageStart := time.Now()
	transcript, err := d.transcription.Transcribe(ctx, localPath)
	if err != nil {
		logger.Error().Err(err).Msg("Transcription failed, leaving job for redelivery")
		d.recordJob(ctx, "redelivery", jobStart)
		return
	}
	d.recordStage(ctx, "transcription", stageStart)

	stageStart = time.Now()
	artifact := d.extractor.Extract(ctx, msg.ObjectKey, transcript)
	d.recordStage(ctx, "extraction", stageStart)
	patientID := msg.PatientID()

	reportKey := d.renderReport(ctx, msg.ObjectKey, artifact, logger)
	fhirBundle := d.buildBundle(msg.ObjectKey, patientID, artifact, transcript, logger)

	record := BuildResultRecord(msg.ObjectKey, patientID, transcript, artifact, fhirBundle, reportKey, d.now())
	if err := d.repo.Save(ctx, record); err != nil {
		logger.Error().Err(fmt.Errorf("%w: %w", ErrPersist, err)).Msg("Completing job without persisted record")
	}

	d.notify(ctx, record, logger)

	if err := d.store.Delete(ctx, msg.Bucket, msg.ObjectKey); err != nil {
		logger.Error().Err(err).Msg("Source object cleanup failed")
	}
	d.ack(ctx, msg, logger)
	d.recordJob(ctx, "completed", jobStart)
	logger.Info().
		Int("task_count", record.TotalTaskCount).
		Bool("report_available", record.ReportAvailable).
		Msg("Job complete")
}

func (d *Dispatcher) recordJob(ctx context.Context, outcome string, start time.Time) {
	if d.metrics == nil {
		return
	}
	observability.RecordJobMetric(ctx, d.metrics, outcome, time.Since(start))
}

func (d *Dispatcher) recordStage(ctx context.Context, stage string, start time.Time) {
	if d.metrics == nil {
		return
	}
	observability.RecordStageMetric(ctx, d.metrics, stage, time.Since(start))
}

// renderReport renders and stores the PDF, returning its object key or nil
// when the job completes without a report
func (d *Dispatcher) renderReport(ctx context.Context, audioKey string, artifact *entities.ConsultationArtifact, logger zerolog.Logger) *string {
	pdf, err := d.renderer.Render(artifact)
	if err != nil {
		logger.Error().Err(fmt.Errorf("%w: %w", ErrRender, err)).Msg("Completing job without report")
		return nil
	}
	key := reportKeyFor(audioKey)
	if err := d.store.Put(ctx, d.reportsBucket, key, bytes.NewReader(pdf)); err != nil {
		logger.Error().Err(err).Msg("Report upload failed, completing job without report")
		return nil
	}
	return &key
}

// buildBundle assembles the FHIR bundle, or nil when marshalling fails
func (d *Dispatcher) buildBundle(audioKey, patientID string, artifact *entities.ConsultationArtifact, transcript string, logger zerolog.Logger) json.RawMessage {
	bundle := fhir.BuildBundle(audioKey, patientID, artifact, transcript, d.now())
	raw, err := json.Marshal(bundle)
	if err != nil {
		logger.Error().Err(err).Msg("FHIR bundle marshalling failed, completing job without bundle")
		return nil
	}
	return raw
}

// notify fans the completion event out to every live subscriber of the job
// key. Each subscriber is independent: one failed publish never blocks the
// others or the job.
func (d *Dispatcher) notify(ctx context.Context, record *entities.ResultRecord, logger zerolog.Logger) {
	subs, err := d.subscriptions.ListByJobKey(ctx, record.AudioKey)
	if err != nil {
		logger.Error().Err(err).Msg("Subscription lookup failed, skipping notification")
		return
	}
	if len(subs) == 0 {
		return
	}

	event := entities.NewCompletionEvent(record)
	delivered := 0
	for _, sub := range subs {
		channel := providers.GetConnectionChannel(sub.ConnectionID)
		if err := d.bus.Publish(ctx, channel, event); err != nil {
			logger.Warn().
				Err(err).
				Str("connection_id", sub.ConnectionID).
				Msg("Completion event publish failed")
			continue
		}
		delivered++
	}
	logger.Info().
		Int("subscribers", len(subs)).
		Int("delivered", delivered).
		Msg("Completion notifications sent")
}

func (d *Dispatcher) ack(ctx context.Context, msg *providers.JobMessage, logger zerolog.Logger) {
	if err := d.queue.Ack(ctx, msg); err != nil {
		logger.Error().Err(err).Msg("Queue acknowledge failed")
	}
}

// reportKeyFor derives the report object key from the audio key
func reportKeyFor(audioKey string) string {
	ext := filepath.Ext(audioKey)
	return "reports/" + audioKey[:len(audioKey)-len(ext)] + ".pdf"
}
