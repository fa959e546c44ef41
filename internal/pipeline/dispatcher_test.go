package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
	"github.com/YingY4ang/Transcriber/internal/domain/providers"
)

// Mocks

type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, msg *providers.JobMessage) error {
	return m.Called(ctx, msg).Error(0)
}
func (m *MockQueue) Receive(ctx context.Context) (*providers.JobMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.JobMessage), args.Error(1)
}
func (m *MockQueue) Ack(ctx context.Context, msg *providers.JobMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	args := m.Called(ctx, bucket, key)
	return args.Bool(0), args.Error(1)
}
func (m *MockStore) Download(ctx context.Context, bucket, key, localPath string) error {
	return m.Called(ctx, bucket, key, localPath).Error(0)
}
func (m *MockStore) Put(ctx context.Context, bucket, key string, body io.Reader) error {
	return m.Called(ctx, bucket, key, body).Error(0)
}
func (m *MockStore) Delete(ctx context.Context, bucket, key string) error {
	return m.Called(ctx, bucket, key).Error(0)
}

type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	args := m.Called(ctx, audioPath)
	return args.String(0), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, consultationID, transcript string) *entities.ConsultationArtifact {
	args := m.Called(ctx, consultationID, transcript)
	return args.Get(0).(*entities.ConsultationArtifact)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(artifact *entities.ConsultationArtifact) ([]byte, error) {
	args := m.Called(artifact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Save(ctx context.Context, record *entities.ResultRecord) error {
	return m.Called(ctx, record).Error(0)
}
func (m *MockRepo) GetByKey(ctx context.Context, audioKey string) (*entities.ResultRecord, error) {
	args := m.Called(ctx, audioKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ResultRecord), args.Error(1)
}
func (m *MockRepo) UpdateTaskStatus(ctx context.Context, audioKey, taskID string, status entities.TaskStatus) (*entities.ResultRecord, error) {
	args := m.Called(ctx, audioKey, taskID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ResultRecord), args.Error(1)
}

type MockBus struct {
	mock.Mock
}

func (m *MockBus) Publish(ctx context.Context, channel string, event *entities.ConsultationEvent) error {
	return m.Called(ctx, channel, event).Error(0)
}
func (m *MockBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ConsultationEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.ConsultationEvent), args.Error(1)
}
func (m *MockBus) Unsubscribe(ctx context.Context, channel string) error {
	return m.Called(ctx, channel).Error(0)
}
func (m *MockBus) Close() error {
	return m.Called().Error(0)
}

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Register(ctx context.Context, sub *providers.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}
func (m *MockRegistry) Remove(ctx context.Context, connectionID string) error {
	return m.Called(ctx, connectionID).Error(0)
}
func (m *MockRegistry) ListByJobKey(ctx context.Context, jobKey string) ([]providers.Subscription, error) {
	args := m.Called(ctx, jobKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]providers.Subscription), args.Error(1)
}

type dispatcherFixture struct {
	queue      *MockQueue
	store      *MockStore
	transcribe *MockTranscriber
	extractor  *MockExtractor
	renderer   *MockRenderer
	repo       *MockRepo
	bus        *MockBus
	registry   *MockRegistry
	dispatcher *Dispatcher
}

func newFixture(t *testing.T) *dispatcherFixture {
	f := &dispatcherFixture{
		queue:      new(MockQueue),
		store:      new(MockStore),
		transcribe: new(MockTranscriber),
		extractor:  new(MockExtractor),
		renderer:   new(MockRenderer),
		repo:       new(MockRepo),
		bus:        new(MockBus),
		registry:   new(MockRegistry),
	}
	f.dispatcher = NewDispatcher(DispatcherConfig{
		Queue:         f.queue,
		Store:         f.store,
		Transcription: NewTranscriptionStage(f.transcribe, nil, zerolog.Nop()),
		Extractor:     f.extractor,
		Renderer:      f.renderer,
		Repository:    f.repo,
		EventBus:      f.bus,
		Subscriptions: f.registry,
		ReportsBucket: "clinical-reports",
		TempDir:       t.TempDir(),
		Logger:        zerolog.Nop(),
	})
	f.dispatcher.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	return f
}

func chestPainArtifact(key string) *entities.ConsultationArtifact {
	return &entities.ConsultationArtifact{
		Version:  entities.ArtifactVersion,
		Metadata: entities.ConsultationMetadata{ConsultationID: key},
		SOAPNotes: entities.SOAPNotes{
			Subjective: entities.Subjective{ChiefComplaint: strPtr("chest pain")},
			Assessment: entities.Assessment{PrimaryDiagnosis: strPtr("suspected angina")},
			Plan: entities.Plan{
				MedicationsPrescribed: []entities.PrescribedMedication{{Medication: "aspirin"}},
			},
		},
		ClinicalSafety: entities.ClinicalSafety{ConfidenceLevel: entities.ConfidenceHigh},
		FollowUpTasks: []entities.Task{
			{TaskID: "task-001", TaskType: entities.TaskOrderLab, Description: "Order troponin", Urgency: entities.UrgencyStat, Status: entities.TaskStatusProposed,
				RequiredInputs: entities.RequiredInputs{LabTest: &entities.LabTestInput{TestName: "troponin"}}},
			{TaskID: "task-002", TaskType: entities.TaskReferral, Description: "Refer to cardiology", Urgency: entities.UrgencyUrgent, Status: entities.TaskStatusProposed,
				RequiredInputs: entities.RequiredInputs{Referral: &entities.ReferralInput{Specialty: "cardiology"}}},
			{TaskID: "task-003", TaskType: entities.TaskFollowUpCall, Description: "Call patient with results", Urgency: entities.UrgencyRoutine, Status: entities.TaskStatusProposed},
		},
	}
}

// Tests

func TestProcessJob_CompletesFullPipeline(t *testing.T) {
	f := newFixture(t)
	msg := &providers.JobMessage{Bucket: "clinical-audio", ObjectKey: "audio/NHI123_consult.wav"}
	key := msg.ObjectKey

	f.store.On("Exists", mock.Anything, "clinical-audio", key).Return(true, nil)
	f.store.On("Download", mock.Anything, "clinical-audio", key, mock.Anything).Return(nil)
	f.transcribe.On("Transcribe", mock.Anything, mock.Anything).Return("Doctor: tell me about the pain.", nil)
	f.extractor.On("Extract", mock.Anything, key, "Doctor: tell me about the pain.").Return(chestPainArtifact(key))
	f.renderer.On("Render", mock.Anything).Return([]byte("%PDF-fake"), nil)
	f.store.On("Put", mock.Anything, "clinical-reports", "reports/audio/NHI123_consult.pdf", mock.Anything).Return(nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.registry.On("ListByJobKey", mock.Anything, key).Return([]providers.Subscription{
		{ConnectionID: "conn-1", JobKey: key},
		{ConnectionID: "conn-2", JobKey: key},
	}, nil)
	f.bus.On("Publish", mock.Anything, "notify:conn-1", mock.Anything).Return(nil)
	f.bus.On("Publish", mock.Anything, "notify:conn-2", mock.Anything).Return(nil)
	f.store.On("Delete", mock.Anything, "clinical-audio", key).Return(nil)
	f.queue.On("Ack", mock.Anything, msg).Return(nil)

	f.dispatcher.ProcessJob(context.Background(), msg)

	f.queue.AssertCalled(t, "Ack", mock.Anything, msg)
	f.store.AssertCalled(t, "Delete", mock.Anything, "clinical-audio", key)

	record := f.repo.Calls[0].Arguments.Get(1).(*entities.ResultRecord)
	assert.Equal(t, key, record.AudioKey)
	assert.Equal(t, "NHI123", record.PatientID)
	assert.Equal(t, 3, record.TotalTaskCount)
	assert.Equal(t, 3, record.PendingTaskCount)
	assert.Equal(t, 2, record.UrgentTaskCount)
	assert.Equal(t, "suspected angina", *record.Diagnosis)
	assert.True(t, record.ReportAvailable)
	require.NotNil(t, record.ReportKey)
	assert.Equal(t, "reports/audio/NHI123_consult.pdf", *record.ReportKey)
	assert.NotEmpty(t, record.FHIRBundle)

	event := f.bus.Calls[0].Arguments.Get(2).(*entities.ConsultationEvent)
	assert.Equal(t, entities.ConsultationEventCompleted, event.Type)
	assert.Equal(t, key, event.JobKey)
	assert.Equal(t, "Doctor: tell me about the pain.", event.Result.Transcript)
}

func TestProcessJob_SourceMissing_AcksWithoutWork(t *testing.T) {
	f := newFixture(t)
	msg := &providers.JobMessage{Bucket: "clinical-audio", ObjectKey: "audio/dup.wav"}

	f.store.On("Exists", mock.Anything, "clinical-audio", "audio/dup.wav").Return(false, nil)
	f.queue.On("Ack", mock.Anything, msg).Return(nil)

	f.dispatcher.ProcessJob(context.Background(), msg)

	f.queue.AssertCalled(t, "Ack", mock.Anything, msg)
	f.transcribe.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProcessJob_TranscriptionFailure_LeavesJobForRedelivery(t *testing.T) {
	f := newFixture(t)
	msg := &providers.JobMessage{Bucket: "clinical-audio", ObjectKey: "audio/bad.wav"}

	f.store.On("Exists", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.store.On("Download", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.transcribe.On("Transcribe", mock.Anything, mock.Anything).Return("", errors.New("api unavailable"))

	f.dispatcher.ProcessJob(context.Background(), msg)

	f.queue.AssertNotCalled(t, "Ack", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessJob_EmptyTranscript_StillPersistsAndNotifies(t *testing.T) {
	f := newFixture(t)
	msg := &providers.JobMessage{Bucket: "clinical-audio", ObjectKey: "audio/NHI123_silent.wav"}
	key := msg.ObjectKey

	silent := &entities.ConsultationArtifact{
		Version:        entities.ArtifactVersion,
		Metadata:       entities.ConsultationMetadata{ConsultationID: key},
		ClinicalSafety: entities.ClinicalSafety{ConfidenceLevel: entities.ConfidenceLow},
	}

	f.store.On("Exists", mock.Anything, "clinical-audio", key).Return(true, nil)
	f.store.On("Download", mock.Anything, "clinical-audio", key, mock.Anything).Return(nil)
	f.transcribe.On("Transcribe", mock.Anything, mock.Anything).Return("", nil)
	f.extractor.On("Extract", mock.Anything, key, "").Return(silent)
	f.renderer.On("Render", mock.Anything).Return([]byte("%PDF"), nil)
	f.store.On("Put", mock.Anything, "clinical-reports", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.registry.On("ListByJobKey", mock.Anything, key).Return([]providers.Subscription{
		{ConnectionID: "conn-1", JobKey: key},
	}, nil)
	f.bus.On("Publish", mock.Anything, "notify:conn-1", mock.Anything).Return(nil)
	f.store.On("Delete", mock.Anything, "clinical-audio", key).Return(nil)
	f.queue.On("Ack", mock.Anything, msg).Return(nil)

	f.dispatcher.ProcessJob(context.Background(), msg)

	f.extractor.AssertCalled(t, "Extract", mock.Anything, key, "")
	f.repo.AssertCalled(t, "Save", mock.Anything, mock.Anything)
	f.bus.AssertCalled(t, "Publish", mock.Anything, "notify:conn-1", mock.Anything)
	f.queue.AssertCalled(t, "Ack", mock.Anything, msg)

	record := f.repo.Calls[0].Arguments.Get(1).(*entities.ResultRecord)
	assert.Equal(t, "", record.Transcript)
	assert.Equal(t, 0, record.TotalTaskCount)
}

func TestProcessJob_RenderFailure_CompletesWithoutReport(t *testing.T) {
	f := newFixture(t)
	msg := &providers.JobMessage{Bucket: "clinical-audio", ObjectKey: "audio/NHI123_consult.wav"}

	f.store.On("Exists", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.store.On("Download", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.transcribe.On("Transcribe", mock.Anything, mock.Anything).Return("transcript", nil)
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(chestPainArtifact(msg.ObjectKey))
	f.renderer.On("Render", mock.Anything).Return(nil, errors.New("font missing"))
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.registry.On("ListByJobKey", mock.Anything, mock.Anything).Return([]providers.Subscription{}, nil)
	f.store.On("Delete", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.queue.On("Ack", mock.Anything, msg).Return(nil)

	f.dispatcher.ProcessJob(context.Background(), msg)

	record := f.repo.Calls[0].Arguments.Get(1).(*entities.ResultRecord)
	assert.False(t, record.ReportAvailable)
	assert.Nil(t, record.ReportKey)
	f.queue.AssertCalled(t, "Ack", mock.Anything, msg)
	f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessJob_PersistFailure_StillCompletes(t *testing.T) {
	f := newFixture(t)
	msg := &providers.JobMessage{Bucket: "clinical-audio", ObjectKey: "audio/NHI123_consult.wav"}

	f.store.On("Exists", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.store.On("Download", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.transcribe.On("Transcribe", mock.Anything, mock.Anything).Return("transcript", nil)
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(chestPainArtifact(msg.ObjectKey))
	f.renderer.On("Render", mock.Anything).Return([]byte("%PDF"), nil)
	f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	f.registry.On("ListByJobKey", mock.Anything, mock.Anything).Return([]providers.Subscription{}, nil)
	f.store.On("Delete", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.queue.On("Ack", mock.Anything, msg).Return(nil)

	f.dispatcher.ProcessJob(context.Background(), msg)

	f.queue.AssertCalled(t, "Ack", mock.Anything, msg)
	f.store.AssertCalled(t, "Delete", mock.Anything, "clinical-audio", msg.ObjectKey)
}

func TestProcessJob_NotifyFailure_SwallowedPerSubscriber(t *testing.T) {
	f := newFixture(t)
	msg := &providers.JobMessage{Bucket: "clinical-audio", ObjectKey: "audio/NHI123_consult.wav"}

	f.store.On("Exists", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.store.On("Download", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.transcribe.On("Transcribe", mock.Anything, mock.Anything).Return("transcript", nil)
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(chestPainArtifact(msg.ObjectKey))
	f.renderer.On("Render", mock.Anything).Return([]byte("%PDF"), nil)
	f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.registry.On("ListByJobKey", mock.Anything, mock.Anything).Return([]providers.Subscription{
		{ConnectionID: "conn-1"},
		{ConnectionID: "conn-2"},
	}, nil)
	f.bus.On("Publish", mock.Anything, "notify:conn-1", mock.Anything).Return(errors.New("connection gone"))
	f.bus.On("Publish", mock.Anything, "notify:conn-2", mock.Anything).Return(nil)
	f.store.On("Delete", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.queue.On("Ack", mock.Anything, msg).Return(nil)

	f.dispatcher.ProcessJob(context.Background(), msg)

	f.bus.AssertCalled(t, "Publish", mock.Anything, "notify:conn-2", mock.Anything)
	f.queue.AssertCalled(t, "Ack", mock.Anything, msg)
}

func TestProcessJob_ExistenceCheckError_LeavesJobForRedelivery(t *testing.T) {
	f := newFixture(t)
	msg := &providers.JobMessage{Bucket: "clinical-audio", ObjectKey: "audio/x.wav"}

	f.store.On("Exists", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("store unreachable"))

	f.dispatcher.ProcessJob(context.Background(), msg)

	f.queue.AssertNotCalled(t, "Ack", mock.Anything, mock.Anything)
}

func TestReportKeyFor(t *testing.T) {
	assert.Equal(t, "reports/audio/NHI123_consult.pdf", reportKeyFor("audio/NHI123_consult.wav"))
	assert.Equal(t, "reports/plain.pdf", reportKeyFor("plain.mp3"))
	assert.Equal(t, "reports/noext.pdf", reportKeyFor("noext"))
}
