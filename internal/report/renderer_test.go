package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func newFixedRenderer(facility *FacilityInfo) *Renderer {
	r := NewRenderer(facility)
	r.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	return r
}

func fullArtifact() *entities.ConsultationArtifact {
	return &entities.ConsultationArtifact{
		Version: entities.ArtifactVersion,
		Metadata: entities.ConsultationMetadata{
			ConsultationID: "consult-123.wav",
			Timestamp:      strPtr("2025-03-14T09:00:00Z"),
			SettingType:    strPtr("emergency_department"),
			EncounterType:  strPtr("initial_consultation"),
			Specialty:      strPtr("emergency_medicine"),
		},
		PatientContext: entities.PatientContext{
			AgeRange: strPtr("40-65"),
		},
		SOAPNotes: entities.SOAPNotes{
			Subjective: entities.Subjective{
				ChiefComplaint: strPtr("chest pain"),
				Symptoms: []entities.Symptom{
					{Symptom: "chest pain", Onset: strPtr("2 hours ago"), Severity: strPtr("severe")},
				},
			},
			Objective: entities.Objective{
				VitalSigns: &entities.VitalSigns{
					BloodPressure: strPtr("145/92"),
					HeartRate:     strPtr("88"),
				},
			},
			Assessment: entities.Assessment{
				PrimaryDiagnosis: strPtr("suspected angina"),
				ProblemList: []entities.Problem{
					{Problem: "hypertension", Priority: intPtr(2)},
					{Problem: "chest pain", Priority: intPtr(1)},
				},
			},
			Plan: entities.Plan{
				MedicationsPrescribed: []entities.PrescribedMedication{
					{Medication: "aspirin", Dose: strPtr("300mg")},
				},
				FollowUp: &entities.FollowUp{Required: true, Timeframe: strPtr("48 hours")},
			},
		},
		ClinicalSafety: entities.ClinicalSafety{
			RedFlags: []entities.RedFlag{
				{Flag: "crushing chest pain", Severity: "critical"},
			},
			ConfidenceLevel: entities.ConfidenceHigh,
		},
		FollowUpTasks: []entities.Task{
			{TaskID: "task-001", TaskType: entities.TaskOrderLab, Description: "Order troponin", OwnerRole: strPtr("doctor"), Urgency: entities.UrgencyStat, Status: entities.TaskStatusProposed},
			{TaskID: "task-002", TaskType: entities.TaskFollowUpCall, Description: "Call with results", OwnerRole: strPtr("nurse"), Urgency: entities.UrgencyRoutine, Status: entities.TaskStatusProposed},
		},
		Handover: entities.Handover{
			Situation: strPtr("Patient with suspected angina awaiting troponin"),
		},
	}
}

func TestRender_FullArtifact(t *testing.T) {
	r := newFixedRenderer(&FacilityInfo{Name: "Wellington GP Clinic", Phone: "04 123 4567"})

	out, err := r.Render(fullArtifact())

	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRender_EmptyArtifact(t *testing.T) {
	r := newFixedRenderer(nil)
	artifact := &entities.ConsultationArtifact{Version: entities.ArtifactVersion}

	out, err := r.Render(artifact)

	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRender_Deterministic(t *testing.T) {
	r := newFixedRenderer(nil)

	first, err := r.Render(fullArtifact())
	require.NoError(t, err)
	second, err := r.Render(fullArtifact())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRender_FallbackArtifact(t *testing.T) {
	r := newFixedRenderer(nil)
	artifact := entities.NewFallbackArtifact("consult-123.wav", "test-model", 100, "timeout", time.Now())

	out, err := r.Render(artifact)

	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestSortedProblems(t *testing.T) {
	problems := []entities.Problem{
		{Problem: "c"},
		{Problem: "b", Priority: intPtr(2)},
		{Problem: "a", Priority: intPtr(1)},
	}

	sorted := sortedProblems(problems)

	assert.Equal(t, "a", sorted[0].Problem)
	assert.Equal(t, "b", sorted[1].Problem)
	assert.Equal(t, "c", sorted[2].Problem)
	// input order untouched
	assert.Equal(t, "c", problems[0].Problem)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Emergency Department", titleCase("emergency_department"))
	assert.Equal(t, "Blood Pressure", titleCase("blood_pressure"))
	assert.Equal(t, "", titleCase(""))
}
