package fhir

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
)

func strPtr(s string) *string { return &s }

func sampleArtifact() *entities.ConsultationArtifact {
	return &entities.ConsultationArtifact{
		Version: entities.ArtifactVersion,
		SOAPNotes: entities.SOAPNotes{
			Objective: entities.Objective{
				VitalSigns: &entities.VitalSigns{
					BloodPressure: strPtr("145/92"),
					HeartRate:     strPtr("88"),
				},
			},
			Assessment: entities.Assessment{
				PrimaryDiagnosis: strPtr("suspected angina"),
			},
			Plan: entities.Plan{
				MedicationsPrescribed: []entities.PrescribedMedication{
					{
						Medication: "aspirin",
						Dose:       strPtr("300mg"),
						Route:      strPtr("PO"),
						Frequency:  strPtr("daily"),
					},
				},
			},
		},
		FollowUpTasks: []entities.Task{
			{TaskID: "task-001", TaskType: entities.TaskOrderLab, Description: "Order troponin", Urgency: entities.UrgencyStat, Status: entities.TaskStatusProposed},
		},
	}
}

func resourceTypes(b *Bundle) []string {
	var types []string
	for _, e := range b.Entry {
		raw, _ := json.Marshal(e.Resource)
		var probe struct {
			ResourceType string `json:"resourceType"`
		}
		_ = json.Unmarshal(raw, &probe)
		types = append(types, probe.ResourceType)
	}
	return types
}

func TestBuildBundle_FullArtifact(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	bundle := BuildBundle("audio/ABC1234_consult.wav", "ABC1234", sampleArtifact(), "Doctor: hello.", now)

	assert.Equal(t, "Bundle", bundle.ResourceType)
	assert.Equal(t, "collection", bundle.Type)
	assert.Equal(t, "audio-ABC1234-consult.wav", bundle.ID)
	assert.Equal(t, []string{
		"Patient", "Encounter", "Condition",
		"MedicationRequest",
		"Observation", "Observation",
		"ServiceRequest",
		"DocumentReference",
	}, resourceTypes(bundle))
}

func TestBuildBundle_PatientCarriesNHIIdentifier(t *testing.T) {
	bundle := BuildBundle("a.wav", "ABC1234", sampleArtifact(), "t", time.Now())

	patient, ok := bundle.Entry[0].Resource.(Patient)
	require.True(t, ok)
	require.Len(t, patient.Identifier, 1)
	assert.Equal(t, "https://standards.digital.health.nz/ns/nhi-id", patient.Identifier[0].System)
	assert.Equal(t, "ABC1234", patient.Identifier[0].Value)
}

func TestBuildBundle_MedicationDosageText(t *testing.T) {
	bundle := BuildBundle("a.wav", "p", sampleArtifact(), "t", time.Now())

	var med *MedicationRequest
	for _, e := range bundle.Entry {
		if m, ok := e.Resource.(MedicationRequest); ok {
			med = &m
			break
		}
	}
	require.NotNil(t, med)
	assert.Equal(t, "aspirin", med.MedicationCodeableConcept.Text)
	require.Len(t, med.DosageInstruction, 1)
	assert.Equal(t, "300mg PO daily", med.DosageInstruction[0].Text)
}

func TestBuildBundle_ServiceRequestCap(t *testing.T) {
	artifact := sampleArtifact()
	artifact.FollowUpTasks = nil
	for i := 0; i < 15; i++ {
		artifact.FollowUpTasks = append(artifact.FollowUpTasks, entities.Task{
			TaskID:      fmt.Sprintf("task-%03d", i+1),
			TaskType:    entities.TaskAdmin,
			Description: "some task",
			Urgency:     entities.UrgencyRoutine,
			Status:      entities.TaskStatusProposed,
		})
	}

	bundle := BuildBundle("a.wav", "p", artifact, "t", time.Now())

	count := 0
	for _, e := range bundle.Entry {
		if _, ok := e.Resource.(ServiceRequest); ok {
			count++
		}
	}
	assert.Equal(t, 10, count)
}

func TestBuildBundle_EmptyArtifactOmitsOptionalResources(t *testing.T) {
	artifact := &entities.ConsultationArtifact{Version: entities.ArtifactVersion}

	bundle := BuildBundle("a.wav", "p", artifact, "", time.Now())

	assert.Equal(t, []string{"Patient", "Encounter"}, resourceTypes(bundle))
}

func TestBuildBundle_Deterministic(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	first, err := json.Marshal(BuildBundle("a.wav", "p", sampleArtifact(), "t", now))
	require.NoError(t, err)
	second, err := json.Marshal(BuildBundle("a.wav", "p", sampleArtifact(), "t", now))
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, "audio-file.wav", sanitizeID("audio/file.wav"))
	assert.Equal(t, "NHI-1234", sanitizeID("NHI 1234"))
	assert.Equal(t, "abc", sanitizeID("abc!!!"))
	assert.Equal(t, "a-b", sanitizeID("a___b"))
}
