package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
)

func TestTaskNormalize_KeepsOnlyMatchingPayload(t *testing.T) {
	task := entities.Task{
		TaskID:   "task-001",
		TaskType: entities.TaskOrderLab,
		Urgency:  entities.UrgencyStat,
		Status:   entities.TaskStatusDone,
		RequiredInputs: entities.RequiredInputs{
			LabTest:  &entities.LabTestInput{TestName: "troponin"},
			Referral: &entities.ReferralInput{Specialty: "cardiology"},
		},
	}

	task.Normalize()

	assert.Equal(t, entities.TaskStatusProposed, task.Status)
	require.NotNil(t, task.RequiredInputs.LabTest)
	assert.Equal(t, "troponin", task.RequiredInputs.LabTest.TestName)
	assert.Nil(t, task.RequiredInputs.Referral)
	assert.NoError(t, task.Validate())
}

func TestTaskNormalize_UnknownUrgencyFallsBackToRoutine(t *testing.T) {
	task := entities.Task{
		TaskID:   "task-001",
		TaskType: entities.TaskAdmin,
		Urgency:  entities.Urgency("asap"),
	}

	task.Normalize()

	assert.Equal(t, entities.UrgencyRoutine, task.Urgency)
	assert.False(t, task.IsUrgent())
}

func TestTaskNormalize_PayloadFreeTypeDropsAllPayloads(t *testing.T) {
	task := entities.Task{
		TaskID:   "task-001",
		TaskType: entities.TaskFollowUpCall,
		Urgency:  entities.UrgencyRoutine,
		RequiredInputs: entities.RequiredInputs{
			Prescription: &entities.PrescriptionInput{Medication: "amoxicillin"},
		},
	}

	task.Normalize()

	assert.Equal(t, entities.RequiredInputs{}, task.RequiredInputs)
	assert.NoError(t, task.Validate())
}

func TestTaskValidate_RejectsMultiplePayloads(t *testing.T) {
	task := entities.Task{
		TaskID:   "task-001",
		TaskType: entities.TaskOrderScan,
		Urgency:  entities.UrgencyUrgent,
		Status:   entities.TaskStatusProposed,
		RequiredInputs: entities.RequiredInputs{
			Imaging: &entities.ImagingInput{Modality: "CT"},
			LabTest: &entities.LabTestInput{TestName: "troponin"},
		},
	}

	assert.Error(t, task.Validate())
}

func TestTaskValidate_RejectsPayloadOnPayloadFreeType(t *testing.T) {
	task := entities.Task{
		TaskID:   "task-001",
		TaskType: entities.TaskPatientEducation,
		Urgency:  entities.UrgencyLow,
		Status:   entities.TaskStatusProposed,
		RequiredInputs: entities.RequiredInputs{
			Referral: &entities.ReferralInput{Specialty: "cardiology"},
		},
	}

	assert.Error(t, task.Validate())
}

func TestUrgencyRank_OrdersStatFirst(t *testing.T) {
	assert.Less(t, entities.UrgencyStat.Rank(), entities.UrgencyUrgent.Rank())
	assert.Less(t, entities.UrgencyUrgent.Rank(), entities.UrgencyRoutine.Rank())
	assert.Less(t, entities.UrgencyRoutine.Rank(), entities.UrgencyLow.Rank())
	assert.Less(t, entities.UrgencyLow.Rank(), entities.Urgency("unknown").Rank())
}

func TestValidTaskStatus(t *testing.T) {
	assert.True(t, entities.ValidTaskStatus(entities.TaskStatusInProgress))
	assert.False(t, entities.ValidTaskStatus(entities.TaskStatus("archived")))
}
