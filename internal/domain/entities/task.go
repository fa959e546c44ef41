package entities

import "fmt"

// TaskType is the closed set of actionable follow-up work kinds
type TaskType string

const (
	TaskOrderScan                TaskType = "order_scan"
	TaskOrderLab                 TaskType = "order_lab"
	TaskBookRoom                 TaskType = "book_room"
	TaskNursingObservation       TaskType = "nursing_observation"
	TaskPrepareDischarge         TaskType = "prepare_discharge"
	TaskPrescription             TaskType = "prescription"
	TaskReferral                 TaskType = "referral"
	TaskFollowUpCall             TaskType = "follow_up_call"
	TaskPatientEducation         TaskType = "patient_education"
	TaskAdmin                    TaskType = "admin"
	TaskProcedure                TaskType = "procedure"
	TaskMedicationAdministration TaskType = "medication_administration"
	TaskWoundCare                TaskType = "wound_care"
	TaskPhysiotherapy            TaskType = "physiotherapy"
	TaskOccupationalTherapy      TaskType = "occupational_therapy"
	TaskSocialWork               TaskType = "social_work"
	TaskOther                    TaskType = "other"
)

// Urgency orders tasks stat > urgent > routine > low
type Urgency string

const (
	UrgencyStat    Urgency = "stat"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyRoutine Urgency = "routine"
	UrgencyLow     Urgency = "low"
)

// Rank returns the priority rank of the urgency, lower is more urgent
func (u Urgency) Rank() int {
	switch u {
	case UrgencyStat:
		return 0
	case UrgencyUrgent:
		return 1
	case UrgencyRoutine:
		return 2
	case UrgencyLow:
		return 3
	default:
		return 4
	}
}

// TaskStatus is the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusProposed   TaskStatus = "proposed"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// ValidTaskStatus reports whether s is a known task status
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusProposed, TaskStatusInProgress, TaskStatusDone, TaskStatusCancelled:
		return true
	}
	return false
}

// Task is one actionable unit of follow-up work. TaskID is unique within an
// artifact and stable in extraction order, not globally unique. DueAt is
// preserved verbatim: either an absolute timestamp or a relative deadline
// like "in 2 hours", never parsed. Dependencies reference other task ids in
// the same artifact; the pipeline does not validate the graph for cycles.
type Task struct {
	TaskID             string         `json:"task_id"`
	TaskType           TaskType       `json:"task_type"`
	Description        string         `json:"description"`
	OwnerRole          *string        `json:"owner_role"`
	Urgency            Urgency        `json:"urgency"`
	DueAt              *string        `json:"due_at"`
	Location           *Location      `json:"location"`
	Dependencies       []string       `json:"dependencies"`
	Status             TaskStatus     `json:"status"`
	TranscriptEvidence *string        `json:"transcript_evidence"`
	RequiredInputs     RequiredInputs `json:"required_inputs"`
}

// RequiredInputs is the typed automation payload consumed by task-execution
// systems. Exactly one sub-object is populated per task, selected by the
// task type; all others are null.
type RequiredInputs struct {
	Prescription       *PrescriptionInput       `json:"prescription"`
	Imaging            *ImagingInput            `json:"imaging"`
	LabTest            *LabTestInput            `json:"lab_test"`
	NursingObservation *NursingObservationInput `json:"nursing_observation"`
	RoomBooking        *RoomBookingInput        `json:"room_booking"`
	Discharge          *DischargeInput          `json:"discharge"`
	Referral           *ReferralInput           `json:"referral"`
}

// PrescriptionInput is the payload for prescription and medication
// administration tasks
type PrescriptionInput struct {
	Medication              string  `json:"medication"`
	Dose                    *string `json:"dose"`
	Route                   *string `json:"route"`
	Frequency               *string `json:"frequency"`
	Duration                *string `json:"duration"`
	Repeats                 *int    `json:"repeats"`
	Indication              *string `json:"indication"`
	SpecialInstructions     *string `json:"special_instructions"`
	ContraindicationsChecked bool   `json:"contraindications_checked"`
}

// ImagingInput is the payload for imaging order tasks
type ImagingInput struct {
	Modality         string  `json:"modality"`
	BodyPart         *string `json:"body_part"`
	Contrast         *bool   `json:"contrast"`
	ClinicalQuestion *string `json:"clinical_question"`
	Urgency          *string `json:"urgency"`
}

// LabTestInput is the payload for lab order tasks
type LabTestInput struct {
	TestName        string  `json:"test_name"`
	SampleType      *string `json:"sample_type"`
	FastingRequired *bool   `json:"fasting_required"`
	Urgency         *string `json:"urgency"`
}

// NursingObservationInput is the payload for nursing observation and wound
// care tasks
type NursingObservationInput struct {
	ObservationType    string   `json:"observation_type"`
	Frequency          *string  `json:"frequency"`
	Duration           *string  `json:"duration"`
	Parameters         []string `json:"parameters"`
	EscalationCriteria *string  `json:"escalation_criteria"`
}

// RoomBookingInput is the payload for room booking tasks
type RoomBookingInput struct {
	RoomType        string   `json:"room_type"`
	DurationMinutes *int     `json:"duration_minutes"`
	EquipmentNeeded []string `json:"equipment_needed"`
	StaffRequired   []string `json:"staff_required"`
}

// DischargeInput is the payload for discharge preparation tasks
type DischargeInput struct {
	EstimatedDate            *string  `json:"estimated_date"`
	EstimatedTime            *string  `json:"estimated_time"`
	Destination              *string  `json:"destination"`
	TransportRequired        *bool    `json:"transport_required"`
	MedicationsToPrepare     []string `json:"medications_to_prepare"`
	EquipmentNeeded          []string `json:"equipment_needed"`
	FollowUpAppointments     []string `json:"follow_up_appointments"`
	DischargeSummaryRequired *bool    `json:"discharge_summary_required"`
}

// ReferralInput is the payload for referral and therapy referral tasks
type ReferralInput struct {
	Specialty         string  `json:"specialty"`
	Urgency           *string `json:"urgency"`
	Reason            *string `json:"reason"`
	PreferredProvider *string `json:"preferred_provider"`
}

// payloadKind identifies which RequiredInputs sub-object a task type uses
type payloadKind int

const (
	payloadNone payloadKind = iota
	payloadPrescription
	payloadImaging
	payloadLabTest
	payloadNursingObservation
	payloadRoomBooking
	payloadDischarge
	payloadReferral
)

func (t TaskType) payload() payloadKind {
	switch t {
	case TaskPrescription, TaskMedicationAdministration:
		return payloadPrescription
	case TaskOrderScan:
		return payloadImaging
	case TaskOrderLab:
		return payloadLabTest
	case TaskNursingObservation, TaskWoundCare:
		return payloadNursingObservation
	case TaskBookRoom:
		return payloadRoomBooking
	case TaskPrepareDischarge:
		return payloadDischarge
	case TaskReferral, TaskPhysiotherapy, TaskOccupationalTherapy, TaskSocialWork:
		return payloadReferral
	default:
		return payloadNone
	}
}

// Normalize forces the creation-time invariants: status is always proposed,
// unknown urgencies fall back to routine, and only the payload selected by
// the task type survives in RequiredInputs.
func (t *Task) Normalize() {
	t.Status = TaskStatusProposed
	switch t.Urgency {
	case UrgencyStat, UrgencyUrgent, UrgencyRoutine, UrgencyLow:
	default:
		t.Urgency = UrgencyRoutine
	}

	kind := t.TaskType.payload()
	kept := RequiredInputs{}
	switch kind {
	case payloadPrescription:
		kept.Prescription = t.RequiredInputs.Prescription
	case payloadImaging:
		kept.Imaging = t.RequiredInputs.Imaging
	case payloadLabTest:
		kept.LabTest = t.RequiredInputs.LabTest
	case payloadNursingObservation:
		kept.NursingObservation = t.RequiredInputs.NursingObservation
	case payloadRoomBooking:
		kept.RoomBooking = t.RequiredInputs.RoomBooking
	case payloadDischarge:
		kept.Discharge = t.RequiredInputs.Discharge
	case payloadReferral:
		kept.Referral = t.RequiredInputs.Referral
	}
	t.RequiredInputs = kept
}

// populatedCount returns how many RequiredInputs sub-objects are non-null
func (r *RequiredInputs) populatedCount() int {
	count := 0
	if r.Prescription != nil {
		count++
	}
	if r.Imaging != nil {
		count++
	}
	if r.LabTest != nil {
		count++
	}
	if r.NursingObservation != nil {
		count++
	}
	if r.RoomBooking != nil {
		count++
	}
	if r.Discharge != nil {
		count++
	}
	if r.Referral != nil {
		count++
	}
	return count
}

// Validate checks the task's structural invariants after Normalize:
// at most one payload populated, and only the one its task type selects.
func (t *Task) Validate() error {
	if !ValidTaskStatus(t.Status) {
		return fmt.Errorf("invalid status %q", t.Status)
	}
	n := t.RequiredInputs.populatedCount()
	if n > 1 {
		return fmt.Errorf("%d required_inputs payloads populated, want at most 1", n)
	}
	if n == 1 && t.TaskType.payload() == payloadNone {
		return fmt.Errorf("task type %q carries a required_inputs payload", t.TaskType)
	}
	return nil
}

// IsUrgent reports whether the task needs stat or urgent handling
func (t *Task) IsUrgent() bool {
	return t.Urgency == UrgencyStat || t.Urgency == UrgencyUrgent
}
