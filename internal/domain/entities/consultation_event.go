package entities

import "encoding/json"

// ConsultationEventType identifies what happened to a consultation job
type ConsultationEventType string

const (
	// ConsultationEventCompleted is published once per job after persistence
	ConsultationEventCompleted ConsultationEventType = "completed"
)

// ConsultationResult is the completion payload pushed to subscribers
type ConsultationResult struct {
	Transcript string                `json:"transcript"`
	Artifact   *ConsultationArtifact `json:"consultation_artifact,omitempty"`
	FHIRBundle json.RawMessage       `json:"fhir_bundle,omitempty"`

	// Legacy projection fields for clients that predate the nested schema
	Diagnosis       *string     `json:"diagnosis"`
	Medications     []string    `json:"medications"`
	Tasks           []string    `json:"tasks"`
	FollowUp        *string     `json:"follow_up"`
	Notes           *string     `json:"notes"`
	VitalSigns      *VitalSigns `json:"vital_signs"`
	Symptoms        []string    `json:"symptoms"`
	ReportAvailable bool        `json:"report_available"`
}

// ConsultationEvent is the completion event fanned out, best effort, to every
// live subscriber of a job key.
type ConsultationEvent struct {
	Type   ConsultationEventType `json:"type"`
	JobKey string                `json:"jobKey"`
	Result ConsultationResult    `json:"result"`
}

// NewCompletionEvent builds the completion event for a persisted record
func NewCompletionEvent(record *ResultRecord) *ConsultationEvent {
	return &ConsultationEvent{
		Type:   ConsultationEventCompleted,
		JobKey: record.AudioKey,
		Result: ConsultationResult{
			Transcript:      record.Transcript,
			Artifact:        &record.Artifact,
			FHIRBundle:      record.FHIRBundle,
			Diagnosis:       record.Diagnosis,
			Medications:     record.Medications,
			Tasks:           record.Tasks,
			FollowUp:        record.FollowUp,
			Notes:           record.Notes,
			VitalSigns:      record.VitalSigns,
			Symptoms:        record.Symptoms,
			ReportAvailable: record.ReportAvailable,
		},
	}
}
