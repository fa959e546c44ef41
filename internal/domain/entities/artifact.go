package entities

import (
	"fmt"
	"time"
)

// ArtifactVersion is the current consultation artifact schema version.
// Consumers branch on this to choose legacy vs. current handling.
const ArtifactVersion = "2.0"

// ConfidenceLevel is the extraction model's self-assessment of completeness
type ConfidenceLevel string

const (
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceModerate ConfidenceLevel = "moderate"
	ConfidenceLow      ConfidenceLevel = "low"
)

// ConsultationArtifact is the canonical structured record extracted from one
// consultation transcript. Every leaf field is nullable: absence means "not
// mentioned in the transcript", never inferred.
type ConsultationArtifact struct {
	Version            string               `json:"version"`
	Metadata           ConsultationMetadata `json:"metadata"`
	PatientContext     PatientContext       `json:"patient_context"`
	SOAPNotes          SOAPNotes            `json:"soap_notes"`
	ClinicalSafety     ClinicalSafety       `json:"clinical_safety"`
	FollowUpTasks      []Task               `json:"follow_up_tasks"`
	Handover           Handover             `json:"handover"`
	ExtractionMetadata ExtractionMetadata   `json:"metadata_extraction"`
}

// ConsultationMetadata classifies the encounter. ConsultationID is assigned
// by the pipeline (the job's source key), never by the extraction model.
type ConsultationMetadata struct {
	ConsultationID  string        `json:"consultation_id"`
	Timestamp       *string       `json:"timestamp"`
	DurationSeconds *int          `json:"duration_seconds"`
	SettingType     *string       `json:"setting_type"`
	Specialty       *string       `json:"specialty"`
	EncounterType   *string       `json:"encounter_type"`
	Participants    []Participant `json:"participants"`
	Location        *Location     `json:"location"`
}

// Participant is one de-identified person present in the consultation
type Participant struct {
	Role       string `json:"role"`
	Identifier string `json:"identifier"`
}

// Location describes where the consultation took place
type Location struct {
	Facility *string `json:"facility"`
	Ward     *string `json:"ward"`
	Room     *string `json:"room"`
	Bed      *string `json:"bed"`
}

// PatientContext holds de-identified patient descriptors
type PatientContext struct {
	PatientIdentifier *string `json:"patient_identifier"`
	AgeRange          *string `json:"age_range"`
	Gender            *string `json:"gender"`
	AdmissionDate     *string `json:"admission_date"`
	HospitalDay       *int    `json:"hospital_day"`
}

// RedFlag is a concerning clinical sign flagged during extraction
type RedFlag struct {
	Flag        string  `json:"flag"`
	Severity    string  `json:"severity"`
	ActionTaken *string `json:"action_taken"`
}

// Contraindication pairs a medication or procedure with why it is contraindicated
type Contraindication struct {
	Item             string `json:"item"`
	Contraindication string `json:"contraindication"`
}

// ClinicalSafety is the model's own safety assessment of the extraction
type ClinicalSafety struct {
	RedFlags            []RedFlag          `json:"red_flags"`
	RiskFactors         []string           `json:"risk_factors"`
	Contraindications   []Contraindication `json:"contraindications"`
	MissingInformation  []string           `json:"missing_information"`
	ClarifyingQuestions []string           `json:"clarifying_questions"`
	ConfidenceLevel     ConfidenceLevel    `json:"confidence_level"`
}

// KeyContact is a de-identified contact for handover
type KeyContact struct {
	Role    string  `json:"role"`
	Name    *string `json:"name"`
	Contact *string `json:"contact"`
}

// Handover is the SBAR-structured summary for shift handover
type Handover struct {
	Situation           *string      `json:"situation"`
	Background          *string      `json:"background"`
	Assessment          *string      `json:"assessment"`
	Recommendation      *string      `json:"recommendation"`
	ActiveIssues        []string     `json:"active_issues"`
	PendingTasksSummary *string      `json:"pending_tasks_summary"`
	EscalationCriteria  []string     `json:"escalation_criteria"`
	NextReviewTime      *string      `json:"next_review_time"`
	KeyContacts         []KeyContact `json:"key_contacts"`
}

// IsEmpty reports whether no handover field was extracted
func (h *Handover) IsEmpty() bool {
	return h.Situation == nil && h.Background == nil && h.Assessment == nil &&
		h.Recommendation == nil && len(h.ActiveIssues) == 0 &&
		h.PendingTasksSummary == nil && len(h.EscalationCriteria) == 0 &&
		h.NextReviewTime == nil && len(h.KeyContacts) == 0
}

// ExtractionMetadata is extraction provenance. The pipeline stamps all of
// these after the model call, overwriting any model-supplied values.
type ExtractionMetadata struct {
	ExtractionTimestamp string  `json:"extraction_timestamp"`
	ModelUsed           string  `json:"model_used"`
	TranscriptLength    int     `json:"transcript_length"`
	ProcessingNotes     *string `json:"processing_notes"`
}

// Normalize repairs values the extraction model is allowed to get wrong
// without forcing a fallback: missing confidence level, unknown task urgency,
// non-proposed task status, and required-inputs payloads that do not match
// the task type.
func (a *ConsultationArtifact) Normalize() {
	switch a.ClinicalSafety.ConfidenceLevel {
	case ConfidenceHigh, ConfidenceModerate, ConfidenceLow:
	default:
		a.ClinicalSafety.ConfidenceLevel = ConfidenceModerate
	}
	for i := range a.FollowUpTasks {
		a.FollowUpTasks[i].Normalize()
	}
}

// Validate checks the structural invariants that downstream stages rely on.
// Call after Normalize. Task dependency graphs are deliberately not checked
// for cycles or dangling ids; that is left to downstream schedulers.
func (a *ConsultationArtifact) Validate() error {
	if a.Version == "" {
		return fmt.Errorf("artifact version is empty")
	}
	seen := make(map[string]struct{}, len(a.FollowUpTasks))
	for i := range a.FollowUpTasks {
		t := &a.FollowUpTasks[i]
		if t.TaskID == "" {
			return fmt.Errorf("task %d has no task_id", i)
		}
		if _, dup := seen[t.TaskID]; dup {
			return fmt.Errorf("duplicate task_id %q", t.TaskID)
		}
		seen[t.TaskID] = struct{}{}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("task %q: %w", t.TaskID, err)
		}
	}
	return nil
}

// TaskByID returns the task with the given id, or nil
func (a *ConsultationArtifact) TaskByID(taskID string) *Task {
	for i := range a.FollowUpTasks {
		if a.FollowUpTasks[i].TaskID == taskID {
			return &a.FollowUpTasks[i]
		}
	}
	return nil
}

// NewFallbackArtifact builds the schema-valid artifact substituted when
// extraction fails. It is flagged low-confidence, carries the failure reason
// in its processing notes, and has an empty task list, so every downstream
// stage can treat it exactly like a successful extraction.
func NewFallbackArtifact(consultationID, modelID string, transcriptLength int, reason string, now time.Time) *ConsultationArtifact {
	notes := "extraction failed: " + reason
	return &ConsultationArtifact{
		Version: ArtifactVersion,
		Metadata: ConsultationMetadata{
			ConsultationID: consultationID,
		},
		ClinicalSafety: ClinicalSafety{
			MissingInformation: []string{"extraction failed - structured data unavailable"},
			ConfidenceLevel:    ConfidenceLow,
		},
		FollowUpTasks: []Task{},
		ExtractionMetadata: ExtractionMetadata{
			ExtractionTimestamp: now.UTC().Format(time.RFC3339),
			ModelUsed:           modelID,
			TranscriptLength:    transcriptLength,
			ProcessingNotes:     &notes,
		},
	}
}
