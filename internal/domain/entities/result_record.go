package entities

import "encoding/json"

// legacyTaskLimit caps how many task descriptions the flat projection carries
const legacyTaskLimit = 5

// ResultRecord is the persisted unit for one processed consultation, keyed by
// the job's source object key. It holds the full nested artifact verbatim
// plus a flattened legacy projection and denormalized counters for cheap
// dashboard queries. Created once per job by the dispatcher; mutated
// afterwards only through explicit task-status updates.
type ResultRecord struct {
	AudioKey  string `json:"audio_key"`
	PatientID string `json:"patient_id"`
	Timestamp int64  `json:"timestamp"`

	ConsultationTimestamp *string `json:"consultation_timestamp"`
	SettingType           *string `json:"setting_type"`
	Specialty             *string `json:"specialty"`
	EncounterType         *string `json:"encounter_type"`

	Transcript string               `json:"transcript"`
	Artifact   ConsultationArtifact `json:"consultation_artifact"`

	// FollowUpTasks duplicates Artifact.FollowUpTasks for direct access
	FollowUpTasks    []Task `json:"follow_up_tasks"`
	PendingTaskCount int    `json:"pending_task_count"`
	UrgentTaskCount  int    `json:"urgent_task_count"`
	TotalTaskCount   int    `json:"total_task_count"`

	PrimaryDiagnosis *string `json:"primary_diagnosis"`
	ChiefComplaint   *string `json:"chief_complaint"`

	FHIRBundle      json.RawMessage `json:"fhir_bundle,omitempty"`
	ReportKey       *string         `json:"report_key,omitempty"`
	ReportAvailable bool            `json:"report_available"`

	ArtifactVersion string `json:"artifact_version"`

	// Legacy flat fields for consumers that predate the nested schema
	Diagnosis   *string     `json:"diagnosis"`
	Medications []string    `json:"medications"`
	Tasks       []string    `json:"tasks"`
	FollowUp    *string     `json:"follow_up"`
	Notes       *string     `json:"notes"`
	VitalSigns  *VitalSigns `json:"vital_signs"`
	Symptoms    []string    `json:"symptoms"`

	// RecordVersion guards the task-status read-modify-write path with an
	// optimistic compare-and-swap.
	RecordVersion int64 `json:"record_version"`
}

// RecomputeTaskCounters refreshes the denormalized task counters. Must be
// called whenever any task status changes.
func (r *ResultRecord) RecomputeTaskCounters() {
	pending, urgent := 0, 0
	for i := range r.FollowUpTasks {
		if r.FollowUpTasks[i].Status == TaskStatusProposed {
			pending++
		}
		if r.FollowUpTasks[i].IsUrgent() {
			urgent++
		}
	}
	r.PendingTaskCount = pending
	r.UrgentTaskCount = urgent
	r.TotalTaskCount = len(r.FollowUpTasks)
}

// TaskByID returns the task with the given id, or nil
func (r *ResultRecord) TaskByID(taskID string) *Task {
	for i := range r.FollowUpTasks {
		if r.FollowUpTasks[i].TaskID == taskID {
			return &r.FollowUpTasks[i]
		}
	}
	return nil
}

// IsCurrentFormat reports whether the record carries the nested artifact
// schema; legacy records are served in their original flat shape.
func (r *ResultRecord) IsCurrentFormat() bool {
	return r.ArtifactVersion == ArtifactVersion
}

// LegacyProjection computes the flat fields old consumers read, from the
// nested artifact.
func LegacyProjection(artifact *ConsultationArtifact) (diagnosis *string, medications []string, tasks []string, followUp *string, notes *string, vitals *VitalSigns, symptoms []string) {
	soap := &artifact.SOAPNotes
	diagnosis = soap.Assessment.PrimaryDiagnosis
	notes = soap.Assessment.ClinicalImpression

	medications = make([]string, 0, len(soap.Plan.MedicationsPrescribed))
	for _, m := range soap.Plan.MedicationsPrescribed {
		medications = append(medications, m.Medication)
	}

	limit := len(artifact.FollowUpTasks)
	if limit > legacyTaskLimit {
		limit = legacyTaskLimit
	}
	tasks = make([]string, 0, limit)
	for _, t := range artifact.FollowUpTasks[:limit] {
		tasks = append(tasks, t.Description)
	}

	if soap.Plan.FollowUp != nil {
		followUp = soap.Plan.FollowUp.Timeframe
	}
	vitals = soap.Objective.VitalSigns

	symptoms = make([]string, 0, len(soap.Subjective.Symptoms))
	for _, s := range soap.Subjective.Symptoms {
		symptoms = append(symptoms, s.Symptom)
	}
	return
}
