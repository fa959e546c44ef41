package fhir

import (
	"fmt"
	"strings"
	"time"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
)

// nhiSystem is the New Zealand national health index identifier namespace
const nhiSystem = "https://standards.digital.health.nz/ns/nhi-id"

// maxServiceRequests caps how many follow-up tasks are exported as
// ServiceRequest resources; remaining tasks stay in the artifact only
const maxServiceRequests = 10

var nzZone = time.FixedZone("NZST", 12*3600)

// BuildBundle assembles a FHIR R4 collection bundle from a consultation
// artifact. Resource ids are derived from the job key and patient id, so the
// same inputs always produce the same bundle apart from the timestamp.
func BuildBundle(jobKey, patientID string, artifact *entities.ConsultationArtifact, transcript string, now time.Time) *Bundle {
	encounterID := "encounter-" + sanitizeID(jobKey)
	patientRef := Reference{Reference: "Patient/patient-" + sanitizeID(patientID)}
	encounterRef := &Reference{Reference: "Encounter/" + encounterID}
	ts := now.In(nzZone).Format("2006-01-02T15:04:05-07:00")

	bundle := &Bundle{
		ResourceType: "Bundle",
		ID:           sanitizeID(jobKey),
		Type:         "collection",
		Timestamp:    ts,
	}

	bundle.Entry = append(bundle.Entry, Entry{Resource: Patient{
		ResourceType: "Patient",
		ID:           "patient-" + sanitizeID(patientID),
		Identifier: []Identifier{{
			Use:    "official",
			System: nhiSystem,
			Value:  patientID,
		}},
	}})

	bundle.Entry = append(bundle.Entry, Entry{Resource: Encounter{
		ResourceType: "Encounter",
		ID:           encounterID,
		Status:       "finished",
		Class:        Coding{Code: "AMB", Display: "ambulatory"},
		Subject:      patientRef,
		Period:       &Period{Start: ts},
	}})

	if d := artifact.SOAPNotes.Assessment.PrimaryDiagnosis; d != nil && *d != "" {
		bundle.Entry = append(bundle.Entry, Entry{Resource: Condition{
			ResourceType:   "Condition",
			ID:             "condition-primary",
			ClinicalStatus: &CodeableConcept{Coding: []Coding{{Code: "active"}}},
			Code:           CodeableConcept{Text: *d},
			Subject:        patientRef,
			Encounter:      encounterRef,
		}})
	}

	for i, med := range artifact.SOAPNotes.Plan.MedicationsPrescribed {
		bundle.Entry = append(bundle.Entry, Entry{Resource: MedicationRequest{
			ResourceType:              "MedicationRequest",
			ID:                        fmt.Sprintf("medication-%d", i),
			Status:                    "active",
			Intent:                    "order",
			MedicationCodeableConcept: CodeableConcept{Text: med.Medication},
			Subject:                   patientRef,
			Encounter:                 encounterRef,
			DosageInstruction:         dosageFor(med),
		}})
	}

	for _, reading := range artifact.SOAPNotes.Objective.VitalSigns.Readings() {
		bundle.Entry = append(bundle.Entry, Entry{Resource: Observation{
			ResourceType: "Observation",
			ID:           "vital-" + reading.Name,
			Status:       "final",
			Category:     []CodeableConcept{{Coding: []Coding{{Code: "vital-signs"}}}},
			Code:         CodeableConcept{Text: strings.ToUpper(reading.Name)},
			Subject:      patientRef,
			Encounter:    encounterRef,
			ValueString:  reading.Value,
		}})
	}

	for i, task := range artifact.FollowUpTasks {
		if i >= maxServiceRequests {
			break
		}
		bundle.Entry = append(bundle.Entry, Entry{Resource: ServiceRequest{
			ResourceType: "ServiceRequest",
			ID:           "task-" + sanitizeID(task.TaskID),
			Status:       "active",
			Intent:       "order",
			Priority:     requestPriority(task.Urgency),
			Code:         CodeableConcept{Text: task.Description},
			Subject:      patientRef,
			Encounter:    encounterRef,
		}})
	}

	if transcript != "" {
		bundle.Entry = append(bundle.Entry, Entry{Resource: DocumentReference{
			ResourceType: "DocumentReference",
			ID:           "clinical-transcript",
			Status:       "current",
			Subject:      patientRef,
			Context:      &DocumentContext{Encounter: []Reference{*encounterRef}},
			Content: []Content{{Attachment: Attachment{
				ContentType: "text/plain",
				Data:        transcript,
			}}},
		}})
	}

	return bundle
}

// dosageFor flattens a prescription's structured fields into one free-text
// dosage instruction, skipping absent parts
func dosageFor(med entities.PrescribedMedication) []Dosage {
	var parts []string
	for _, p := range []*string{med.Dose, med.Route, med.Frequency, med.Duration} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return []Dosage{{Text: strings.Join(parts, " ")}}
}

// requestPriority maps task urgency onto the FHIR request priority value set
func requestPriority(u entities.Urgency) string {
	switch u {
	case entities.UrgencyStat:
		return "stat"
	case entities.UrgencyUrgent:
		return "urgent"
	default:
		return "routine"
	}
}

// sanitizeID reduces an arbitrary string to the FHIR id character set,
// replacing runs of other characters with a single dash
func sanitizeID(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
