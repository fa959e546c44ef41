package pipeline

import (
	"encoding/json"
	"time"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
)

// BuildResultRecord merges a job's outputs into the persisted record. Pure
// assembly: every field is copied or derived from the inputs, including the
// flattened legacy projection and the denormalized task counters.
func BuildResultRecord(
	audioKey, patientID, transcript string,
	artifact *entities.ConsultationArtifact,
	fhirBundle json.RawMessage,
	reportKey *string,
	now time.Time,
) *entities.ResultRecord {
	record := &entities.ResultRecord{
		AudioKey:  audioKey,
		PatientID: patientID,
		Timestamp: now.Unix(),

		ConsultationTimestamp: artifact.Metadata.Timestamp,
		SettingType:           artifact.Metadata.SettingType,
		Specialty:             artifact.Metadata.Specialty,
		EncounterType:         artifact.Metadata.EncounterType,

		Transcript: transcript,
		Artifact:   *artifact,

		FollowUpTasks: artifact.FollowUpTasks,

		PrimaryDiagnosis: artifact.SOAPNotes.Assessment.PrimaryDiagnosis,
		ChiefComplaint:   artifact.SOAPNotes.Subjective.ChiefComplaint,

		FHIRBundle:      fhirBundle,
		ReportKey:       reportKey,
		ReportAvailable: reportKey != nil,

		ArtifactVersion: artifact.Version,
	}

	record.Diagnosis, record.Medications, record.Tasks, record.FollowUp,
		record.Notes, record.VitalSigns, record.Symptoms = entities.LegacyProjection(artifact)

	record.RecomputeTaskCounters()
	return record
}
