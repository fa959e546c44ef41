package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
	"github.com/YingY4ang/Transcriber/internal/domain/providers"
	"github.com/YingY4ang/Transcriber/internal/domain/repositories"
	"github.com/YingY4ang/Transcriber/pkg/errors"
)

// ResultHandler serves processed consultation results and their derived
// artifacts.
type ResultHandler struct {
	repo          repositories.ConsultationRepository
	store         providers.ObjectStore
	reportsBucket string
	publicURL     string
	sseURL        string
}

// NewResultHandler creates a new result handler
func NewResultHandler(repo repositories.ConsultationRepository, store providers.ObjectStore, reportsBucket, publicURL, sseURL string) *ResultHandler {
	return &ResultHandler{
		repo:          repo,
		store:         store,
		reportsBucket: reportsBucket,
		publicURL:     strings.TrimRight(publicURL, "/"),
		sseURL:        strings.TrimRight(sseURL, "/"),
	}
}

type taskSummary struct {
	TaskID      string              `json:"task_id"`
	Description string              `json:"description"`
	Urgency     entities.Urgency    `json:"urgency"`
	OwnerRole   *string             `json:"owner_role"`
	DueAt       *string             `json:"due_at"`
	Status      entities.TaskStatus `json:"status"`
	Details     entities.Task       `json:"details"`
}

type pdfButton struct {
	Type      string  `json:"type"`
	Label     string  `json:"label"`
	URL       *string `json:"url"`
	Available bool    `json:"available"`
}

type tasksButton struct {
	Type        string        `json:"type"`
	Label       string        `json:"label"`
	Count       int           `json:"count"`
	UrgentCount int           `json:"urgent_count"`
	Tasks       []taskSummary `json:"tasks"`
}

type jsonButton struct {
	Type  string         `json:"type"`
	Label string         `json:"label"`
	Data  jsonButtonData `json:"data"`
}

type jsonButtonData struct {
	Transcript string                         `json:"transcript"`
	Artifact   *entities.ConsultationArtifact `json:"consultation_artifact"`
	FHIRBundle json.RawMessage                `json:"fhir_bundle,omitempty"`
	Metadata   resultMetadata                 `json:"metadata"`
}

type resultMetadata struct {
	AudioKey      string  `json:"audio_key"`
	PatientID     string  `json:"patient_id"`
	Timestamp     int64   `json:"timestamp"`
	SettingType   *string `json:"setting_type"`
	Specialty     *string `json:"specialty"`
	EncounterType *string `json:"encounter_type"`
}

type resultResponse struct {
	Status  string `json:"status"`
	Buttons []any  `json:"buttons"`
}

// GetResult handles GET /result/{key...}
//
// Absent records answer 404 with a processing status so clients can poll the
// same URL from upload until completion. Current-format records are served in
// the three-button shape; legacy records keep their original flat shape.
func (h *ResultHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		respondWithError(w, http.StatusBadRequest, "result key is required")
		return
	}

	record, err := h.repo.GetByKey(r.Context(), key)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			respondWithJSON(w, http.StatusNotFound, map[string]string{"status": "processing"})
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to load result")
		return
	}

	if !record.IsCurrentFormat() {
		respondWithJSON(w, http.StatusOK, record)
		return
	}

	respondWithJSON(w, http.StatusOK, h.buildResultResponse(record))
}

func (h *ResultHandler) buildResultResponse(record *entities.ResultRecord) resultResponse {
	pdf := pdfButton{
		Type:      "pdf",
		Label:     "Download PDF",
		Available: record.ReportAvailable,
	}
	if record.ReportAvailable {
		url := h.publicURL + "/report/" + escapeKey(record.AudioKey)
		pdf.URL = &url
	}

	tasks := make([]taskSummary, 0, len(record.FollowUpTasks))
	for _, task := range record.FollowUpTasks {
		tasks = append(tasks, taskSummary{
			TaskID:      task.TaskID,
			Description: task.Description,
			Urgency:     task.Urgency,
			OwnerRole:   task.OwnerRole,
			DueAt:       task.DueAt,
			Status:      task.Status,
			Details:     task,
		})
	}

	return resultResponse{
		Status: "completed",
		Buttons: []any{
			pdf,
			tasksButton{
				Type:        "tasks",
				Label:       "Follow-up Tasks",
				Count:       len(tasks),
				UrgentCount: record.UrgentTaskCount,
				Tasks:       tasks,
			},
			jsonButton{
				Type:  "json",
				Label: "Full JSON",
				Data: jsonButtonData{
					Transcript: record.Transcript,
					Artifact:   &record.Artifact,
					FHIRBundle: record.FHIRBundle,
					Metadata: resultMetadata{
						AudioKey:      record.AudioKey,
						PatientID:     record.PatientID,
						Timestamp:     record.Timestamp,
						SettingType:   record.SettingType,
						Specialty:     record.Specialty,
						EncounterType: record.EncounterType,
					},
				},
			},
		},
	}
}

// GetReport handles GET /report/{key...}, serving the rendered PDF for a
// completed consultation
func (h *ResultHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		respondWithError(w, http.StatusBadRequest, "result key is required")
		return
	}

	record, err := h.repo.GetByKey(r.Context(), key)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			respondWithJSON(w, http.StatusNotFound, map[string]string{"status": "processing"})
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to load result")
		return
	}
	if !record.ReportAvailable || record.ReportKey == nil {
		respondWithError(w, http.StatusNotFound, "no report available for this consultation")
		return
	}

	tmp, err := os.CreateTemp("", "report-*.pdf")
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to fetch report")
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := h.store.Download(r.Context(), h.reportsBucket, *record.ReportKey, tmpPath); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to fetch report")
		return
	}

	filename := strings.TrimSuffix(filepath.Base(record.AudioKey), filepath.Ext(record.AudioKey)) + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeFile(w, r, tmpPath)
}

// GetConfig handles GET /config, telling clients where to reach the
// notification stream
func (h *ResultHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"sseUrl": h.sseURL,
	})
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
