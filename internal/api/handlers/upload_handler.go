package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/YingY4ang/Transcriber/internal/domain/providers"
)

// UploadHandler handles the audio intake flow: minting upload keys, writing
// the uploaded object, and enqueueing the processing job once the client
// confirms the upload.
type UploadHandler struct {
	store     providers.ObjectStore
	queue     providers.JobQueue
	bucket    string
	publicURL string
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(store providers.ObjectStore, queue providers.JobQueue, bucket, publicURL string) *UploadHandler {
	return &UploadHandler{
		store:     store,
		queue:     queue,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// GetUploadURL handles GET /get-upload-url?patientId=X
//
// The minted key encodes the patient id as the filename prefix before the
// first underscore; the worker recovers it from there.
func (h *UploadHandler) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	patientID := sanitizePatientID(r.URL.Query().Get("patientId"))

	key := fmt.Sprintf("uploads/%s_%s.webm", patientID, uuid.NewString())
	respondWithJSON(w, http.StatusOK, map[string]string{
		"upload_url": h.publicURL + "/upload/" + escapeKey(key),
		"key":        key,
	})
}

// Upload handles PUT /upload/{key...}
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		respondWithError(w, http.StatusBadRequest, "object key is required")
		return
	}

	if err := h.store.Put(r.Context(), h.bucket, key, r.Body); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "uploaded",
		"key":    key,
	})
}

type uploadCompleteRequest struct {
	Key string `json:"key"`
}

// UploadComplete handles POST /upload-complete, enqueueing the processing job
func (h *UploadHandler) UploadComplete(w http.ResponseWriter, r *http.Request) {
	var payload uploadCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.Key == "" {
		respondWithError(w, http.StatusBadRequest, "key required")
		return
	}

	msg := &providers.JobMessage{
		Bucket:    h.bucket,
		ObjectKey: payload.Key,
	}
	if err := h.queue.Enqueue(r.Context(), msg); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to trigger processing")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "processing triggered",
	})
}

// sanitizePatientID strips characters that would break the key convention:
// underscores delimit the patient id, slashes delimit path segments.
func sanitizePatientID(patientID string) string {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return "unknown"
	}

	var b strings.Builder
	for _, r := range patientID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

// escapeKey escapes each key segment for use in a URL path while keeping the
// slashes that separate them
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
