package analysis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
	"github.com/YingY4ang/Transcriber/internal/domain/providers"
)

// Orchestrator runs the structured-extraction stage. It makes exactly one
// model call per transcript and always returns a usable artifact: when the
// call fails, times out, or returns unparseable output, the result is the
// low-confidence fallback artifact rather than an error. Model calls are
// never retried, whatever the failure.
type Orchestrator struct {
	model  providers.ExtractionModel
	logger zerolog.Logger
	now    func() time.Time
}

// NewOrchestrator creates an extraction orchestrator
func NewOrchestrator(model providers.ExtractionModel, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		model:  model,
		logger: logger.With().Str("component", "extraction_orchestrator").Logger(),
		now:    time.Now,
	}
}

// Extract turns a transcript into a consultation artifact. The returned
// artifact is always schema-valid; callers never see an error from this
// stage.
func (o *Orchestrator) Extract(ctx context.Context, consultationID, transcript string) *entities.ConsultationArtifact {
	prompt := BuildExtractionPrompt(transcript)

	response, err := o.model.Complete(ctx, prompt)
	if err != nil {
		o.logger.Warn().
			Err(err).
			Str("consultation_id", consultationID).
			Msg("Extraction model call failed, using fallback artifact")
		return o.fallback(consultationID, len(transcript), err.Error())
	}

	artifact, err := o.parseArtifact(response)
	if err != nil {
		o.logger.Warn().
			Err(err).
			Str("consultation_id", consultationID).
			Int("response_length", len(response)).
			Msg("Extraction response unusable, using fallback artifact")
		return o.fallback(consultationID, len(transcript), err.Error())
	}

	o.stamp(artifact, consultationID, len(transcript))
	artifact.Normalize()

	if err := artifact.Validate(); err != nil {
		o.logger.Warn().
			Err(err).
			Str("consultation_id", consultationID).
			Msg("Extracted artifact failed validation, using fallback artifact")
		return o.fallback(consultationID, len(transcript), err.Error())
	}

	o.logger.Info().
		Str("consultation_id", consultationID).
		Int("task_count", len(artifact.FollowUpTasks)).
		Str("confidence", string(artifact.ClinicalSafety.ConfidenceLevel)).
		Msg("Extraction complete")
	return artifact
}

// parseArtifact locates the first complete JSON object in the model's raw
// response and decodes it. Models occasionally wrap the object in prose or
// code fences; everything outside the outermost braces is ignored.
func (o *Orchestrator) parseArtifact(response string) (*entities.ConsultationArtifact, error) {
	raw, err := firstJSONObject(response)
	if err != nil {
		return nil, err
	}
	var artifact entities.ConsultationArtifact
	if err := json.Unmarshal([]byte(raw), &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// stamp overwrites the provenance fields the model is not trusted to set
func (o *Orchestrator) stamp(artifact *entities.ConsultationArtifact, consultationID string, transcriptLength int) {
	artifact.Metadata.ConsultationID = consultationID
	artifact.ExtractionMetadata.ExtractionTimestamp = o.now().UTC().Format(time.RFC3339)
	artifact.ExtractionMetadata.ModelUsed = o.model.ModelID()
	artifact.ExtractionMetadata.TranscriptLength = transcriptLength
}

func (o *Orchestrator) fallback(consultationID string, transcriptLength int, reason string) *entities.ConsultationArtifact {
	return entities.NewFallbackArtifact(consultationID, o.model.ModelID(), transcriptLength, reason, o.now())
}

// firstJSONObject returns the substring spanning the first balanced top-level
// JSON object in s. Braces inside string literals are skipped.
func firstJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", errNoJSONObject
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errUnterminatedJSON
}

var (
	errNoJSONObject     = jsonScanError("no JSON object found in model response")
	errUnterminatedJSON = jsonScanError("unterminated JSON object in model response")
)

type jsonScanError string

func (e jsonScanError) Error() string { return string(e) }
