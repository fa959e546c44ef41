package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/YingY4ang/Transcriber/internal/domain/providers"
)

// AudioPreprocessor trims silence from a local audio file before
// transcription, returning the path to use. Implementations must fall back
// to the input path on any failure.
type AudioPreprocessor interface {
	Trim(path string) string
}

// TranscriptionStage turns a downloaded audio file into a transcript,
// optionally trimming silence first. Transcription failures are fatal to the
// job; preprocessing failures never are.
type TranscriptionStage struct {
	transcriber providers.Transcriber
	preprocess  AudioPreprocessor
	logger      zerolog.Logger
}

// NewTranscriptionStage creates a transcription stage. preprocess may be nil
// to transcribe the raw audio directly.
func NewTranscriptionStage(transcriber providers.Transcriber, preprocess AudioPreprocessor, logger zerolog.Logger) *TranscriptionStage {
	return &TranscriptionStage{
		transcriber: transcriber,
		preprocess:  preprocess,
		logger:      logger.With().Str("component", "transcription_stage").Logger(),
	}
}

// Transcribe returns the transcript for a local audio file
func (s *TranscriptionStage) Transcribe(ctx context.Context, audioPath string) (string, error) {
	path := audioPath
	if s.preprocess != nil {
		path = s.preprocess.Trim(audioPath)
	}

	transcript, err := s.transcriber.Transcribe(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	// An empty transcript is a valid outcome: silent or unintelligible audio
	// still flows through the rest of the pipeline.

	s.logger.Debug().
		Str("path", path).
		Int("transcript_length", len(transcript)).
		Msg("Transcription complete")
	return transcript, nil
}
