package providers

import "context"

// Transcriber wraps the speech-to-text service. A failed transcription is
// fatal to the job; there is no fallback transcript.
type Transcriber interface {
	// Transcribe converts a local audio file into a transcript string
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
