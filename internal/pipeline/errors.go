package pipeline

import "errors"

// Stage failure sentinels. Each stage of a job maps onto exactly one of
// these, and the dispatcher branches on them to decide whether the job is
// acknowledged, retried, or completed in degraded form.
var (
	// ErrSourceMissing means the audio object no longer exists; the job is a
	// duplicate delivery and is acknowledged without work
	ErrSourceMissing = errors.New("source audio object missing")

	// ErrTranscription means speech-to-text failed; the job is left on the
	// queue for redelivery and nothing is persisted
	ErrTranscription = errors.New("transcription failed")

	// ErrRender means PDF generation failed; the job completes without a report
	ErrRender = errors.New("report rendering failed")

	// ErrPersist means the result record could not be saved; the job is still
	// acknowledged to avoid reprocessing a consumed source object
	ErrPersist = errors.New("result persistence failed")
)
