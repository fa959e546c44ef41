package providers

import "context"

// ExtractionModel is the structured-extraction model behind the orchestrator.
// Implementations perform exactly the one network call they are asked for;
// retrying is forbidden everywhere in the extraction path.
type ExtractionModel interface {
	// Complete sends a single-turn instruction and returns the model's raw
	// free-text response.
	Complete(ctx context.Context, prompt string) (string, error)

	// ModelID identifies the model for provenance stamping
	ModelID() string
}
