package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildExtractionPrompt_Deterministic(t *testing.T) {
	transcript := "Doctor: How are you feeling today?"

	first := BuildExtractionPrompt(transcript)
	second := BuildExtractionPrompt(transcript)

	assert.Equal(t, first, second)
}

func TestBuildExtractionPrompt_EmbedsTranscriptAndSchema(t *testing.T) {
	transcript := "Patient complains of severe headache since Tuesday."

	prompt := BuildExtractionPrompt(transcript)

	assert.Contains(t, prompt, transcript)
	assert.Contains(t, prompt, `"version": "2.0"`)
	assert.Contains(t, prompt, `"follow_up_tasks"`)
	assert.Contains(t, prompt, `"required_inputs"`)
	assert.Contains(t, prompt, `"handover"`)
	assert.Contains(t, prompt, "Return ONLY the JSON object")
}
