package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"topikai/internal/core"
)

// stripCodeFence unwraps a markdown-fenced block ("```json ... ```") if
// the model ignored the JSON response mode. Anything else passes through.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop the language hint on the opening fence line.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// checkShape verifies the raw text is valid JSON carrying every required
// top-level field. This runs before the typed unmarshal so error messages
// can name exactly what the model got wrong.
func checkShape(raw string, required ...string) error {
	if !gjson.Valid(raw) {
		return fmt.Errorf("response is not valid JSON")
	}
	for _, field := range required {
		if !gjson.Get(raw, field).Exists() {
			return fmt.Errorf("response is missing required field %q", field)
		}
	}
	return nil
}

func parseQuestionAnalysis(raw string) (*core.QuestionAnalysis, error) {
	raw = stripCodeFence(raw)
	if err := checkShape(raw, "translation", "keyPoint", "analysis", "wrongOptions"); err != nil {
		return nil, core.NewModelResponseError(err.Error(), nil)
	}

	var out core.QuestionAnalysis
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, core.NewModelResponseError("response does not match the question analysis shape", err)
	}
	return &out, nil
}

func parseSentenceAnalysis(raw string) (*core.SentenceAnalysis, error) {
	raw = stripCodeFence(raw)
	if err := checkShape(raw, "vocabulary", "grammar", "nuance"); err != nil {
		return nil, core.NewModelResponseError(err.Error(), nil)
	}
	if !gjson.Get(raw, "vocabulary").IsArray() {
		return nil, core.NewModelResponseError(`"vocabulary" must be an array`, nil)
	}
	if !gjson.Get(raw, "grammar").IsArray() {
		return nil, core.NewModelResponseError(`"grammar" must be an array`, nil)
	}

	var out core.SentenceAnalysis
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, core.NewModelResponseError("response does not match the sentence analysis shape", err)
	}
	return &out, nil
}

func parseTranscript(raw string) (*core.Transcript, error) {
	raw = stripCodeFence(raw)
	if err := checkShape(raw, "segments", "language"); err != nil {
		return nil, core.NewModelResponseError(err.Error(), nil)
	}
	if !gjson.Get(raw, "segments").IsArray() {
		return nil, core.NewModelResponseError(`"segments" must be an array`, nil)
	}

	var out core.Transcript
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, core.NewModelResponseError("response does not match the transcript shape", err)
	}
	if err := out.Validate(); err != nil {
		return nil, core.NewModelResponseError(fmt.Sprintf("transcript segments are inconsistent: %v", err), nil)
	}
	return &out, nil
}
