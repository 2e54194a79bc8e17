package core

import "fmt"

// RequestKind discriminates the three pipeline request families.
type RequestKind string

const (
	KindQuestion   RequestKind = "question"
	KindSentence   RequestKind = "sentence"
	KindTranscript RequestKind = "transcript"
)

// QuestionRequest is an exam-question analysis request.
type QuestionRequest struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Type               string   `json:"type,omitempty"`
	ImageURL           string   `json:"imageUrl,omitempty"`
	Language           string   `json:"language"`
}

// Validate checks the request fields before any cache or model work happens.
func (r *QuestionRequest) Validate() error {
	if r.Question == "" {
		return NewValidationError("question must not be empty")
	}
	if len(r.Options) < 2 {
		return NewValidationError("at least two answer options are required")
	}
	if r.CorrectAnswerIndex < 0 || r.CorrectAnswerIndex >= len(r.Options) {
		return NewValidationError(fmt.Sprintf("correctAnswerIndex %d out of range for %d options", r.CorrectAnswerIndex, len(r.Options)))
	}
	if r.Language == "" {
		return NewValidationError("language must not be empty")
	}
	return nil
}

// SentenceRequest is a free-text sentence analysis request.
type SentenceRequest struct {
	Sentence string `json:"sentence"`
	Context  string `json:"context,omitempty"`
	Language string `json:"language"`
}

func (r *SentenceRequest) Validate() error {
	if r.Sentence == "" {
		return NewValidationError("sentence must not be empty")
	}
	if r.Language == "" {
		return NewValidationError("language must not be empty")
	}
	return nil
}

// TranscriptRequest asks for a time-aligned transcript of a remote audio file.
type TranscriptRequest struct {
	AudioURL  string `json:"audioUrl"`
	EpisodeID string `json:"episodeId"`
	Language  string `json:"language"`
}

func (r *TranscriptRequest) Validate() error {
	if r.AudioURL == "" {
		return NewValidationError("audioUrl must not be empty")
	}
	if err := ValidateEpisodeID(r.EpisodeID); err != nil {
		return err
	}
	if r.Language == "" {
		return NewValidationError("language must not be empty")
	}
	return nil
}

// ValidateEpisodeID rejects identifiers that cannot be embedded in an object
// key. Transcripts are stored under "transcripts/{episodeId}.json", so the
// identifier must not contain path separators or whitespace.
func ValidateEpisodeID(id string) error {
	if id == "" {
		return NewValidationError("episodeId must not be empty")
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return NewValidationError(fmt.Sprintf("episodeId contains invalid character %q", r))
		}
	}
	return nil
}

// QuestionAnalysis is the model's structured answer for an exam question.
// Cached reports whether the payload was served from a cache tier rather
// than a fresh model call; it is always stored as false and flipped by the
// orchestrator on cache hits.
type QuestionAnalysis struct {
	Translation  string         `json:"translation"`
	KeyPoint     string         `json:"keyPoint"`
	Analysis     string         `json:"analysis"`
	WrongOptions map[int]string `json:"wrongOptions"`
	Cached       bool           `json:"cached"`
}

// VocabularyItem is one dictionary entry in a sentence analysis.
type VocabularyItem struct {
	Word         string `json:"word"`
	Root         string `json:"root"`
	Meaning      string `json:"meaning"`
	PartOfSpeech string `json:"partOfSpeech"`
}

// GrammarPoint explains one grammatical structure found in a sentence.
type GrammarPoint struct {
	Structure   string `json:"structure"`
	Explanation string `json:"explanation"`
}

// SentenceAnalysis is the model's structured breakdown of a free sentence.
type SentenceAnalysis struct {
	Vocabulary []VocabularyItem `json:"vocabulary"`
	Grammar    []GrammarPoint   `json:"grammar"`
	Nuance     string           `json:"nuance"`
	Cached     bool             `json:"cached"`
}

// TranscriptSegment is one time-aligned line of a transcript.
type TranscriptSegment struct {
	StartSeconds float64 `json:"startSeconds"`
	EndSeconds   float64 `json:"endSeconds"`
	Text         string  `json:"text"`
	Translation  string  `json:"translation"`
}

// Transcript is the model's time-aligned transcription of an audio episode.
type Transcript struct {
	Segments        []TranscriptSegment `json:"segments"`
	Language        string              `json:"language"`
	DurationSeconds float64             `json:"durationSeconds,omitempty"`
	Cached          bool                `json:"cached"`
}

// Validate enforces the segment ordering invariant: segments must be
// non-overlapping and non-decreasing in start time. Returns a plain error;
// callers wrap it in the appropriate PipelineError.
func (t *Transcript) Validate() error {
	prevEnd := 0.0
	for i, seg := range t.Segments {
		if seg.StartSeconds < 0 {
			return fmt.Errorf("segment %d has negative start %.3f", i, seg.StartSeconds)
		}
		if seg.EndSeconds < seg.StartSeconds {
			return fmt.Errorf("segment %d ends (%.3f) before it starts (%.3f)", i, seg.EndSeconds, seg.StartSeconds)
		}
		if seg.StartSeconds < prevEnd {
			return fmt.Errorf("segment %d overlaps previous segment (start %.3f < previous end %.3f)", i, seg.StartSeconds, prevEnd)
		}
		prevEnd = seg.EndSeconds
	}
	return nil
}
