package gemini

import (
	"context"
	"log/slog"
	"time"

	"topikai/internal/core"
	"topikai/internal/media"
)

// AnalyzeQuestion asks the model to analyze an exam question. img may be
// nil, in which case the prompt makes no reference to an image.
func (c *Client) AnalyzeQuestion(ctx context.Context, req core.QuestionRequest, img *media.Buffer) (*core.QuestionAnalysis, error) {
	start := time.Now()
	raw, err := c.generate(ctx, buildRequest(questionPrompt(req, img != nil), img), c.textTimeout)
	if err != nil {
		return nil, err
	}
	c.logCall("question", start)
	return parseQuestionAnalysis(raw)
}

// AnalyzeSentence asks the model to break down a Korean sentence.
func (c *Client) AnalyzeSentence(ctx context.Context, req core.SentenceRequest) (*core.SentenceAnalysis, error) {
	start := time.Now()
	raw, err := c.generate(ctx, buildRequest(sentencePrompt(req), nil), c.textTimeout)
	if err != nil {
		return nil, err
	}
	c.logCall("sentence", start)
	return parseSentenceAnalysis(raw)
}

// Transcribe asks the model for a time-aligned transcript of the attached
// audio. The audio buffer is required.
func (c *Client) Transcribe(ctx context.Context, language string, audio *media.Buffer) (*core.Transcript, error) {
	if audio == nil {
		return nil, core.NewValidationError("transcription requires an audio payload")
	}

	start := time.Now()
	raw, err := c.generate(ctx, buildRequest(transcriptPrompt(language), audio), c.audioTimeout)
	if err != nil {
		return nil, err
	}
	c.logCall("transcript", start)
	return parseTranscript(raw)
}

func (c *Client) logCall(kind string, start time.Time) {
	slog.Debug("model call completed",
		"kind", kind,
		"model", c.model,
		"took", time.Since(start).Round(time.Millisecond),
	)
}
