// Package server provides HTTP handlers and server setup for the analysis
// pipeline.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"topikai/internal/core"
	"topikai/internal/objstore"
	"topikai/internal/version"
)

// Pipeline is the slice of the analysis service the HTTP layer invokes.
type Pipeline interface {
	AnalyzeQuestion(ctx context.Context, req core.QuestionRequest) (*core.QuestionAnalysis, error)
	AnalyzeSentence(ctx context.Context, req core.SentenceRequest) (*core.SentenceAnalysis, error)
	GenerateTranscript(ctx context.Context, req core.TranscriptRequest) (*core.Transcript, error)
	GetCachedTranscript(ctx context.Context, episodeID string) (*core.Transcript, error)
	InvalidateTranscript(ctx context.Context, episodeID string) error
}

// Handler holds the HTTP handlers
type Handler struct {
	pipeline Pipeline
}

// NewHandler creates a new handler backed by the given pipeline
func NewHandler(pipeline Pipeline) *Handler {
	return &Handler{
		pipeline: pipeline,
	}
}

// AnalyzeQuestion handles POST /v1/analysis/question
func (h *Handler) AnalyzeQuestion(c echo.Context) error {
	var req core.QuestionRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	resp, err := h.pipeline.AnalyzeQuestion(c.Request().Context(), req)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// AnalyzeSentence handles POST /v1/analysis/sentence
func (h *Handler) AnalyzeSentence(c echo.Context) error {
	var req core.SentenceRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	resp, err := h.pipeline.AnalyzeSentence(c.Request().Context(), req)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// GenerateTranscript handles POST /v1/transcripts
func (h *Handler) GenerateTranscript(c echo.Context) error {
	var req core.TranscriptRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	resp, err := h.pipeline.GenerateTranscript(c.Request().Context(), req)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// GetTranscript handles GET /v1/transcripts/:episodeID
func (h *Handler) GetTranscript(c echo.Context) error {
	resp, err := h.pipeline.GetCachedTranscript(c.Request().Context(), c.Param("episodeID"))
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"error": map[string]interface{}{
					"type":    "not_found",
					"message": "no transcript stored for this episode",
				},
			})
		}
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// DeleteTranscript handles DELETE /v1/transcripts/:episodeID
func (h *Handler) DeleteTranscript(c echo.Context) error {
	if err := h.pipeline.InvalidateTranscript(c.Request().Context(), c.Param("episodeID")); err != nil {
		return handleError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleError converts pipeline errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var pipelineErr *core.PipelineError
	if errors.As(err, &pipelineErr) {
		return c.JSON(pipelineErr.HTTPStatusCode(), pipelineErr.ToJSON())
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
