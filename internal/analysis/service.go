// Package analysis implements the cache-aside pipeline around the model:
// look up a fingerprinted result in the in-process cache, then in the durable
// object store, and only invoke the model on a full miss. Results are written
// back to both tiers so identical requests never pay for a second model call.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"topikai/internal/cache"
	"topikai/internal/core"
	"topikai/internal/media"
	"topikai/internal/objstore"
	"topikai/internal/observability"
)

// Object key namespaces. Keys under ai-cache/ are content-addressed by
// request fingerprint; transcripts are addressed by episode identifier.
const (
	questionNamespace   = "ai-cache/topik"
	sentenceNamespace   = "ai-cache/sentence"
	transcriptNamespace = "transcripts"
)

// Cache tier labels for metrics.
const (
	tierLocal = "local"
	tierStore = "store"
)

func questionKey(hash string) string { return questionNamespace + "/" + hash + ".json" }

func sentenceKey(hash string) string { return sentenceNamespace + "/" + hash + ".json" }

func transcriptKey(episodeID string) string { return transcriptNamespace + "/" + episodeID + ".json" }

// ModelClient is the slice of the model provider the pipeline invokes.
type ModelClient interface {
	AnalyzeQuestion(ctx context.Context, req core.QuestionRequest, img *media.Buffer) (*core.QuestionAnalysis, error)
	AnalyzeSentence(ctx context.Context, req core.SentenceRequest) (*core.SentenceAnalysis, error)
	Transcribe(ctx context.Context, language string, audio *media.Buffer) (*core.Transcript, error)
}

// MediaFetcher downloads remote audio and image payloads.
type MediaFetcher interface {
	FetchAudio(ctx context.Context, rawURL string) (*media.Buffer, error)
	FetchImage(ctx context.Context, rawURL string) (*media.Buffer, error)
}

// AudioTranscoder shrinks oversized audio before model submission.
type AudioTranscoder interface {
	Process(ctx context.Context, in *media.Buffer) (*media.Buffer, error)
}

// Service orchestrates fingerprinting, the two cache tiers, media ingestion
// and model invocation. Concurrent identical requests are collapsed into a
// single computation.
type Service struct {
	store      objstore.Store
	local      *cache.ResultCache
	model      ModelClient
	fetcher    MediaFetcher
	transcoder AudioTranscoder
	group      singleflight.Group
}

func NewService(store objstore.Store, local *cache.ResultCache, model ModelClient, fetcher MediaFetcher, transcoder AudioTranscoder) *Service {
	return &Service{
		store:      store,
		local:      local,
		model:      model,
		fetcher:    fetcher,
		transcoder: transcoder,
	}
}

// flightResult carries a computed value out of a singleflight call together
// with whether it was served from the durable store.
type flightResult struct {
	value     any
	fromCache bool
}

// storeGet reads key from the durable store into out. Backend failures
// degrade to a miss: the pipeline recomputes rather than failing the request.
func (s *Service) storeGet(ctx context.Context, key string, out any) bool {
	err := s.store.GetJSON(ctx, key, out)
	if err == nil {
		return true
	}
	if !errors.Is(err, objstore.ErrNotFound) {
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		observability.PipelineErrorsTotal.WithLabelValues(string(core.ErrorTypeCacheBackend)).Inc()
	}
	return false
}

// storePut writes value under key. Failures are logged and swallowed; a
// successful computation is never failed by a cache write.
func (s *Service) storePut(ctx context.Context, key string, value any) {
	if err := s.store.PutJSON(ctx, key, value); err != nil {
		slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
		observability.PipelineErrorsTotal.WithLabelValues(string(core.ErrorTypeCacheBackend)).Inc()
	}
}

// observeModel records latency and outcome of one model invocation.
func observeModel(kind string, start time.Time, err error) {
	observability.ModelCallSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.ModelCallsTotal.WithLabelValues(kind, outcome).Inc()
}

// countError increments the pipeline error counter for err and returns it.
func countError(err error) error {
	if err == nil {
		return nil
	}
	errType := string(core.TypeOf(err))
	if errType == "" {
		errType = "internal"
	}
	observability.PipelineErrorsTotal.WithLabelValues(errType).Inc()
	return err
}
