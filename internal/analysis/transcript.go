package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"topikai/internal/core"
	"topikai/internal/objstore"
	"topikai/internal/observability"
)

// GenerateTranscript returns the transcript for an episode, producing it from
// the remote audio on first request. The operation is idempotent: once a
// transcript is stored, later calls return it without touching the audio.
func (s *Service) GenerateTranscript(ctx context.Context, req core.TranscriptRequest) (*core.Transcript, error) {
	if err := req.Validate(); err != nil {
		return nil, countError(err)
	}
	key := transcriptKey(req.EpisodeID)

	if v, ok := s.local.Get(key); ok {
		observability.CacheHitsTotal.WithLabelValues(tierLocal, transcriptNamespace).Inc()
		out := *(v.(*core.Transcript))
		out.Cached = true
		return &out, nil
	}
	observability.CacheMissesTotal.WithLabelValues(tierLocal, transcriptNamespace).Inc()

	v, err, _ := s.group.Do(key, func() (any, error) {
		transcript, fromCache, err := s.computeTranscript(ctx, req, key)
		if err != nil {
			return nil, err
		}
		return flightResult{transcript, fromCache}, nil
	})
	if err != nil {
		return nil, countError(err)
	}

	fr := v.(flightResult)
	out := *(fr.value.(*core.Transcript))
	out.Cached = fr.fromCache
	return &out, nil
}

func (s *Service) computeTranscript(ctx context.Context, req core.TranscriptRequest, key string) (*core.Transcript, bool, error) {
	var stored core.Transcript
	if s.storeGet(ctx, key, &stored) {
		observability.CacheHitsTotal.WithLabelValues(tierStore, transcriptNamespace).Inc()
		stored.Cached = false
		s.local.Set(key, &stored)
		return &stored, true, nil
	}
	observability.CacheMissesTotal.WithLabelValues(tierStore, transcriptNamespace).Inc()

	audio, err := s.fetcher.FetchAudio(ctx, req.AudioURL)
	if err != nil {
		return nil, false, err
	}
	observability.MediaDownloadBytes.WithLabelValues("audio").Add(float64(audio.Size()))

	processed, err := s.transcoder.Process(ctx, audio)
	if err != nil {
		return nil, false, err
	}
	if processed != audio {
		observability.TranscodesTotal.Inc()
	}

	start := time.Now()
	transcript, err := s.model.Transcribe(ctx, req.Language, processed)
	observeModel("transcript", start, err)
	if err != nil {
		return nil, false, err
	}

	s.storePut(ctx, key, transcript)
	s.local.Set(key, transcript)
	slog.InfoContext(ctx, "transcript generated",
		"episodeId", req.EpisodeID,
		"segments", len(transcript.Segments),
		"audioSize", humanize.Bytes(uint64(processed.Size())),
		"took", time.Since(start).Round(time.Millisecond).String(),
	)
	return transcript, false, nil
}

// GetCachedTranscript returns the stored transcript for an episode without
// ever triggering generation. Absence is reported as objstore.ErrNotFound.
func (s *Service) GetCachedTranscript(ctx context.Context, episodeID string) (*core.Transcript, error) {
	if err := core.ValidateEpisodeID(episodeID); err != nil {
		return nil, countError(err)
	}
	key := transcriptKey(episodeID)

	if v, ok := s.local.Get(key); ok {
		observability.CacheHitsTotal.WithLabelValues(tierLocal, transcriptNamespace).Inc()
		out := *(v.(*core.Transcript))
		out.Cached = true
		return &out, nil
	}
	observability.CacheMissesTotal.WithLabelValues(tierLocal, transcriptNamespace).Inc()

	var stored core.Transcript
	if !s.storeGet(ctx, key, &stored) {
		observability.CacheMissesTotal.WithLabelValues(tierStore, transcriptNamespace).Inc()
		return nil, objstore.ErrNotFound
	}
	observability.CacheHitsTotal.WithLabelValues(tierStore, transcriptNamespace).Inc()

	stored.Cached = false
	s.local.Set(key, &stored)
	out := stored
	out.Cached = true
	return &out, nil
}

// InvalidateTranscript removes an episode's transcript from both cache
// tiers, forcing the next GenerateTranscript to start from the audio.
func (s *Service) InvalidateTranscript(ctx context.Context, episodeID string) error {
	if err := core.ValidateEpisodeID(episodeID); err != nil {
		return countError(err)
	}
	key := transcriptKey(episodeID)

	s.local.Delete(key)
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, objstore.ErrNotFound) {
		return countError(core.NewCacheBackendError("transcript invalidation failed", err))
	}
	slog.InfoContext(ctx, "transcript invalidated", "episodeId", episodeID)
	return nil
}
