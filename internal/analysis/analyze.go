package analysis

import (
	"context"
	"log/slog"
	"time"

	"topikai/internal/core"
	"topikai/internal/fingerprint"
	"topikai/internal/media"
	"topikai/internal/observability"
)

// AnalyzeQuestion explains a TOPIK exam question in the learner's language.
// Identical requests hash to the same cache key; only the first computes.
func (s *Service) AnalyzeQuestion(ctx context.Context, req core.QuestionRequest) (*core.QuestionAnalysis, error) {
	if err := req.Validate(); err != nil {
		return nil, countError(err)
	}
	key := questionKey(fingerprint.Question(req))

	if v, ok := s.local.Get(key); ok {
		observability.CacheHitsTotal.WithLabelValues(tierLocal, questionNamespace).Inc()
		out := *(v.(*core.QuestionAnalysis))
		out.Cached = true
		return &out, nil
	}
	observability.CacheMissesTotal.WithLabelValues(tierLocal, questionNamespace).Inc()

	v, err, _ := s.group.Do(key, func() (any, error) {
		analysis, fromCache, err := s.computeQuestion(ctx, req, key)
		if err != nil {
			return nil, err
		}
		return flightResult{analysis, fromCache}, nil
	})
	if err != nil {
		return nil, countError(err)
	}

	fr := v.(flightResult)
	out := *(fr.value.(*core.QuestionAnalysis))
	out.Cached = fr.fromCache
	return &out, nil
}

func (s *Service) computeQuestion(ctx context.Context, req core.QuestionRequest, key string) (*core.QuestionAnalysis, bool, error) {
	var stored core.QuestionAnalysis
	if s.storeGet(ctx, key, &stored) {
		observability.CacheHitsTotal.WithLabelValues(tierStore, questionNamespace).Inc()
		stored.Cached = false
		s.local.Set(key, &stored)
		return &stored, true, nil
	}
	observability.CacheMissesTotal.WithLabelValues(tierStore, questionNamespace).Inc()

	img := s.fetchQuestionImage(ctx, req)

	start := time.Now()
	analysis, err := s.model.AnalyzeQuestion(ctx, req, img)
	observeModel("question", start, err)
	if err != nil {
		return nil, false, err
	}

	s.storePut(ctx, key, analysis)
	s.local.Set(key, analysis)
	slog.InfoContext(ctx, "question analyzed",
		"key", key,
		"language", req.Language,
		"hasImage", img != nil,
		"took", time.Since(start).Round(time.Millisecond).String(),
	)
	return analysis, false, nil
}

// fetchQuestionImage downloads the question's attached image when one is
// referenced. Download failures degrade to text-only analysis rather than
// failing the request.
func (s *Service) fetchQuestionImage(ctx context.Context, req core.QuestionRequest) *media.Buffer {
	if req.ImageURL == "" {
		return nil
	}
	img, err := s.fetcher.FetchImage(ctx, req.ImageURL)
	if err != nil {
		slog.WarnContext(ctx, "image fetch failed, analyzing text only", "url", req.ImageURL, "error", err)
		return nil
	}
	observability.MediaDownloadBytes.WithLabelValues("image").Add(float64(img.Size()))
	return img
}

// AnalyzeSentence breaks a Korean sentence into vocabulary, grammar points
// and nuance, explained in the learner's language.
func (s *Service) AnalyzeSentence(ctx context.Context, req core.SentenceRequest) (*core.SentenceAnalysis, error) {
	if err := req.Validate(); err != nil {
		return nil, countError(err)
	}
	key := sentenceKey(fingerprint.Sentence(req))

	if v, ok := s.local.Get(key); ok {
		observability.CacheHitsTotal.WithLabelValues(tierLocal, sentenceNamespace).Inc()
		out := *(v.(*core.SentenceAnalysis))
		out.Cached = true
		return &out, nil
	}
	observability.CacheMissesTotal.WithLabelValues(tierLocal, sentenceNamespace).Inc()

	v, err, _ := s.group.Do(key, func() (any, error) {
		analysis, fromCache, err := s.computeSentence(ctx, req, key)
		if err != nil {
			return nil, err
		}
		return flightResult{analysis, fromCache}, nil
	})
	if err != nil {
		return nil, countError(err)
	}

	fr := v.(flightResult)
	out := *(fr.value.(*core.SentenceAnalysis))
	out.Cached = fr.fromCache
	return &out, nil
}

func (s *Service) computeSentence(ctx context.Context, req core.SentenceRequest, key string) (*core.SentenceAnalysis, bool, error) {
	var stored core.SentenceAnalysis
	if s.storeGet(ctx, key, &stored) {
		observability.CacheHitsTotal.WithLabelValues(tierStore, sentenceNamespace).Inc()
		stored.Cached = false
		s.local.Set(key, &stored)
		return &stored, true, nil
	}
	observability.CacheMissesTotal.WithLabelValues(tierStore, sentenceNamespace).Inc()

	start := time.Now()
	analysis, err := s.model.AnalyzeSentence(ctx, req)
	observeModel("sentence", start, err)
	if err != nil {
		return nil, false, err
	}

	s.storePut(ctx, key, analysis)
	s.local.Set(key, analysis)
	slog.InfoContext(ctx, "sentence analyzed",
		"key", key,
		"language", req.Language,
		"took", time.Since(start).Round(time.Millisecond).String(),
	)
	return analysis, false, nil
}
