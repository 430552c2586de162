package analysis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/HanTheDev/complexity-analyzer/internal/cache"
	"github.com/HanTheDev/complexity-analyzer/internal/llm"
	"github.com/HanTheDev/complexity-analyzer/internal/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrInputTooLarge is a client error: the submitted code is over the limit.
	ErrInputTooLarge = errors.New("code exceeds maximum length")
	// ErrAnalysisFailed covers every failure of the external model call.
	ErrAnalysisFailed = errors.New("AI analysis failed")
)

type Result struct {
	RawOutput string
	Cached    bool
}

// Service runs the cache-then-model step for one piece of code.
type Service struct {
	generator     llm.Generator
	cache         *cache.AnalysisCache
	group         singleflight.Group
	defaultModel  string
	maxCodeLength int
}

func NewService(generator llm.Generator, analysisCache *cache.AnalysisCache, defaultModel string, maxCodeLength int) *Service {
	return &Service{
		generator:     generator,
		cache:         analysisCache,
		defaultModel:  defaultModel,
		maxCodeLength: maxCodeLength,
	}
}

// Validate checks the length limit, counted in characters rather than bytes.
func (s *Service) Validate(code string) error {
	if n := utf8.RuneCountInString(code); n > s.maxCodeLength {
		return fmt.Errorf("%w: %d characters (max %d)", ErrInputTooLarge, n, s.maxCodeLength)
	}
	return nil
}

func (s *Service) ResolveModel(model string) string {
	if model == "" {
		return s.defaultModel
	}
	return model
}

func (s *Service) MaxCodeLength() int {
	return s.maxCodeLength
}

// Analyze returns the cleaned model output for (code, model), calling the
// model only when no cached entry exists. Concurrent misses for the same key
// share one model call. Failures are never cached.
func (s *Service) Analyze(ctx context.Context, code, model string) (*Result, error) {
	if err := s.Validate(code); err != nil {
		return nil, err
	}
	model = s.ResolveModel(model)
	key := cache.Key{Code: code, Model: model}

	if out, ok := s.cache.Get(key); ok {
		logrus.Debugf("Cache hit for model %s (%d chars)", model, len(code))
		return &Result{RawOutput: out, Cached: true}, nil
	}

	// The shared call must not die with whichever caller started it, so it
	// runs detached; each caller still stops waiting when its own ctx ends.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(flightKey(key), func() (interface{}, error) {
		if out, ok := s.cache.Peek(key); ok {
			return out, nil
		}

		out, err := s.callModel(flightCtx, key)
		if err != nil {
			return nil, err
		}
		s.cache.Add(key, out)
		return out, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, res.Err)
		}
		return &Result{RawOutput: res.Val.(string)}, nil
	}
}

func (s *Service) callModel(ctx context.Context, key cache.Key) (string, error) {
	label := s.modelLabel(key.Model)
	start := time.Now()
	text, err := s.generator.Generate(ctx, key.Model, llm.BuildPrompt(key.Code))
	metrics.ModelRequestDurationSeconds.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues(label, "error").Inc()
		return "", err
	}
	metrics.ModelRequestsTotal.WithLabelValues(label, "success").Inc()

	return llm.CleanOutput(text), nil
}

// modelLabel keeps metric cardinality fixed: model names come from clients,
// so only the configured default gets its own series.
func (s *Service) modelLabel(model string) string {
	if model == s.defaultModel {
		return model
	}
	return metrics.OtherModelLabel
}

// flightKey encodes a cache key unambiguously for singleflight.
func flightKey(key cache.Key) string {
	return strconv.Itoa(len(key.Model)) + ":" + key.Model + key.Code
}
