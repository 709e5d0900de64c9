package router

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/rift/plugin/ai"
	"github.com/hrygo/rift/plugin/ai/cache"
)

// Service implements the two-layer RouterService.
// Layer 1: LLM classification (bare token, temperature 0, bounded by ClassifyTimeout)
// Layer 2: ordered rule matching (0ms), used whenever layer 1 is absent or fails
type Service struct {
	ruleMatcher   *RuleMatcher
	llmClassifier *LLMClassifier
	// LLM answers keyed by normalized prompt. Nil without an LLM client.
	cache *cache.LRU[Intent]
}

// Config contains the configuration for the router service.
type Config struct {
	// LLMClient may be nil; classification then runs on rules only.
	LLMClient ai.LLMService
	// CacheSize and CacheTTL bound the LLM answer cache. Zero selects the
	// cache package defaults; a negative CacheSize disables caching.
	CacheSize int
	CacheTTL  time.Duration
}

// NewService creates a new router service.
func NewService(cfg Config) *Service {
	s := &Service{
		ruleMatcher:   NewRuleMatcher(),
		llmClassifier: NewLLMClassifier(cfg.LLMClient),
	}
	if cfg.LLMClient != nil && cfg.CacheSize >= 0 {
		s.cache = cache.New[Intent](cfg.CacheSize, cfg.CacheTTL)
	}
	return s
}

// ClassifyIntent classifies user intent from input text.
func (s *Service) ClassifyIntent(ctx context.Context, input string) Classification {
	start := time.Now()

	if s.llmClassifier != nil && s.llmClassifier.client != nil {
		key := cacheKey(input)
		if s.cache != nil {
			if intent, ok := s.cache.Get(key); ok {
				return Classification{Intent: intent, Confidence: 0.9, Source: SourceLLM}
			}
		}
		intent, err := s.llmClassifier.Classify(ctx, input)
		if err == nil {
			if s.cache != nil {
				s.cache.Set(key, intent, 0)
			}
			slog.Debug("intent classified by LLM",
				"input", ai.Truncate(input, 50),
				"intent", intent,
				"latency_ms", time.Since(start).Milliseconds())
			return Classification{Intent: intent, Confidence: 0.9, Source: SourceLLM}
		}
		slog.Warn("LLM classifier failed, using rule fallback",
			"input", ai.Truncate(input, 50),
			"error", err)
	}

	intent, confidence, matched := s.ruleMatcher.Match(input)
	slog.Debug("intent classified by rule matcher",
		"input", ai.Truncate(input, 50),
		"intent", intent,
		"matched", matched,
		"latency_ms", time.Since(start).Milliseconds())
	return Classification{Intent: intent, Confidence: confidence, Source: SourceRule}
}

// cacheKey folds case and whitespace.
func cacheKey(input string) string {
	return strings.ToLower(strings.Join(strings.Fields(input), " "))
}

// Ensure Service implements RouterService
var _ RouterService = (*Service)(nil)
