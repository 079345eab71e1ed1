package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"fridge-chef/internal/domain"
	"fridge-chef/internal/infra/logger"
)

// ExplainRecipesInput encapsulates the parameters of the explanation stage.
type ExplainRecipesInput struct {
	Ingredients []string
	Recipes     []domain.Recipe
	Preferences domain.DietaryPreferences
	Excluded    []string
}

// ExplainRecipesOutput is the tagged result of explanation generation. An
// empty Explanation means "no explanation"; Degraded says whether that is
// because the generator could not serve, as opposed to there being nothing
// to explain.
type ExplainRecipesOutput struct {
	Explanation string
	Degraded    bool
	Reason      string
}

// GeneratorFactory builds the provider client on first use. Deferring
// construction keeps boot fast and lets an unconfigured deployment start
// without ever touching the provider SDK.
type GeneratorFactory func(ctx context.Context) (domain.TextGenerator, error)

// ExplainRecipesUsecase produces a natural-language explanation for a
// final recipe set. Every failure mode degrades to "no explanation"; the
// caller never sees an error from this stage. The provider client is
// created lazily on first use and a construction failure is permanent for
// the process lifetime.
type ExplainRecipesUsecase interface {
	Execute(ctx context.Context, input ExplainRecipesInput) *ExplainRecipesOutput
	Status(ctx context.Context) GeneratorStatus
}

type explainRecipesUsecase struct {
	factory   GeneratorFactory
	enabled   bool
	hasAPIKey bool
	model     string
	timeout   time.Duration

	cache *expirable.LRU[string, string]

	mu        sync.Mutex
	state     LoadState
	generator domain.TextGenerator
}

// ExplainRecipesOption customizes the explanation stage.
type ExplainRecipesOption func(*explainRecipesUsecase)

// WithExplanationCache caches generated explanations keyed by the full
// request context. A size <= 0 disables caching.
func WithExplanationCache(size int, ttl time.Duration) ExplainRecipesOption {
	return func(u *explainRecipesUsecase) {
		if size <= 0 {
			return
		}
		u.cache = expirable.NewLRU[string, string](size, nil, ttl)
	}
}

// NewExplainRecipesUsecase wires the explanation stage. hasAPIKey is
// resolved from configuration up front so a missing credential skips the
// provider entirely instead of failing a load.
func NewExplainRecipesUsecase(
	factory GeneratorFactory,
	enabled bool,
	hasAPIKey bool,
	model string,
	timeout time.Duration,
	opts ...ExplainRecipesOption,
) ExplainRecipesUsecase {
	u := &explainRecipesUsecase{
		factory:   factory,
		enabled:   enabled,
		hasAPIKey: hasAPIKey,
		model:     model,
		timeout:   timeout,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *explainRecipesUsecase) Execute(ctx context.Context, input ExplainRecipesInput) *ExplainRecipesOutput {
	if len(input.Recipes) == 0 {
		// Nothing to explain is a legitimate outcome, not degradation.
		return &ExplainRecipesOutput{Reason: "no recipes to explain"}
	}
	if !u.enabled {
		return &ExplainRecipesOutput{Degraded: true, Reason: "generator disabled"}
	}
	if !u.hasAPIKey {
		slog.Debug("no generator credential configured, skipping explanation")
		return &ExplainRecipesOutput{Degraded: true, Reason: "no API key configured"}
	}

	var key string
	if u.cache != nil {
		key = explanationCacheKey(input)
		if cached, ok := u.cache.Get(key); ok {
			slog.Debug("explanation_cache_hit", slog.Int("recipe_count", len(input.Recipes)))
			return &ExplainRecipesOutput{Explanation: cached}
		}
	}

	generator := u.ensureLoaded(ctx)
	if generator == nil {
		return &ExplainRecipesOutput{Degraded: true, Reason: "generator failed to initialize"}
	}

	prompt := buildExplanationPrompt(input.Ingredients, input.Recipes, input.Preferences, input.Excluded)

	genCtx, cancel := context.WithTimeout(logger.WithModel(ctx, generator.ModelName()), u.timeout)
	defer cancel()

	start := time.Now()
	text, err := generator.Generate(genCtx, prompt)
	if err != nil {
		slog.WarnContext(genCtx, "explanation_generation_failed",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return &ExplainRecipesOutput{Degraded: true, Reason: fmt.Sprintf("generation failed: %v", err)}
	}

	explanation := strings.TrimSpace(text)
	if explanation == "" {
		slog.WarnContext(genCtx, "generator returned empty explanation")
		return &ExplainRecipesOutput{Degraded: true, Reason: "empty generation result"}
	}

	slog.InfoContext(genCtx, "explanation_generated",
		slog.Int("recipe_count", len(input.Recipes)),
		slog.Int("explanation_chars", len(explanation)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	if u.cache != nil {
		u.cache.Add(key, explanation)
	}
	return &ExplainRecipesOutput{Explanation: explanation}
}

// ensureLoaded performs the guarded one-time client construction.
// Concurrent first calls serialize on the mutex; exactly one invokes the
// factory and the rest observe its outcome.
func (u *explainRecipesUsecase) ensureLoaded(ctx context.Context) domain.TextGenerator {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch u.state {
	case LoadStateLoaded:
		return u.generator
	case LoadStateFailedPermanently:
		return nil
	}

	slog.Info("initializing text generator", slog.String("model", u.model))
	generator, err := u.factory(ctx)
	if err != nil {
		slog.Warn("text generator initialization failed, explanations disabled for the rest of the process",
			slog.String("model", u.model), slog.String("error", err.Error()))
		u.state = LoadStateFailedPermanently
		return nil
	}
	u.generator = generator
	u.state = LoadStateLoaded
	return generator
}

func (u *explainRecipesUsecase) loadState() LoadState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Status mirrors the health contract: Available means the generator is
// enabled, has a credential, and the client actually initialized. A
// never-used generator reports unavailable until its first successful use.
func (u *explainRecipesUsecase) Status(ctx context.Context) GeneratorStatus {
	status := GeneratorStatus{
		Available: u.enabled && u.hasAPIKey && u.loadState() == LoadStateLoaded,
		HasAPIKey: u.enabled && u.hasAPIKey,
	}
	if u.enabled {
		model := u.model
		status.Model = &model
	}
	return status
}

// explanationCacheKey digests everything the prompt depends on, so two
// requests share an entry only when they would produce the same prompt.
func explanationCacheKey(input ExplainRecipesInput) string {
	h := sha256.New()
	writeCachePart(h, input.Ingredients)
	writeCachePart(h, input.Preferences.Labels())
	writeCachePart(h, input.Excluded)
	titles := make([]string, len(input.Recipes))
	for i, recipe := range input.Recipes {
		titles[i] = recipe.Title
	}
	writeCachePart(h, titles)
	return hex.EncodeToString(h.Sum(nil))
}

func writeCachePart(w io.Writer, values []string) {
	for _, v := range values {
		_, _ = io.WriteString(w, v)
		_, _ = io.WriteString(w, "\x1f")
	}
	_, _ = io.WriteString(w, "\x1e")
}
