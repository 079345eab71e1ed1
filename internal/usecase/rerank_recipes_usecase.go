package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"fridge-chef/internal/domain"
)

// RerankRecipesInput encapsulates the parameters of the reranking stage.
type RerankRecipesInput struct {
	Ingredients []string
	Recipes     []domain.Recipe
	TopK        int
}

// RerankRecipesOutput is the tagged result of reranking. When Degraded is
// set the scores are the constant 1.0 passthrough in candidate order,
// indistinguishable from confident cross-encoder output by value alone.
type RerankRecipesOutput struct {
	Scored   []domain.ScoredRecipe
	Degraded bool
	Reason   string
}

// RerankRecipesUsecase re-orders retrieval candidates with a cross-encoder,
// degrading to input order with neutral scores whenever the model cannot
// serve. The scoring model loads lazily on first use; a load failure is
// permanent for the process lifetime.
type RerankRecipesUsecase interface {
	Execute(ctx context.Context, input RerankRecipesInput) *RerankRecipesOutput
	Status(ctx context.Context) RerankerStatus
}

type rerankRecipesUsecase struct {
	encoder domain.CrossEncoder
	enabled bool

	mu    sync.Mutex
	state LoadState
}

// NewRerankRecipesUsecase wires the reranking stage. A nil encoder forces
// the disabled passthrough regardless of the enabled flag.
func NewRerankRecipesUsecase(encoder domain.CrossEncoder, enabled bool) RerankRecipesUsecase {
	if encoder == nil {
		enabled = false
	}
	return &rerankRecipesUsecase{
		encoder: encoder,
		enabled: enabled,
	}
}

func (u *rerankRecipesUsecase) Execute(ctx context.Context, input RerankRecipesInput) *RerankRecipesOutput {
	if !u.enabled {
		return u.passthrough(input, "reranker disabled")
	}
	if len(input.Recipes) == 0 {
		return &RerankRecipesOutput{Scored: []domain.ScoredRecipe{}}
	}
	if !u.ensureLoaded(ctx) {
		return u.passthrough(input, "cross-encoder unavailable")
	}

	query := IngredientQuery(input.Ingredients)
	passages := make([]string, len(input.Recipes))
	for i, recipe := range input.Recipes {
		passages[i] = CandidateText(recipe)
	}

	scores, err := u.encoder.Score(ctx, query, passages)
	if err != nil {
		slog.Warn("cross-encoder scoring failed, preserving retrieval order", slog.String("error", err.Error()))
		return u.passthrough(input, fmt.Sprintf("scoring failed: %v", err))
	}
	if len(scores) != len(input.Recipes) {
		slog.Warn("cross-encoder returned wrong score count, preserving retrieval order",
			slog.Int("scores", len(scores)), slog.Int("candidates", len(input.Recipes)))
		return u.passthrough(input, fmt.Sprintf("got %d scores for %d candidates", len(scores), len(input.Recipes)))
	}

	scored := make([]domain.ScoredRecipe, len(input.Recipes))
	for i, recipe := range input.Recipes {
		scored[i] = domain.ScoredRecipe{Recipe: recipe, Score: sigmoid(scores[i])}
	}
	// Stable sort so equal scores keep retrieval order.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if input.TopK > 0 && len(scored) > input.TopK {
		scored = scored[:input.TopK]
	}

	return &RerankRecipesOutput{Scored: scored}
}

// ensureLoaded performs the guarded one-time model initialization.
// Concurrent first calls serialize on the mutex; exactly one triggers the
// load and the rest observe its outcome.
func (u *rerankRecipesUsecase) ensureLoaded(ctx context.Context) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch u.state {
	case LoadStateLoaded:
		return true
	case LoadStateFailedPermanently:
		return false
	}

	slog.Info("loading cross-encoder model", slog.String("model", u.encoder.ModelName()))
	if err := u.encoder.Load(ctx); err != nil {
		slog.Warn("cross-encoder load failed, reranking disabled for the rest of the process",
			slog.String("model", u.encoder.ModelName()), slog.String("error", err.Error()))
		u.state = LoadStateFailedPermanently
		return false
	}
	u.state = LoadStateLoaded
	return true
}

func (u *rerankRecipesUsecase) loadState() LoadState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

func (u *rerankRecipesUsecase) passthrough(input RerankRecipesInput, reason string) *RerankRecipesOutput {
	candidates := input.Recipes
	if input.TopK > 0 && len(candidates) > input.TopK {
		candidates = candidates[:input.TopK]
	}
	scored := make([]domain.ScoredRecipe, len(candidates))
	for i, recipe := range candidates {
		scored[i] = domain.ScoredRecipe{Recipe: recipe, Score: 1.0}
	}
	return &RerankRecipesOutput{Scored: scored, Degraded: true, Reason: reason}
}

func (u *rerankRecipesUsecase) Status(ctx context.Context) RerankerStatus {
	state := u.loadState()
	available := u.enabled && state != LoadStateFailedPermanently

	status := RerankerStatus{
		Available: available,
		Loaded:    u.enabled && state == LoadStateLoaded,
	}
	if available {
		name := u.encoder.ModelName()
		status.Model = &name
	}
	return status
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}
