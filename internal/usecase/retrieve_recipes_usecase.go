package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"fridge-chef/internal/domain"
)

// RetrieveRecipesInput encapsulates the parameters of the candidate
// retrieval stage.
type RetrieveRecipesInput struct {
	Ingredients []string
	Limit       int
}

// RetrieveRecipesOutput is the tagged result of retrieval. Degraded marks
// that the lexical baseline answered instead of the vector index; Reason
// says why. Callers never see an error from this stage.
type RetrieveRecipesOutput struct {
	Recipes  []domain.Recipe
	Source   string
	Degraded bool
	Reason   string
}

// RetrieveRecipesUsecase fetches the candidate recipe set for a user's
// ingredients, preferring similarity search and degrading to lexical
// matching when the index cannot serve.
type RetrieveRecipesUsecase interface {
	Execute(ctx context.Context, input RetrieveRecipesInput) *RetrieveRecipesOutput
	Status(ctx context.Context) RetrieverStatus
}

type retrieveRecipesUsecase struct {
	store   domain.RecipeStore
	lexical domain.LexicalSearcher
	encoder domain.VectorEncoder
	index   domain.VectorIndex
}

// NewRetrieveRecipesUsecase wires the retrieval stage.
func NewRetrieveRecipesUsecase(
	store domain.RecipeStore,
	lexical domain.LexicalSearcher,
	encoder domain.VectorEncoder,
	index domain.VectorIndex,
) RetrieveRecipesUsecase {
	return &retrieveRecipesUsecase{
		store:   store,
		lexical: lexical,
		encoder: encoder,
		index:   index,
	}
}

func (u *retrieveRecipesUsecase) Execute(ctx context.Context, input RetrieveRecipesInput) *RetrieveRecipesOutput {
	if u.index == nil || u.encoder == nil || !u.index.IsReady(ctx) {
		slog.Warn("vector index not ready, falling back to lexical matching")
		return u.lexicalFallback(ctx, input, "vector index not ready")
	}

	recipes, err := u.vectorSearch(ctx, input)
	if err != nil {
		slog.Warn("vector retrieval failed, falling back to lexical matching", slog.String("error", err.Error()))
		return u.lexicalFallback(ctx, input, fmt.Sprintf("vector retrieval failed: %v", err))
	}

	return &RetrieveRecipesOutput{Recipes: recipes, Source: SourceVector}
}

func (u *retrieveRecipesUsecase) vectorSearch(ctx context.Context, input RetrieveRecipesInput) ([]domain.Recipe, error) {
	total, err := u.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count corpus: %w", err)
	}
	k := input.Limit
	if total < k {
		k = total
	}
	if k <= 0 {
		return []domain.Recipe{}, nil
	}

	vectors, err := u.encoder.Encode(ctx, []string{IngredientQuery(input.Ingredients)})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(vectors))
	}

	hits, err := u.index.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector index: %w", err)
	}

	recipes := make([]domain.Recipe, 0, len(hits))
	for _, hit := range hits {
		// The index may hold rows for positions beyond the loaded
		// corpus; such hits are dropped, not errors.
		recipe, err := u.store.ByPosition(ctx, hit.Position)
		if err != nil {
			continue
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

func (u *retrieveRecipesUsecase) lexicalFallback(ctx context.Context, input RetrieveRecipesInput, reason string) *RetrieveRecipesOutput {
	matches, err := u.lexical.SearchByIngredients(ctx, input.Ingredients, input.Limit)
	if err != nil {
		slog.Warn("lexical fallback failed", slog.String("error", err.Error()))
		return &RetrieveRecipesOutput{
			Recipes:  []domain.Recipe{},
			Source:   SourceLexical,
			Degraded: true,
			Reason:   fmt.Sprintf("%s; lexical fallback failed: %v", reason, err),
		}
	}

	recipes := make([]domain.Recipe, len(matches))
	for i, match := range matches {
		recipes[i] = match.Recipe
	}
	return &RetrieveRecipesOutput{
		Recipes:  recipes,
		Source:   SourceLexical,
		Degraded: true,
		Reason:   reason,
	}
}

func (u *retrieveRecipesUsecase) Status(ctx context.Context) RetrieverStatus {
	return RetrieverStatus{
		Available: u.index != nil && u.index.IsReady(ctx),
		Type:      "pgvector",
	}
}
