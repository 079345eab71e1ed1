package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fridge-chef/internal/domain"
	"fridge-chef/internal/infra/logger"
)

// RecommendRecipesInput encapsulates one end-to-end recommendation
// request. FinalCount and RetrievalCount fall back to the configured
// defaults when non-positive.
type RecommendRecipesInput struct {
	Ingredients         []string
	Preferences         domain.DietaryPreferences
	ExcludedIngredients []string
	FinalCount          int
	RetrievalCount      int
	Explain             bool
}

// RecommendRecipesOutput is the assembled pipeline result: annotated
// recipes ordered by relevance, the optional explanation (empty string
// when none), and metadata describing what actually ran.
type RecommendRecipesOutput struct {
	Recipes     []domain.RecipeWithMatch
	Explanation string
	Metadata    PipelineMetadata
}

// RecommendDefaults are the fallback sizes for requests that do not set
// their own.
type RecommendDefaults struct {
	FinalCount     int
	RetrievalCount int
}

// RecommendRecipesUsecase sequences retrieval, reranking, match
// annotation, and explanation generation. Every stage has a defined
// fallback, so Execute cannot fail: the worst outcomes are an empty
// recipe list or a result without an explanation, and metadata records
// which subsystems genuinely served the request.
type RecommendRecipesUsecase interface {
	Execute(ctx context.Context, input RecommendRecipesInput) *RecommendRecipesOutput
	Status(ctx context.Context) PipelineStatus
}

type recommendRecipesUsecase struct {
	retrieve     RetrieveRecipesUsecase
	rerank       RerankRecipesUsecase
	explain      ExplainRecipesUsecase
	defaults     RecommendDefaults
	stageTimeout time.Duration
}

// NewRecommendRecipesUsecase wires the pipeline orchestrator.
// stageTimeout is the wrapping deadline applied around each stage call;
// cancellation is not propagated into a model call already in flight.
func NewRecommendRecipesUsecase(
	retrieve RetrieveRecipesUsecase,
	rerank RerankRecipesUsecase,
	explain ExplainRecipesUsecase,
	defaults RecommendDefaults,
	stageTimeout time.Duration,
) RecommendRecipesUsecase {
	return &recommendRecipesUsecase{
		retrieve:     retrieve,
		rerank:       rerank,
		explain:      explain,
		defaults:     defaults,
		stageTimeout: stageTimeout,
	}
}

func (u *recommendRecipesUsecase) Execute(ctx context.Context, input RecommendRecipesInput) *RecommendRecipesOutput {
	pipelineID := uuid.NewString()
	ctx = logger.WithPipelineID(ctx, pipelineID)
	started := time.Now()

	finalCount := input.FinalCount
	if finalCount <= 0 {
		finalCount = u.defaults.FinalCount
	}
	retrievalLimit := input.RetrievalCount
	if retrievalLimit <= 0 {
		retrievalLimit = u.defaults.RetrievalCount
	}

	slog.InfoContext(ctx, "pipeline_started",
		slog.Int("ingredient_count", len(input.Ingredients)),
		slog.Int("final_count", finalCount),
		slog.Int("retrieval_limit", retrievalLimit),
		slog.Bool("explain", input.Explain))

	// Stage 1: retrieval. Never fails; degrades to the lexical baseline.
	retrieveCtx, cancelRetrieve := context.WithTimeout(logger.WithStage(ctx, StageRetrieval), u.stageTimeout)
	retrieved := u.retrieve.Execute(retrieveCtx, RetrieveRecipesInput{
		Ingredients: input.Ingredients,
		Limit:       retrievalLimit,
	})
	cancelRetrieve()

	if len(retrieved.Recipes) == 0 {
		slog.WarnContext(ctx, "pipeline_no_candidates",
			slog.String("source", retrieved.Source))
		return &RecommendRecipesOutput{
			Recipes: []domain.RecipeWithMatch{},
			Metadata: PipelineMetadata{
				PipelineStages: []string{StageRetrieval},
			},
		}
	}

	// Stage 2: reranking. Degrades to input order with neutral scores.
	rerankCtx, cancelRerank := context.WithTimeout(logger.WithStage(ctx, StageReranking), u.stageTimeout)
	reranked := u.rerank.Execute(rerankCtx, RerankRecipesInput{
		Ingredients: input.Ingredients,
		Recipes:     retrieved.Recipes,
		TopK:        finalCount,
	})
	cancelRerank()

	finalRecipes := make([]domain.Recipe, len(reranked.Scored))
	for i, scored := range reranked.Scored {
		finalRecipes[i] = scored.Recipe
	}

	// Stages 3 and 4 both depend only on the reranked set, so match
	// annotation and explanation generation run in parallel.
	var (
		annotated   []domain.RecipeWithMatch
		explanation *ExplainRecipesOutput
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		annotated = make([]domain.RecipeWithMatch, len(finalRecipes))
		for i, recipe := range finalRecipes {
			annotated[i] = domain.Annotate(recipe, input.Ingredients)
		}
		return nil
	})
	if input.Explain {
		g.Go(func() error {
			explanation = u.explain.Execute(logger.WithStage(gctx, StageGeneration), ExplainRecipesInput{
				Ingredients: input.Ingredients,
				Recipes:     finalRecipes,
				Preferences: input.Preferences,
				Excluded:    input.ExcludedIngredients,
			})
			return nil // explanation degrades, it never fails the request
		})
	}
	_ = g.Wait()

	output := &RecommendRecipesOutput{
		Recipes:  annotated,
		Metadata: u.buildMetadata(ctx, input.Explain, retrieved, reranked, explanation),
	}
	if explanation != nil {
		output.Explanation = explanation.Explanation
	}

	slog.InfoContext(ctx, "pipeline_completed",
		slog.Int("retrieved", len(retrieved.Recipes)),
		slog.Int("reranked", len(reranked.Scored)),
		slog.Bool("explanation", output.Explanation != ""),
		slog.Bool("retrieval_degraded", retrieved.Degraded),
		slog.Bool("rerank_degraded", reranked.Degraded),
		slog.Int64("duration_ms", time.Since(started).Milliseconds()))

	return output
}

// buildMetadata records per-request truth: a subsystem counts as used only
// when its genuine mechanism served this response, never when a fallback
// did. This is what disambiguates the reranker's constant-score
// passthrough from real cross-encoder output.
func (u *recommendRecipesUsecase) buildMetadata(
	ctx context.Context,
	explainRequested bool,
	retrieved *RetrieveRecipesOutput,
	reranked *RerankRecipesOutput,
	explanation *ExplainRecipesOutput,
) PipelineMetadata {
	stages := []string{StageRetrieval, StageReranking}
	if explainRequested {
		stages = append(stages, StageGeneration)
	}

	retrieverUsed := retrieved.Source == SourceVector
	rerankerUsed := !reranked.Degraded

	var llmUsed bool
	if explainRequested {
		llmUsed = explanation != nil && explanation.Explanation != ""
	} else {
		llmUsed = u.explain.Status(ctx).Available
	}

	return PipelineMetadata{
		RetrievalCount: len(retrieved.Recipes),
		RerankedCount:  len(reranked.Scored),
		PipelineStages: stages,
		RetrieverUsed:  &retrieverUsed,
		RerankerUsed:   &rerankerUsed,
		LLMUsed:        &llmUsed,
	}
}

func (u *recommendRecipesUsecase) Status(ctx context.Context) PipelineStatus {
	return PipelineStatus{
		Retriever: u.retrieve.Status(ctx),
		Reranker:  u.rerank.Status(ctx),
		Generator: u.explain.Status(ctx),
	}
}
