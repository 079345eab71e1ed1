package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fridge-chef/internal/domain"
	"fridge-chef/internal/usecase"
)

func pipelineDefaults() usecase.RecommendDefaults {
	return usecase.RecommendDefaults{FinalCount: 10, RetrievalCount: 50}
}

// newPipeline assembles an orchestrator over the stub collaborators. The
// index/encoder pair is optional; without them retrieval runs on the
// lexical baseline.
func newPipeline(store *stubStore, index *stubIndex, encoder *stubEncoder, crossEnc *stubCrossEncoder, rerankEnabled bool, gen *stubGenerator, genEnabled, hasKey bool) usecase.RecommendRecipesUsecase {
	var (
		enc domain.VectorEncoder
		idx domain.VectorIndex
		ce  domain.CrossEncoder
	)
	if encoder != nil {
		enc = encoder
	}
	if index != nil {
		idx = index
	}
	if crossEnc != nil {
		ce = crossEnc
	}

	retrieve := usecase.NewRetrieveRecipesUsecase(store, store, enc, idx)
	rerank := usecase.NewRerankRecipesUsecase(ce, rerankEnabled)
	factory, _ := generatorFactory(gen, nil)
	explain := usecase.NewExplainRecipesUsecase(factory, genEnabled, hasKey, "test-model", time.Minute)

	return usecase.NewRecommendRecipesUsecase(retrieve, rerank, explain, pipelineDefaults(), time.Minute)
}

// Index not ready, ingredients ["egg","flour"]: the lexical fallback must
// answer with overlapping recipes ordered by descending match count.
func TestRecommendRecipes_LexicalFallbackEndToEnd(t *testing.T) {
	store := testCorpus()
	gen := &stubGenerator{text: "ok"}
	u := newPipeline(store, &stubIndex{ready: false}, &stubEncoder{vector: []float32{1}}, nil, false, gen, true, true)

	out := u.Execute(context.Background(), usecase.RecommendRecipesInput{
		Ingredients: []string{"egg", "flour"},
		FinalCount:  3,
		Explain:     false,
	})

	require.Len(t, out.Recipes, 2)
	assert.Equal(t, "Pancakes", out.Recipes[0].Title)
	assert.Equal(t, "Omelette", out.Recipes[1].Title)
	for _, r := range out.Recipes {
		assert.Greater(t, r.MatchingCount, 0)
		assert.Len(t, r.MatchingIngredients, r.MatchingCount)
	}

	require.NotNil(t, out.Metadata.RetrieverUsed)
	assert.False(t, *out.Metadata.RetrieverUsed, "lexical fallback is not the vector retriever")
}

// Zero retrieved candidates short-circuit the pipeline: empty recipes, no
// explanation, and only the retrieval stage in metadata.
func TestRecommendRecipes_EmptyRetrieval_ShortCircuits(t *testing.T) {
	store := &stubStore{recipes: []domain.Recipe{
		{Title: "Tomato Soup", Ingredients: "['Tomato']"},
	}}
	gen := &stubGenerator{text: "ok"}
	u := newPipeline(store, nil, nil, &stubCrossEncoder{}, true, gen, true, true)

	out := u.Execute(context.Background(), usecase.RecommendRecipesInput{
		Ingredients: []string{"chocolate"},
		Explain:     true,
	})

	assert.NotNil(t, out.Recipes)
	assert.Empty(t, out.Recipes)
	assert.Empty(t, out.Explanation)
	assert.Equal(t, []string{usecase.StageRetrieval}, out.Metadata.PipelineStages)
	assert.Zero(t, out.Metadata.RetrievalCount)
	assert.Zero(t, out.Metadata.RerankedCount)
	assert.Nil(t, out.Metadata.RetrieverUsed)
	assert.Nil(t, out.Metadata.RerankerUsed)
	assert.Nil(t, out.Metadata.LLMUsed)
	assert.Zero(t, gen.calls.Load(), "nothing to explain on the short circuit")
}

func TestRecommendRecipes_FullPipeline(t *testing.T) {
	store := testCorpus()
	index := &stubIndex{ready: true, hits: []domain.VectorHit{
		{Position: 0, Distance: 0.1},
		{Position: 2, Distance: 0.2},
		{Position: 1, Distance: 0.3},
	}}
	crossEnc := &stubCrossEncoder{scores: []float32{0.5, 3.0, -1.0}}
	gen := &stubGenerator{text: "Both recipes use your eggs."}

	u := newPipeline(store, index, &stubEncoder{vector: []float32{1}}, crossEnc, true, gen, true, true)

	out := u.Execute(context.Background(), usecase.RecommendRecipesInput{
		Ingredients:    []string{"egg", "flour"},
		FinalCount:     2,
		RetrievalCount: 3,
		Explain:        true,
	})

	require.Len(t, out.Recipes, 2)
	assert.Equal(t, "Omelette", out.Recipes[0].Title, "highest cross-encoder score first")
	assert.Equal(t, "Pancakes", out.Recipes[1].Title)

	// Annotation invariant holds regardless of scores.
	assert.Equal(t, 1, out.Recipes[0].MatchingCount)
	assert.Equal(t, []string{"egg"}, out.Recipes[0].MatchingIngredients)
	assert.Equal(t, 2, out.Recipes[1].MatchingCount)

	assert.Equal(t, "Both recipes use your eggs.", out.Explanation)

	assert.Equal(t, 3, out.Metadata.RetrievalCount)
	assert.Equal(t, 2, out.Metadata.RerankedCount)
	assert.Equal(t, []string{usecase.StageRetrieval, usecase.StageReranking, usecase.StageGeneration}, out.Metadata.PipelineStages)
	require.NotNil(t, out.Metadata.RetrieverUsed)
	assert.True(t, *out.Metadata.RetrieverUsed)
	require.NotNil(t, out.Metadata.RerankerUsed)
	assert.True(t, *out.Metadata.RerankerUsed)
	require.NotNil(t, out.Metadata.LLMUsed)
	assert.True(t, *out.Metadata.LLMUsed)
}

// The reranker's constant-1.0 passthrough is indistinguishable from
// confident scores in the payload; reranker_used is the only signal and
// must be false on the degraded path.
func TestRecommendRecipes_RerankerDisabled_MetadataDisambiguates(t *testing.T) {
	store := testCorpus()
	gen := &stubGenerator{text: "ok"}
	u := newPipeline(store, nil, nil, nil, false, gen, true, true)

	out := u.Execute(context.Background(), usecase.RecommendRecipesInput{
		Ingredients: []string{"egg"},
		FinalCount:  2,
		Explain:     false,
	})

	require.Len(t, out.Recipes, 2)
	require.NotNil(t, out.Metadata.RerankerUsed)
	assert.False(t, *out.Metadata.RerankerUsed)
}

// Generator without a credential: explanation is empty, the generation
// stage is still listed because it was requested, and llm_used is false.
func TestRecommendRecipes_NoCredential_ExplainRequested(t *testing.T) {
	store := testCorpus()
	gen := &stubGenerator{text: "never returned"}
	u := newPipeline(store, nil, nil, nil, false, gen, true, false)

	out := u.Execute(context.Background(), usecase.RecommendRecipesInput{
		Ingredients: []string{"egg"},
		Explain:     true,
	})

	assert.NotEmpty(t, out.Recipes)
	assert.Empty(t, out.Explanation)
	assert.Contains(t, out.Metadata.PipelineStages, usecase.StageGeneration)
	require.NotNil(t, out.Metadata.LLMUsed)
	assert.False(t, *out.Metadata.LLMUsed)
}

func TestRecommendRecipes_ExplainNotRequested_OmitsGenerationStage(t *testing.T) {
	store := testCorpus()
	gen := &stubGenerator{text: "never returned"}
	u := newPipeline(store, nil, nil, nil, false, gen, true, false)

	out := u.Execute(context.Background(), usecase.RecommendRecipesInput{
		Ingredients: []string{"egg"},
		Explain:     false,
	})

	assert.NotContains(t, out.Metadata.PipelineStages, usecase.StageGeneration)
	assert.Empty(t, out.Explanation)
	assert.Zero(t, gen.calls.Load())
	require.NotNil(t, out.Metadata.LLMUsed)
	assert.False(t, *out.Metadata.LLMUsed, "never-initialized generator reports unavailable")
}

func TestRecommendRecipes_DefaultsApplied(t *testing.T) {
	store := testCorpus()
	gen := &stubGenerator{text: "ok"}
	u := newPipeline(store, nil, nil, nil, false, gen, true, true)

	out := u.Execute(context.Background(), usecase.RecommendRecipesInput{
		Ingredients: []string{"egg"},
	})

	assert.LessOrEqual(t, len(out.Recipes), pipelineDefaults().FinalCount)
	assert.NotEmpty(t, out.Recipes)
}

func TestRecommendRecipes_ScoringFailure_KeepsRetrievalOrder(t *testing.T) {
	store := testCorpus()
	crossEnc := &stubCrossEncoder{scoreErr: assert.AnError}
	gen := &stubGenerator{text: "ok"}
	u := newPipeline(store, nil, nil, crossEnc, true, gen, true, true)

	out := u.Execute(context.Background(), usecase.RecommendRecipesInput{
		Ingredients: []string{"egg"},
		FinalCount:  5,
		Explain:     false,
	})

	require.Len(t, out.Recipes, 2)
	assert.Equal(t, "Pancakes", out.Recipes[0].Title)
	assert.Equal(t, "Omelette", out.Recipes[1].Title)
	require.NotNil(t, out.Metadata.RerankerUsed)
	assert.False(t, *out.Metadata.RerankerUsed)
}

func TestRecommendRecipes_Status(t *testing.T) {
	store := testCorpus()
	gen := &stubGenerator{text: "ok"}
	u := newPipeline(store, &stubIndex{ready: true}, &stubEncoder{vector: []float32{1}}, &stubCrossEncoder{}, true, gen, true, true)

	status := u.Status(context.Background())

	assert.True(t, status.Retriever.Available)
	assert.True(t, status.Reranker.Available)
	assert.False(t, status.Reranker.Loaded)
	assert.False(t, status.Generator.Available, "generator unproven before first use")
	assert.True(t, status.Generator.HasAPIKey)
}
