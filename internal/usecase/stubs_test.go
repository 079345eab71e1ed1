package usecase_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"fridge-chef/internal/domain"
)

// Hand-rolled collaborator stubs shared by the pipeline usecase tests.
// Call counters are atomic so the concurrency tests can hammer them.

type stubStore struct {
	recipes []domain.Recipe
}

func (s *stubStore) GetAll(ctx context.Context, limit int) ([]domain.Recipe, error) {
	n := len(s.recipes)
	if limit > 0 && limit < n {
		n = limit
	}
	return s.recipes[:n], nil
}

func (s *stubStore) ByPosition(ctx context.Context, position int) (domain.Recipe, error) {
	if position < 0 || position >= len(s.recipes) {
		return domain.Recipe{}, errors.New("position out of range")
	}
	return s.recipes[position], nil
}

func (s *stubStore) Count(ctx context.Context) (int, error) {
	return len(s.recipes), nil
}

// SearchByIngredients mirrors the production lexical baseline: match count
// descending, ties in corpus order, zero-match recipes dropped.
func (s *stubStore) SearchByIngredients(ctx context.Context, ingredients []string, limit int) ([]domain.RecipeWithMatch, error) {
	var matches []domain.RecipeWithMatch
	for _, r := range s.recipes {
		rm := domain.Annotate(r, ingredients)
		if rm.MatchingCount > 0 {
			matches = append(matches, rm)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchingCount > matches[j].MatchingCount
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

type failingLexical struct{}

func (failingLexical) SearchByIngredients(ctx context.Context, ingredients []string, limit int) ([]domain.RecipeWithMatch, error) {
	return nil, errors.New("lexical searcher broken")
}

type stubEncoder struct {
	vector []float32
	err    error
	calls  atomic.Int32
}

func (e *stubEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vector
	}
	return out, nil
}

func (e *stubEncoder) Dimension() int  { return len(e.vector) }
func (e *stubEncoder) Version() string { return "stub-encoder" }

type stubIndex struct {
	ready bool
	hits  []domain.VectorHit
	err   error
}

func (i *stubIndex) IsReady(ctx context.Context) bool { return i.ready }

func (i *stubIndex) Search(ctx context.Context, vector []float32, k int) ([]domain.VectorHit, error) {
	if i.err != nil {
		return nil, i.err
	}
	if k < len(i.hits) {
		return i.hits[:k], nil
	}
	return i.hits, nil
}

type stubCrossEncoder struct {
	loadErr   error
	scores    []float32
	scoreErr  error
	loadCalls atomic.Int32
}

func (c *stubCrossEncoder) Load(ctx context.Context) error {
	c.loadCalls.Add(1)
	return c.loadErr
}

func (c *stubCrossEncoder) Score(ctx context.Context, query string, passages []string) ([]float32, error) {
	if c.scoreErr != nil {
		return nil, c.scoreErr
	}
	if c.scores != nil {
		return c.scores, nil
	}
	// Score each passage by how early it sorts; deterministic and unbounded
	// like real logits.
	out := make([]float32, len(passages))
	for i, p := range passages {
		out[i] = float32(strings.Count(p, "a")) - 2
	}
	return out, nil
}

func (c *stubCrossEncoder) ModelName() string { return "stub-cross-encoder" }

type stubGenerator struct {
	text  string
	err   error
	calls atomic.Int32

	mu         sync.Mutex
	lastPrompt string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.lastPrompt = prompt
	g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func (g *stubGenerator) prompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastPrompt
}

func (g *stubGenerator) ModelName() string { return "stub-generator" }
