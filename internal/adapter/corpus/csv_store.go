package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"fridge-chef/internal/domain"
)

// CSVStore holds the recipe corpus in memory. The slice index is the
// recipe's position: the same identifier the vector index stores
// embeddings under, so rows must never be reordered after load.
type CSVStore struct {
	recipes []domain.Recipe
	logger  *slog.Logger
}

var (
	_ domain.RecipeStore     = (*CSVStore)(nil)
	_ domain.LexicalSearcher = (*CSVStore)(nil)
)

var requiredColumns = []string{"Title", "Ingredients", "Instructions", "Image_Name", "Cleaned_Ingredients"}

// LoadCSV reads the corpus from a CSV export. A leading unnamed index
// column is tolerated; the named columns are located by header.
func LoadCSV(path string, logger *slog.Logger) (*CSVStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()

	store, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse corpus %s: %w", path, err)
	}
	store.logger = logger

	logger.Info("corpus_loaded",
		slog.String("path", path),
		slog.Int("recipe_count", len(store.recipes)))
	return store, nil
}

// Empty returns a store with no recipes. Used when the corpus file is
// missing so the service can still start in a degraded state.
func Empty(logger *slog.Logger) *CSVStore {
	return &CSVStore{recipes: []domain.Recipe{}, logger: logger}
}

func parse(r io.Reader) (*CSVStore, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty corpus file")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := colIdx[name]; !ok {
			return nil, fmt.Errorf("corpus missing column %q", name)
		}
	}

	field := func(record []string, name string) string {
		idx := colIdx[name]
		if idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	var recipes []domain.Recipe
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		recipes = append(recipes, domain.Recipe{
			Title:              field(record, "Title"),
			Ingredients:        field(record, "Ingredients"),
			Instructions:       field(record, "Instructions"),
			ImageName:          field(record, "Image_Name"),
			CleanedIngredients: field(record, "Cleaned_Ingredients"),
		})
	}

	return &CSVStore{recipes: recipes}, nil
}

// GetAll returns up to limit recipes in corpus order. A non-positive
// limit returns the whole corpus.
func (s *CSVStore) GetAll(ctx context.Context, limit int) ([]domain.Recipe, error) {
	n := len(s.recipes)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Recipe, n)
	copy(out, s.recipes[:n])
	return out, nil
}

func (s *CSVStore) ByPosition(ctx context.Context, position int) (domain.Recipe, error) {
	if position < 0 || position >= len(s.recipes) {
		return domain.Recipe{}, fmt.Errorf("position %d out of range [0, %d)", position, len(s.recipes))
	}
	return s.recipes[position], nil
}

func (s *CSVStore) Count(ctx context.Context) (int, error) {
	return len(s.recipes), nil
}

// SearchByIngredients is the lexical retrieval baseline: each recipe is
// scored by how many of the user's ingredients appear in its ingredient
// text. Zero-match recipes are dropped, ties keep corpus order.
func (s *CSVStore) SearchByIngredients(ctx context.Context, ingredients []string, limit int) ([]domain.RecipeWithMatch, error) {
	matches := make([]domain.RecipeWithMatch, 0, 64)
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
