package corpus

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `,Title,Ingredients,Instructions,Image_Name,Cleaned_Ingredients
0,Garlic Butter Chicken,"['2 lbs chicken', '4 cloves garlic', '1 stick butter']","Melt butter. Add garlic. Cook chicken.",garlic-butter-chicken,"['chicken', 'garlic', 'butter']"
1,Tomato Soup,"['6 tomatoes', '1 onion']","Simmer tomatoes with onion.",tomato-soup,"['tomatoes', 'onion']"
2,Garlic Bread,"['1 baguette', '3 cloves garlic']","Toast with garlic.",garlic-bread,"['baguette', 'garlic']"
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParse_WithIndexColumn(t *testing.T) {
	store, err := parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	r, err := store.ByPosition(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Garlic Butter Chicken", r.Title)
	assert.Equal(t, "garlic-butter-chicken", r.ImageName)
	assert.Contains(t, r.CleanedIngredients, "chicken")
}

func TestParse_WithoutIndexColumn(t *testing.T) {
	csv := `Title,Ingredients,Instructions,Image_Name,Cleaned_Ingredients
Pancakes,"['flour', 'milk', 'eggs']","Mix and fry.",pancakes,"['flour', 'milk', 'eggs']"
`
	store, err := parse(strings.NewReader(csv))
	require.NoError(t, err)

	r, err := store.ByPosition(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", r.Title)
	assert.Equal(t, "Mix and fry.", r.Instructions)
}

func TestParse_MissingColumn(t *testing.T) {
	csv := `Title,Ingredients,Image_Name
Pancakes,"['flour']",pancakes
`
	_, err := parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Instructions")
}

func TestParse_QuotedNewlines(t *testing.T) {
	csv := `Title,Ingredients,Instructions,Image_Name,Cleaned_Ingredients
Stew,"['beef', 'carrots']","Brown the beef.
Add carrots.
Simmer for two hours.",stew,"['beef', 'carrots']"
`
	store, err := parse(strings.NewReader(csv))
	require.NoError(t, err)

	r, err := store.ByPosition(context.Background(), 0)
	require.NoError(t, err)
	assert.Contains(t, r.Instructions, "Simmer for two hours.")
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	store, err := LoadCSV(path, discardLogger())
	require.NoError(t, err)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), discardLogger())
	assert.Error(t, err)
}

func TestGetAll_LimitSemantics(t *testing.T) {
	store, err := parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	all, err := store.GetAll(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	two, err := store.GetAll(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
	assert.Equal(t, "Garlic Butter Chicken", two[0].Title)

	over, err := store.GetAll(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, over, 3)
}

func TestByPosition_OutOfRange(t *testing.T) {
	store, err := parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	_, err = store.ByPosition(context.Background(), 3)
	assert.Error(t, err)

	_, err = store.ByPosition(context.Background(), -1)
	assert.Error(t, err)
}

func TestSearchByIngredients_OrdersByMatchCount(t *testing.T) {
	store, err := parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	results, err := store.SearchByIngredients(context.Background(), []string{"garlic", "chicken"}, 10)
	require.NoError(t, err)

	require.Len(t, results, 2, "tomato soup has no matches and should be dropped")
	assert.Equal(t, "Garlic Butter Chicken", results[0].Title)
	assert.Equal(t, 2, results[0].MatchingCount)
	assert.Equal(t, "Garlic Bread", results[1].Title)
	assert.Equal(t, 1, results[1].MatchingCount)
}

func TestSearchByIngredients_TiesKeepCorpusOrder(t *testing.T) {
	store, err := parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	results, err := store.SearchByIngredients(context.Background(), []string{"GARLIC"}, 10)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Garlic Butter Chicken", results[0].Title, "case-insensitive match, corpus order on ties")
	assert.Equal(t, "Garlic Bread", results[1].Title)
}

func TestSearchByIngredients_Limit(t *testing.T) {
	store, err := parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	results, err := store.SearchByIngredients(context.Background(), []string{"garlic"}, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestEmpty(t *testing.T) {
	store := Empty(discardLogger())

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	results, err := store.SearchByIngredients(context.Background(), []string{"garlic"}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
