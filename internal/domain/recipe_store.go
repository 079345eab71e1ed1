package domain

import "context"

// RecipeStore provides read access to the loaded corpus. Positions are
// stable for the process lifetime: the recipe at position i is always the
// entry the vector index stored an embedding for under identifier i.
type RecipeStore interface {
	GetAll(ctx context.Context, limit int) ([]Recipe, error)
	ByPosition(ctx context.Context, position int) (Recipe, error)
	Count(ctx context.Context) (int, error)
}

// LexicalSearcher is the string-matching retrieval baseline. Recipes are
// scored by how many user ingredients substring-match their ingredient
// text; zero-match recipes are dropped and ties keep corpus order.
type LexicalSearcher interface {
	SearchByIngredients(ctx context.Context, ingredients []string, limit int) ([]RecipeWithMatch, error)
}
