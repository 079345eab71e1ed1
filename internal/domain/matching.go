package domain

import "strings"

// MatchIngredients returns the user ingredients that occur as
// case-insensitive substrings of the recipe's raw ingredient text,
// preserving input order. Match annotation is independent of any retrieval
// or reranking score.
func MatchIngredients(r Recipe, userIngredients []string) []string {
	haystack := strings.ToLower(r.Ingredients)
	matched := make([]string, 0, len(userIngredients))
	for _, ingredient := range userIngredients {
		if strings.Contains(haystack, strings.ToLower(ingredient)) {
			matched = append(matched, ingredient)
		}
	}
	return matched
}

// Annotate builds a RecipeWithMatch for the given user ingredients.
// MatchingCount always equals len(MatchingIngredients).
func Annotate(r Recipe, userIngredients []string) RecipeWithMatch {
	matched := MatchIngredients(r, userIngredients)
	return RecipeWithMatch{
		Recipe:              r,
		MatchingCount:       len(matched),
		MatchingIngredients: matched,
	}
}
