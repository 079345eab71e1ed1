package usecase

import (
	"strings"

	"fridge-chef/internal/domain"
)

// IngredientQuery renders an ingredient list as the natural-language query
// the scoring and embedding models are conditioned on. The phrasing is a
// fixed policy, not cosmetics: cross-encoders are trained on sentence-like
// queries, so "Recipe with garlic and chicken" scores differently than a
// bare comma list.
func IngredientQuery(ingredients []string) string {
	switch n := len(ingredients); {
	case n == 0:
		return ""
	case n == 1:
		return "Recipe with " + ingredients[0]
	case n <= 3:
		return "Recipe with " + strings.Join(ingredients[:n-1], ", ") + " and " + ingredients[n-1]
	default:
		head := ingredients
		if len(head) > 5 {
			head = head[:5]
		}
		return "Recipe with ingredients: " + strings.Join(head, ", ") + " and more"
	}
}

// candidateTextInstructionWords caps the instructions excerpt so title and
// ingredients stay dominant in the scored passage.
const candidateTextInstructionWords = 300

// CandidateText renders a recipe as the passage text scored against an
// ingredient query. Also used when embedding recipes for the vector index
// so that indexed passages match what the reranker sees.
func CandidateText(r domain.Recipe) string {
	parts := make([]string, 0, 3)
	if r.Title != "" {
		parts = append(parts, r.Title)
	}
	if text := r.IngredientText(); text != "" {
		parts = append(parts, "Ingredients: "+domain.CleanIngredientText(text))
	}
	if r.Instructions != "" {
		parts = append(parts, "Preparation: "+domain.TruncateWords(r.Instructions, candidateTextInstructionWords))
	}
	return strings.Join(parts, " ")
}
