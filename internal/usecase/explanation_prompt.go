package usecase

import (
	"fmt"
	"strings"

	"fridge-chef/internal/domain"
)

// Prompt layout limits. Ten recipes with capped excerpts keep the context
// block well under the output token budget of every supported provider.
const (
	maxPromptRecipes       = 10
	promptIngredientChars  = 200
	promptInstructionChars = 150
)

const explanationSystemPrompt = `You are a professional chef and culinary advisor. You recommend recipes based on the user's available ingredients and explain why these recipes were selected.

Your task:
1. Explain why the recommended recipes were chosen
2. Specify which ingredients match
3. If any ingredients are missing, mention them and suggest alternatives
4. Pay attention to user preferences (vegan, gluten-free, etc.)
5. Use a concise, clear, and friendly tone (English)

Response format:
- A brief explanation for each recipe (1-2 sentences)
- A general summary (why these recipes were recommended)
- Missing ingredients and alternatives (if any)
`

// buildExplanationPrompt renders the full generation prompt: the fixed
// culinary-advisor instruction, the user's context (ingredients, active
// dietary labels, exclusions), and up to ten numbered recipes with capped
// ingredient and preparation excerpts.
func buildExplanationPrompt(
	ingredients []string,
	recipes []domain.Recipe,
	preferences domain.DietaryPreferences,
	excluded []string,
) string {
	contextParts := []string{"**Available Ingredients:** " + strings.Join(ingredients, ", ")}
	if labels := preferences.Labels(); len(labels) > 0 {
		contextParts = append(contextParts, "**Dietary Preferences:** "+strings.Join(labels, ", "))
	}
	if len(excluded) > 0 {
		contextParts = append(contextParts, "**Excluded Ingredients:** "+strings.Join(excluded, ", "))
	}

	var recipeBlock strings.Builder
	recipeBlock.WriteString("\n\n**Recommended Recipes:**\n")
	limit := len(recipes)
	if limit > maxPromptRecipes {
		limit = maxPromptRecipes
	}
	for i := 0; i < limit; i++ {
		recipe := recipes[i]
		fmt.Fprintf(&recipeBlock, "\n%d. **%s**\n", i+1, recipe.Title)
		fmt.Fprintf(&recipeBlock, "   Ingredients: %s\n",
			domain.TruncateChars(domain.CleanIngredientText(recipe.IngredientText()), promptIngredientChars))
		if recipe.Instructions != "" {
			fmt.Fprintf(&recipeBlock, "   Preparation: %s\n",
				domain.TruncateChars(recipe.Instructions, promptInstructionChars))
		}
	}

	var prompt strings.Builder
	prompt.WriteString(explanationSystemPrompt)
	prompt.WriteString("\n\n---\n\n**User Information:**\n")
	prompt.WriteString(strings.Join(contextParts, "\n"))
	prompt.WriteString("\n")
	prompt.WriteString(recipeBlock.String())
	prompt.WriteString("\n\n---\n\nPlease explain why these recipes were recommended. Use a concise, clear, and friendly tone. Respond in English.")
	return prompt.String()
}
