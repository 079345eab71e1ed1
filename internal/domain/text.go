package domain

import "strings"

// CleanIngredientText strips the list-literal punctuation left over from
// the corpus CSV's serialized ingredient arrays.
func CleanIngredientText(s string) string {
	return ingredientCleaner.Replace(s)
}

var ingredientCleaner = strings.NewReplacer("[", "", "]", "", "'", "")

// TruncateWords caps s at max whitespace-separated words, appending an
// ellipsis when content was dropped.
func TruncateWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ") + "..."
}

// TruncateChars caps s at max characters (runes, not bytes), appending an
// ellipsis when content was dropped.
func TruncateChars(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
