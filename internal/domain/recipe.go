package domain

// Recipe is a single corpus entry. The corpus is loaded once at boot and
// never mutated; a recipe's identity is its 0-based position in load order,
// which is also the identifier stored next to its embedding in the vector
// index. Field names mirror the corpus CSV headers and are preserved on the
// wire for frontend compatibility.
type Recipe struct {
	Title              string `json:"Title"`
	Ingredients        string `json:"Ingredients"`
	Instructions       string `json:"Instructions"`
	ImageName          string `json:"Image_Name"`
	CleanedIngredients string `json:"Cleaned_Ingredients"`
}

// IngredientText returns the serialized ingredient list, preferring the
// cleaned variant when present.
func (r Recipe) IngredientText() string {
	if r.CleanedIngredients != "" {
		return r.CleanedIngredients
	}
	return r.Ingredients
}

// RecipeWithMatch annotates a recipe with the user ingredients found in its
// raw ingredient text.
type RecipeWithMatch struct {
	Recipe
	MatchingCount       int      `json:"matchingCount"`
	MatchingIngredients []string `json:"matchingIngredients"`
}

// ScoredRecipe pairs a recipe with a cross-encoder relevance score
// normalized to [0,1].
type ScoredRecipe struct {
	Recipe Recipe
	Score  float32
}

// DietaryPreferences is the fixed set of dietary flags a request may carry.
// The flags are independent; vegan+vegetarian together is accepted and
// collapsed by Labels.
type DietaryPreferences struct {
	Vegan      bool `json:"vegan"`
	Vegetarian bool `json:"vegetarian"`
	GlutenFree bool `json:"glutenFree"`
	DairyFree  bool `json:"dairyFree"`
	NutAllergy bool `json:"nutAllergy"`
}

// Labels returns human-readable names for the active flags. Vegetarian is
// omitted when Vegan is also set.
func (p DietaryPreferences) Labels() []string {
	var labels []string
	if p.Vegan {
		labels = append(labels, "Vegan")
	}
	if p.Vegetarian && !p.Vegan {
		labels = append(labels, "Vegetarian")
	}
	if p.GlutenFree {
		labels = append(labels, "Gluten-Free")
	}
	if p.DairyFree {
		labels = append(labels, "Dairy-Free")
	}
	if p.NutAllergy {
		labels = append(labels, "Nut Allergy")
	}
	return labels
}
