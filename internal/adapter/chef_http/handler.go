package chef_http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"fridge-chef/internal/domain"
	"fridge-chef/internal/usecase"
)

// Handler serves the recommendation API. All pipeline failure handling
// lives in the usecases; the handler only binds, validates, and shapes
// the wire payloads. Field names follow the corpus CSV headers and the
// frontend's existing contract.
type Handler struct {
	recommend usecase.RecommendRecipesUsecase
	retrieve  usecase.RetrieveRecipesUsecase
	store     domain.RecipeStore
	lexical   domain.LexicalSearcher
	resolver  domain.ImageResolver
	env       string
	version   string
}

func NewHandler(
	recommend usecase.RecommendRecipesUsecase,
	retrieve usecase.RetrieveRecipesUsecase,
	store domain.RecipeStore,
	lexical domain.LexicalSearcher,
	resolver domain.ImageResolver,
	env, version string,
) *Handler {
	return &Handler{
		recommend: recommend,
		retrieve:  retrieve,
		store:     store,
		lexical:   lexical,
		resolver:  resolver,
		env:       env,
		version:   version,
	}
}

// Register attaches all routes to the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/", h.ServiceInfo)
	e.GET("/health", h.Health)
	e.GET("/api/recipes", h.ListRecipes)
	e.GET("/api/recipes/count", h.CountRecipes)
	e.GET("/api/recipes/:position/image", h.RecipeImage)
	e.POST("/api/fridge/recommend", h.Recommend)
	e.POST("/api/fridge/rag-recommend", h.RAGRecommend)
}

// RAGRecommendRequest is the full-pipeline request body. Explain defaults
// to true when omitted, matching the frontend's expectations.
type RAGRecommendRequest struct {
	Ingredients         []string                   `json:"ingredients"`
	Preferences         *domain.DietaryPreferences `json:"preferences"`
	ExcludedIngredients []string                   `json:"excluded_ingredients"`
	Explain             *bool                      `json:"explain"`
	TopK                int                        `json:"top_k"`
	RetrievalTopK       int                        `json:"retrieval_top_k"`
}

// RAGRecommendResponse carries the assembled pipeline result. Explanation
// is null, not omitted, when no explanation was produced.
type RAGRecommendResponse struct {
	Recipes     []domain.RecipeWithMatch `json:"recipes"`
	Explanation *string                  `json:"explanation"`
	Metadata    usecase.PipelineMetadata `json:"metadata"`
	Count       int                      `json:"count"`
}

// RAGRecommend runs the full retrieval → rerank → explain pipeline.
// (POST /api/fridge/rag-recommend)
func (h *Handler) RAGRecommend(c echo.Context) error {
	var req RAGRecommendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ingredients, err := cleanIngredients(req.Ingredients)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	input := usecase.RecommendRecipesInput{
		Ingredients:         ingredients,
		ExcludedIngredients: req.ExcludedIngredients,
		FinalCount:          req.TopK,
		RetrievalCount:      req.RetrievalTopK,
		Explain:             req.Explain == nil || *req.Explain,
	}
	if req.Preferences != nil {
		input.Preferences = *req.Preferences
	}

	output := h.recommend.Execute(c.Request().Context(), input)

	resp := RAGRecommendResponse{
		Recipes:  output.Recipes,
		Metadata: output.Metadata,
		Count:    len(output.Recipes),
	}
	if output.Explanation != "" {
		resp.Explanation = &output.Explanation
	}
	return c.JSON(http.StatusOK, resp)
}

// RecommendRequest is the baseline request body: retrieval only, no
// reranking or explanation.
type RecommendRequest struct {
	Ingredients     []string `json:"ingredients"`
	UseVectorSearch bool     `json:"use_vector_search"`
	TopK            int      `json:"top_k"`
}

// RecommendResponse mirrors the baseline endpoint's historical shape.
type RecommendResponse struct {
	Recommendations []domain.RecipeWithMatch `json:"recommendations"`
	Count           int                      `json:"count"`
	UserIngredients []string                 `json:"userIngredients"`
	SearchMethod    string                   `json:"search_method"`
}

// Recommend serves the baseline recommendation: lexical matching by
// default, vector retrieval on request (still degrading to lexical when
// the index cannot serve).
// (POST /api/fridge/recommend)
func (h *Handler) Recommend(c echo.Context) error {
	var req RecommendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ingredients, err := cleanIngredients(req.Ingredients)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	var (
		annotated []domain.RecipeWithMatch
		method    string
	)
	if req.UseVectorSearch {
		out := h.retrieve.Execute(c.Request().Context(), usecase.RetrieveRecipesInput{
			Ingredients: ingredients,
			Limit:       topK,
		})
		annotated = make([]domain.RecipeWithMatch, len(out.Recipes))
		for i, r := range out.Recipes {
			annotated[i] = domain.Annotate(r, ingredients)
		}
		method = out.Source
	} else {
		matches, err := h.lexical.SearchByIngredients(c.Request().Context(), ingredients, topK)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "search failed"})
		}
		annotated = matches
		method = usecase.SourceLexical
	}

	return c.JSON(http.StatusOK, RecommendResponse{
		Recommendations: annotated,
		Count:           len(annotated),
		UserIngredients: ingredients,
		SearchMethod:    method,
	})
}

// ListRecipes pages through the corpus in load order.
// (GET /api/recipes?limit=&offset=)
func (h *Handler) ListRecipes(c echo.Context) error {
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)
	if limit <= 0 || limit > 500 || offset < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be in [1,500] and offset >= 0"})
	}

	recipes, err := h.store.GetAll(c.Request().Context(), offset+limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read corpus"})
	}
	if offset >= len(recipes) {
		recipes = []domain.Recipe{}
	} else {
		recipes = recipes[offset:]
	}

	return c.JSON(http.StatusOK, map[string]any{
		"recipes": recipes,
		"count":   len(recipes),
	})
}

// CountRecipes reports the corpus size.
// (GET /api/recipes/count)
func (h *Handler) CountRecipes(c echo.Context) error {
	count, err := h.store.Count(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to count corpus"})
	}
	return c.JSON(http.StatusOK, map[string]int{"count": count})
}

// RecipeImage redirects to the resolved image URL for a recipe.
// (GET /api/recipes/:position/image)
func (h *Handler) RecipeImage(c echo.Context) error {
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil || position < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "position must be a non-negative integer"})
	}

	recipe, err := h.store.ByPosition(c.Request().Context(), position)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "recipe not found"})
	}
	if h.resolver == nil || recipe.ImageName == "" {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no image available"})
	}

	url, err := h.resolver.Resolve(c.Request().Context(), recipe.ImageName)
	if err != nil {
		slog.Warn("image_resolution_failed",
			slog.Int("position", position),
			slog.String("image_name", recipe.ImageName),
			slog.String("error", err.Error()))
		return c.JSON(http.StatusNotFound, map[string]string{"error": "image not resolvable"})
	}
	return c.Redirect(http.StatusFound, url)
}

// Health reports overall and per-subsystem availability. Degraded
// subsystems do not fail the check: the service is healthy as long as it
// can answer requests at all.
// (GET /health)
func (h *Handler) Health(c echo.Context) error {
	status := h.recommend.Status(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.env,
		"components": map[string]any{
			"rag_pipeline": status,
		},
	})
}

// ServiceInfo answers the root path with service identity.
// (GET /)
func (h *Handler) ServiceInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "fridge-chef",
		"version": h.version,
		"docs":    "/health",
	})
}

// cleanIngredients trims entries and drops blanks; an effectively empty
// list is a client error, the one validation the pipeline refuses to
// degrade around.
func cleanIngredients(raw []string) ([]string, error) {
	cleaned := make([]string, 0, len(raw))
	for _, ing := range raw {
		if trimmed := strings.TrimSpace(ing); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, errInvalidIngredients
	}
	return cleaned, nil
}

var errInvalidIngredients = errors.New("ingredients must contain at least one non-empty entry")

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return value
}
