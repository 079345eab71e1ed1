package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	version = "dev"

	// Global flags
	serverURL string
	timeout   int

	// Recommend command flags
	ingredients []string
	excluded    []string
	topK        int
	noExplain   bool
	useVector   bool
	baseline    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "chefctl",
	Short:   "Operator CLI for the fridge-chef service",
	Version: version,
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Request recipe recommendations from a running server",
	Long: `Request recipe recommendations from a running fridge-chef server.

Examples:
  # Full pipeline with explanation
  chefctl recommend -i egg -i flour -i milk

  # Top 3 without an explanation
  chefctl recommend -i chicken -i garlic --top-k 3 --no-explain

  # Baseline retrieval only (no reranking or explanation)
  chefctl recommend -i egg --baseline`,
	RunE: runRecommend,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-subsystem availability of a running server",
	RunE:  runStatus,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3001", "base URL of the fridge-chef server")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 120, "request timeout in seconds")

	recommendCmd.Flags().StringArrayVarP(&ingredients, "ingredient", "i", nil, "available ingredient (repeatable)")
	recommendCmd.Flags().StringArrayVar(&excluded, "exclude", nil, "ingredient to exclude (repeatable)")
	recommendCmd.Flags().IntVar(&topK, "top-k", 0, "number of recipes to return (server default when 0)")
	recommendCmd.Flags().BoolVar(&noExplain, "no-explain", false, "skip the natural-language explanation")
	recommendCmd.Flags().BoolVar(&useVector, "vector", false, "baseline mode: use vector retrieval instead of lexical")
	recommendCmd.Flags().BoolVar(&baseline, "baseline", false, "retrieval only, no reranking or explanation")

	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(statusCmd)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: time.Duration(timeout) * time.Second}
}

func postJSON(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := httpClient().Post(strings.TrimRight(serverURL, "/")+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("call server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type recipePayload struct {
	Title               string   `json:"Title"`
	MatchingCount       int      `json:"matchingCount"`
	MatchingIngredients []string `json:"matchingIngredients"`
}

func runRecommend(cmd *cobra.Command, args []string) error {
	if len(ingredients) == 0 {
		return fmt.Errorf("at least one --ingredient is required")
	}

	if baseline {
		var resp struct {
			Recommendations []recipePayload `json:"recommendations"`
			Count           int             `json:"count"`
			SearchMethod    string          `json:"search_method"`
		}
		payload := map[string]any{
			"ingredients":       ingredients,
			"use_vector_search": useVector,
		}
		if topK > 0 {
			payload["top_k"] = topK
		}
		if err := postJSON("/api/fridge/recommend", payload, &resp); err != nil {
			return err
		}

		fmt.Printf("%d recipes (search method: %s)\n", resp.Count, resp.SearchMethod)
		printRecipes(resp.Recommendations)
		return nil
	}

	var resp struct {
		Recipes     []recipePayload `json:"recipes"`
		Explanation *string         `json:"explanation"`
		Metadata    struct {
			PipelineStages []string `json:"pipeline_stages"`
			RetrieverUsed  *bool    `json:"retriever_used"`
			RerankerUsed   *bool    `json:"reranker_used"`
			LLMUsed        *bool    `json:"llm_used"`
		} `json:"metadata"`
		Count int `json:"count"`
	}
	payload := map[string]any{
		"ingredients": ingredients,
		"explain":     !noExplain,
	}
	if len(excluded) > 0 {
		payload["excluded_ingredients"] = excluded
	}
	if topK > 0 {
		payload["top_k"] = topK
	}
	if err := postJSON("/api/fridge/rag-recommend", payload, &resp); err != nil {
		return err
	}

	fmt.Printf("%d recipes (stages: %s)\n", resp.Count, strings.Join(resp.Metadata.PipelineStages, " → "))
	printUsedFlags(resp.Metadata.RetrieverUsed, resp.Metadata.RerankerUsed, resp.Metadata.LLMUsed)
	printRecipes(resp.Recipes)
	if resp.Explanation != nil {
		fmt.Printf("\n%s\n", *resp.Explanation)
	}
	return nil
}

func printRecipes(recipes []recipePayload) {
	for i, r := range recipes {
		fmt.Printf("%2d. %s", i+1, r.Title)
		if r.MatchingCount > 0 {
			fmt.Printf("  (matches: %s)", strings.Join(r.MatchingIngredients, ", "))
		}
		fmt.Println()
	}
}

func printUsedFlags(retriever, reranker, llm *bool) {
	flag := func(v *bool) string {
		if v == nil {
			return "-"
		}
		if *v {
			return "yes"
		}
		return "no (degraded)"
	}
	fmt.Printf("vector retrieval: %s | cross-encoder: %s | llm: %s\n",
		flag(retriever), flag(reranker), flag(llm))
}

func runStatus(cmd *cobra.Command, args []string) error {
	resp, err := httpClient().Get(strings.TrimRight(serverURL, "/") + "/health")
	if err != nil {
		return fmt.Errorf("call server: %w", err)
	}
	defer resp.Body.Close()

	var health struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
		Components  struct {
			RAGPipeline struct {
				Retriever struct {
					Available bool   `json:"available"`
					Type      string `json:"type"`
				} `json:"retriever"`
				Reranker struct {
					Available bool    `json:"available"`
					Loaded    bool    `json:"loaded"`
					Model     *string `json:"model"`
				} `json:"reranker"`
				Generator struct {
					Available bool    `json:"available"`
					Model     *string `json:"model"`
					HasAPIKey bool    `json:"has_api_key"`
				} `json:"generator"`
			} `json:"rag_pipeline"`
		} `json:"components"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}

	p := health.Components.RAGPipeline
	fmt.Printf("Status:      %s (%s)\n", health.Status, health.Environment)
	fmt.Printf("Retriever:   available=%t type=%s\n", p.Retriever.Available, p.Retriever.Type)
	fmt.Printf("Reranker:    available=%t loaded=%t model=%s\n", p.Reranker.Available, p.Reranker.Loaded, deref(p.Reranker.Model))
	fmt.Printf("Generator:   available=%t has_api_key=%t model=%s\n", p.Generator.Available, p.Generator.HasAPIKey, deref(p.Generator.Model))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
