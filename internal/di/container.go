package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fridge-chef/internal/adapter/chef_http"
	"fridge-chef/internal/adapter/corpus"
	"fridge-chef/internal/adapter/images"
	"fridge-chef/internal/adapter/index"
	"fridge-chef/internal/adapter/inference"
	"fridge-chef/internal/adapter/llm"
	"fridge-chef/internal/domain"
	"fridge-chef/internal/infra/config"
	"fridge-chef/internal/infra/httpclient"
	"fridge-chef/internal/usecase"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Corpus
	Store   domain.RecipeStore
	Lexical domain.LexicalSearcher

	// Usecases
	RetrieveUsecase  usecase.RetrieveRecipesUsecase
	RerankUsecase    usecase.RerankRecipesUsecase
	ExplainUsecase   usecase.ExplainRecipesUsecase
	RecommendUsecase usecase.RecommendRecipesUsecase

	// HTTP handler
	Handler *chef_http.Handler
}

// NewApplicationComponents wires the pipeline from config, the loaded
// corpus, and an optional database pool. A nil pool is legitimate: the
// retriever then runs on the lexical baseline and the health endpoint
// reports the vector index as unavailable.
func NewApplicationComponents(
	ctx context.Context,
	cfg *config.Config,
	store *corpus.CSVStore,
	pool *pgxpool.Pool,
	log *slog.Logger,
	version string,
) *ApplicationComponents {
	// Shared HTTP clients with connection pooling
	embedderHTTP := httpclient.NewPooledClient(time.Duration(cfg.Embedder.Timeout) * time.Second)
	rerankHTTP := httpclient.NewPooledClient(time.Duration(cfg.Rerank.Timeout) * time.Second)

	// Retrieval stage: embedder + pgvector index, lexical fallback
	encoder := inference.NewHTTPEmbedder(cfg.Embedder.URL, cfg.Embedder.Model, cfg.Embedder.Dimension, cfg.Embedder.Timeout, embedderHTTP)
	vectorIndex := index.NewPgvectorIndex(pool, log)
	retrieveUsecase := usecase.NewRetrieveRecipesUsecase(store, store, encoder, vectorIndex)

	// Reranking stage: cross-encoder sidecar, lazy one-shot load
	var crossEncoder domain.CrossEncoder
	if cfg.Rerank.Enabled {
		crossEncoder = inference.NewCrossEncoderClient(
			cfg.Rerank.URL,
			cfg.Rerank.Model,
			cfg.Rerank.BatchSize,
			time.Duration(cfg.Rerank.Timeout)*time.Second,
			log,
			rerankHTTP,
		)
		log.Info("reranker_enabled",
			slog.String("url", cfg.Rerank.URL),
			slog.String("model", cfg.Rerank.Model))
	}
	rerankUsecase := usecase.NewRerankRecipesUsecase(crossEncoder, cfg.Rerank.Enabled)

	// Explanation stage: provider client built lazily on first use
	generatorFactory := func(ctx context.Context) (domain.TextGenerator, error) {
		return llm.New(ctx, cfg.LLM)
	}
	explainUsecase := usecase.NewExplainRecipesUsecase(
		generatorFactory,
		cfg.LLM.Enabled,
		cfg.LLM.APIKey != "",
		cfg.LLM.Model,
		time.Duration(cfg.LLM.Timeout)*time.Second,
		usecase.WithExplanationCache(cfg.Cache.Size, time.Duration(cfg.Cache.TTL)*time.Minute),
	)

	recommendUsecase := usecase.NewRecommendRecipesUsecase(
		retrieveUsecase,
		rerankUsecase,
		explainUsecase,
		usecase.RecommendDefaults{
			FinalCount:     cfg.Pipeline.TopK,
			RetrievalCount: cfg.Pipeline.RetrievalTopK,
		},
		time.Duration(cfg.Pipeline.StageTimeout)*time.Second,
	)

	resolver := newImageResolver(ctx, cfg.Images, log)

	handler := chef_http.NewHandler(recommendUsecase, retrieveUsecase, store, store, resolver, cfg.Env, version)

	return &ApplicationComponents{
		Store:            store,
		Lexical:          store,
		RetrieveUsecase:  retrieveUsecase,
		RerankUsecase:    rerankUsecase,
		ExplainUsecase:   explainUsecase,
		RecommendUsecase: recommendUsecase,
		Handler:          handler,
	}
}

// newImageResolver picks presigned S3 URLs when a bucket is configured,
// base-URL joining otherwise, and nothing at all when neither is set.
func newImageResolver(ctx context.Context, cfg config.ImagesConfig, log *slog.Logger) domain.ImageResolver {
	if cfg.S3Bucket != "" {
		resolver, err := images.NewS3Resolver(ctx, cfg.S3Bucket, cfg.Region, cfg.PresignTTL)
		if err != nil {
			log.Warn("s3_image_resolver_unavailable", slog.String("error", err.Error()))
			return nil
		}
		log.Info("image_resolver_configured", slog.String("type", "s3"), slog.String("bucket", cfg.S3Bucket))
		return resolver
	}
	if cfg.BaseURL != "" {
		log.Info("image_resolver_configured", slog.String("type", "base_url"), slog.String("base_url", cfg.BaseURL))
		return images.NewBaseURLResolver(cfg.BaseURL)
	}
	return nil
}
