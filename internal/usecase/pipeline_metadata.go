package usecase

// Pipeline stage names as they appear in response metadata, in execution
// order. Generation is listed whenever an explanation was requested, even
// if the generator produced nothing.
const (
	StageRetrieval  = "retrieval"
	StageReranking  = "reranking"
	StageGeneration = "generation"
)

// Retrieval sources. SourceVector means the similarity index answered the
// query; SourceLexical means the string-matching baseline did.
const (
	SourceVector  = "vector"
	SourceLexical = "lexical"
)

// PipelineMetadata describes what actually happened while assembling a
// recommendation. The availability flags are per-request truth: they
// record whether each subsystem genuinely served this response, not
// whether a call merely returned. On the empty-retrieval short circuit
// only the counters and stage list are populated; the flag pointers stay
// nil and are omitted from the serialized payload.
type PipelineMetadata struct {
	RetrievalCount int      `json:"retrieval_count"`
	RerankedCount  int      `json:"reranked_count"`
	PipelineStages []string `json:"pipeline_stages"`
	RetrieverUsed  *bool    `json:"retriever_used,omitempty"`
	RerankerUsed   *bool    `json:"reranker_used,omitempty"`
	LLMUsed        *bool    `json:"llm_used,omitempty"`
}

// RetrieverStatus reports vector-index health for the health endpoint.
type RetrieverStatus struct {
	Available bool   `json:"available"`
	Type      string `json:"type"`
}

// RerankerStatus reports cross-encoder health. Available false with Loaded
// false covers both "disabled by configuration" and "load failed
// permanently"; a fresh, not-yet-used reranker reports Available true with
// Loaded false.
type RerankerStatus struct {
	Available bool    `json:"available"`
	Loaded    bool    `json:"loaded"`
	Model     *string `json:"model"`
}

// GeneratorStatus reports explanation-generator health.
type GeneratorStatus struct {
	Available bool    `json:"available"`
	Model     *string `json:"model"`
	HasAPIKey bool    `json:"has_api_key"`
}

// PipelineStatus aggregates per-subsystem availability for health
// reporting.
type PipelineStatus struct {
	Retriever RetrieverStatus `json:"retriever"`
	Reranker  RerankerStatus  `json:"reranker"`
	Generator GeneratorStatus `json:"generator"`
}
