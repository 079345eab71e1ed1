// Package api embeds the service's OpenAPI contract. The document is the
// source of truth for request validation: handlers bind structs, the
// contract rejects malformed bodies before they get there.
package api

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var spec []byte

// Load parses and validates the embedded contract. Called once at startup;
// a broken document is a build defect, not a runtime condition.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse openapi contract: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi contract: %w", err)
	}
	return doc, nil
}
