// ABOUTME: This file provides context-aware structured logging for the recommendation pipeline
// ABOUTME: Supports pipeline ID, stage, and model propagation with JSON output format
package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Business context keys for pipeline observability
	// These follow OpenTelemetry semantic conventions with 'chef.' prefix
	PipelineIDKey ContextKey = "chef.pipeline.id"
	StageKey      ContextKey = "chef.pipeline.stage"
	ModelKey      ContextKey = "chef.llm.model"
)

// Context helper functions

// WithPipelineID adds the per-request pipeline ID to context for observability
func WithPipelineID(ctx context.Context, pipelineID string) context.Context {
	return context.WithValue(ctx, PipelineIDKey, pipelineID)
}

// WithStage adds the current pipeline stage to context for observability
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

// WithModel adds the active generation model to context for observability
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ModelKey, model)
}

// contextAttrs extracts the business context keys present in ctx. The logging
// handler appends these so slog's Context call variants pick the fields up
// without each call site repeating them.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if pipelineID, ok := ctx.Value(PipelineIDKey).(string); ok {
		attrs = append(attrs, slog.String(string(PipelineIDKey), pipelineID))
	}
	if stage, ok := ctx.Value(StageKey).(string); ok {
		attrs = append(attrs, slog.String(string(StageKey), stage))
	}
	if model, ok := ctx.Value(ModelKey).(string); ok {
		attrs = append(attrs, slog.String(string(ModelKey), model))
	}
	return attrs
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
