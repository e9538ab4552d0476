package logger

import (
	"context"
	"log/slog"
	"os"
)

type ContextKey string

const (
	// Request-scoped keys propagated through the retrieval pipeline.
	RetrievalIDKey ContextKey = "lexrag.retrieval.id"
	DocumentIDKey  ContextKey = "lexrag.document.id"
	StageKey       ContextKey = "lexrag.stage"
)

// ContextLogger provides context-aware logging for retrieval requests.
type ContextLogger struct {
	logger      *slog.Logger
	serviceName string
}

// NewContextLogger creates a new context-aware logger.
func NewContextLogger(serviceName string) *ContextLogger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)

	return &ContextLogger{
		logger:      slog.New(handler),
		serviceName: serviceName,
	}
}

// WithContext returns a logger with context values extracted as fields.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := cl.logger.With("service", cl.serviceName)

	var fields []any
	if retrievalID := ctx.Value(RetrievalIDKey); retrievalID != nil {
		fields = append(fields, string(RetrievalIDKey), retrievalID)
	}
	if documentID := ctx.Value(DocumentIDKey); documentID != nil {
		fields = append(fields, string(DocumentIDKey), documentID)
	}
	if stage := ctx.Value(StageKey); stage != nil {
		fields = append(fields, string(StageKey), stage)
	}
	if len(fields) > 0 {
		logger = logger.With(fields...)
	}
	return logger
}

// WithRetrievalID adds the retrieval id to the context for observability.
func WithRetrievalID(ctx context.Context, retrievalID string) context.Context {
	return context.WithValue(ctx, RetrievalIDKey, retrievalID)
}

// WithDocumentID adds the document id to the context for observability.
func WithDocumentID(ctx context.Context, documentID string) context.Context {
	return context.WithValue(ctx, DocumentIDKey, documentID)
}

// WithStage adds the pipeline stage name to the context for observability.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}
