package log

import (
	"context"
	"log/slog"
	"strings"
)

type commandLogContextKey struct{}

// CommandLogContext carries metadata attached to every record a command emits.
type CommandLogContext struct {
	CommandPath string
	CommandVerb string

	Document string
	Format   string
	Query    string
	Profile  string
}

var CommandLogContextKey = commandLogContextKey{}

// WithCommandLogContext merges non-empty fields from update into ctx.
func WithCommandLogContext(ctx context.Context, update CommandLogContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	current := CommandLogContextFromContext(ctx)
	mergeCommandLogContext(&current, update)

	return context.WithValue(ctx, CommandLogContextKey, current)
}

// CommandLogContextFromContext extracts logging metadata from ctx.
func CommandLogContextFromContext(ctx context.Context) CommandLogContext {
	if ctx == nil {
		return CommandLogContext{}
	}

	switch value := ctx.Value(CommandLogContextKey).(type) {
	case CommandLogContext:
		return value
	case *CommandLogContext:
		if value != nil {
			return *value
		}
	}

	return CommandLogContext{}
}

// CommandLogContextAttrs converts context metadata to slog attributes.
func CommandLogContextAttrs(ctx context.Context) []slog.Attr {
	meta := CommandLogContextFromContext(ctx)
	attrs := make([]slog.Attr, 0, 6)

	appendStringAttr(&attrs, "command_path", meta.CommandPath)
	appendStringAttr(&attrs, "command_verb", meta.CommandVerb)
	appendStringAttr(&attrs, "document", meta.Document)
	appendStringAttr(&attrs, "format", meta.Format)
	appendStringAttr(&attrs, "query", meta.Query)
	appendStringAttr(&attrs, "profile", meta.Profile)

	return attrs
}

// LoggerWithContext returns logger decorated with the metadata stored in ctx.
func LoggerWithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	attrs := CommandLogContextAttrs(ctx)
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return logger.With(args...)
}

func mergeCommandLogContext(target *CommandLogContext, update CommandLogContext) {
	mergeStringField(&target.CommandPath, update.CommandPath)
	mergeStringField(&target.CommandVerb, update.CommandVerb)
	mergeStringField(&target.Document, update.Document)
	mergeStringField(&target.Format, update.Format)
	mergeStringField(&target.Query, update.Query)
	mergeStringField(&target.Profile, update.Profile)
}

func mergeStringField(target *string, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	*target = trimmed
}

func appendStringAttr(attrs *[]slog.Attr, key, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	*attrs = append(*attrs, slog.String(key, trimmed))
}
