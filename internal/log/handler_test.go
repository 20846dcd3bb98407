package log

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDualHandlerMirrorsErrorsToSecondary(t *testing.T) {
	t.Cleanup(EnableErrorMirroring)
	EnableErrorMirroring()

	var primaryBuf bytes.Buffer
	var secondaryBuf bytes.Buffer

	primary := slog.NewTextHandler(&primaryBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	secondary := slog.NewTextHandler(&secondaryBuf, &slog.HandlerOptions{Level: slog.LevelError})
	logger := slog.New(NewDualHandler(primary, secondary))

	logger.Error("boom", slog.String("foo", "bar"))
	logger.Info("still going")

	if got := primaryBuf.String(); !strings.Contains(got, "boom") || !strings.Contains(got, "still going") {
		t.Fatalf("expected primary log to contain both messages, got %q", got)
	}

	if got := secondaryBuf.String(); !strings.Contains(got, "boom") {
		t.Fatalf("expected secondary log to contain error message, got %q", got)
	}

	if got := secondaryBuf.String(); strings.Contains(got, "still going") {
		t.Fatalf("secondary log should not contain info message, got %q", got)
	}
}

func TestDualHandlerCanDisableMirroring(t *testing.T) {
	t.Cleanup(EnableErrorMirroring)
	DisableErrorMirroring()

	var primaryBuf bytes.Buffer
	var secondaryBuf bytes.Buffer

	primary := slog.NewTextHandler(&primaryBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	secondary := slog.NewTextHandler(&secondaryBuf, &slog.HandlerOptions{Level: slog.LevelError})
	logger := slog.New(NewDualHandler(primary, secondary))

	logger.Error("boom")

	if got := primaryBuf.String(); !strings.Contains(got, "boom") {
		t.Fatalf("expected primary log to contain error message, got %q", got)
	}

	if got := secondaryBuf.String(); got != "" {
		t.Fatalf("expected secondary log to be empty when mirroring disabled, got %q", got)
	}
}

func TestFriendlyHandlerLeadsWithPath(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewFriendlyErrorHandler(&buf))

	logger.Error("document does not decode",
		slog.String("document", "model.json"),
		slog.String("suggestion", "check the item id"),
		slog.String("path", "sections[1].items[0].id"),
	)

	want := "Error: document does not decode\n" +
		"  path: sections[1].items[0].id\n" +
		"  suggestion: check the item id\n" +
		"  document: model.json\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected friendly output:\n%s", got)
	}
}

func TestNewLoggerWritesTraceToFile(t *testing.T) {
	t.Cleanup(EnableErrorMirroring)
	EnableErrorMirroring()

	path := filepath.Join(t.TempDir(), "logs", "tablemodel.log")
	var errOut bytes.Buffer

	logger, closeFn, err := NewLogger(Options{Level: "trace", File: path, ErrOut: &errOut})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Log(context.Background(), LevelTrace, "cell bound")
	logger.Error("load failed")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if got := string(content); !strings.Contains(got, "level=TRACE") || !strings.Contains(got, "load failed") {
		t.Fatalf("expected trace and error records in log file, got %q", got)
	}
	if got := errOut.String(); got != "Error: load failed\n" {
		t.Fatalf("expected mirrored error, got %q", got)
	}
}

func TestLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithCommandLogContext(context.Background(), CommandLogContext{CommandVerb: "view"})
	ctx = WithCommandLogContext(ctx, CommandLogContext{Document: " model.yaml ", Query: "  "})

	LoggerWithContext(ctx, base).Info("loaded")

	got := buf.String()
	if !strings.Contains(got, "command_verb=view") || !strings.Contains(got, "document=model.yaml") {
		t.Fatalf("expected command metadata, got %q", got)
	}
	if strings.Contains(got, "query=") {
		t.Fatalf("blank fields must be skipped, got %q", got)
	}
}
