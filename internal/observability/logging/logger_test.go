package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerTagsService(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "worker", "info")

	logger.Info("document_processed", "document_id", "doc-1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, buf.String())
	}
	if record["service"] != "worker" {
		t.Fatalf("service = %v", record["service"])
	}
	if record["document_id"] != "doc-1" {
		t.Fatalf("document_id = %v", record["document_id"])
	}
	if _, present := record["source"]; present {
		t.Fatalf("source locations should be off outside debug level")
	}
}

func TestDebugLevelAddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "api", "debug")

	logger.Debug("cache_state")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, buf.String())
	}
	if _, present := record["source"]; !present {
		t.Fatalf("debug level should include source locations: %v", record)
	}
}
