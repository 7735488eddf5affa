package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewZapLogger_WritesJSONEntries(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewZapLogger(Config{Level: DebugLevel, Format: JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Info("config resolved", "source", "country-config", "fields", 3)
	_ = log.Sync()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log entry, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "config resolved" {
		t.Fatalf("message = %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Fatalf("level = %v", entry["level"])
	}
	if entry["source"] != "country-config" {
		t.Fatalf("source = %v", entry["source"])
	}
}

func TestNewZapLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewZapLogger(Config{Level: WarnLevel, Format: JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")
	_ = log.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one entry, got %d: %q", len(lines), buf.String())
	}
}

func TestNewZapLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewZapLogger(Config{Level: "verbose", Format: JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Debug("hidden")
	log.Info("shown")
	_ = log.Sync()

	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("debug entry should be filtered at info level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatal("info entry should be written")
	}
}

func TestNewZapLogger_RejectsUnknownFormat(t *testing.T) {
	if _, err := NewZapLogger(Config{Level: InfoLevel, Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWithContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewZapLogger(Config{Level: InfoLevel, Format: JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := ContextWithRequestID(context.Background(), "req-42")
	log.WithContext(ctx).Info("handled")
	_ = log.Sync()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry["request_id"] != "req-42" {
		t.Fatalf("request_id = %v", entry["request_id"])
	}
}

func TestWithContext_NoRequestIDReturnsSameLogger(t *testing.T) {
	log := NewNop()
	if got := log.WithContext(context.Background()); got != Logger(log) {
		t.Fatal("expected the same logger when context has no request id")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
	}
	for input, want := range cases {
		got, err := ParseLogLevel(input)
		if err != nil {
			t.Fatalf("ParseLogLevel(%q) unexpected error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseLogLevel(%q) = %q, want %q", input, got, want)
		}
	}
	if _, err := ParseLogLevel("trace"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestParseLogFormat(t *testing.T) {
	if got, err := ParseLogFormat("console"); err != nil || got != TextFormat {
		t.Fatalf("ParseLogFormat(console) = %q, %v", got, err)
	}
	if got, err := ParseLogFormat("json"); err != nil || got != JSONFormat {
		t.Fatalf("ParseLogFormat(json) = %q, %v", got, err)
	}
	if _, err := ParseLogFormat("yaml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
