package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithFormat(FormatJSON, &buf); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	defer func() { _ = Init() }()
	_ = SetLevelString("info")

	Get().Named("jobs").Info(context.Background(), "job created", Int64("id", 7), String("slug", "backend-7"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a json line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "job created" {
		t.Errorf("unexpected msg: %v", line["msg"])
	}
	if line["component"] != "jobs" {
		t.Errorf("expected component=jobs, got %v", line["component"])
	}
	if line["slug"] != "backend-7" {
		t.Errorf("expected slug field, got %v", line["slug"])
	}
	if src, _ := line["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("expected source to point at the test file, got %q", src)
	}
}

func TestLoggerUnknownFormat(t *testing.T) {
	if err := InitWithFormat("xml", nil); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithFormat(FormatText, &buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	ctx := context.Background()
	Get().Info(ctx, "hidden")
	Get().With(String("op", "jobs.list")).Warn(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "op=jobs.list") {
		t.Errorf("expected warn line with op field, got %q", out)
	}
}

func TestSetLevelString(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "", "WARN", "warning", "error"} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("level %q: unexpected error %v", lvl, err)
		}
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
	_ = SetLevelString("info")
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error(context.Background(), "discarded", Error(nil))
	if GetOrNop() == nil {
		t.Fatal("GetOrNop returned nil")
	}
}
