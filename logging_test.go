package fsmsim

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	engine, err := NewEngine(CreateTrafficDefinition(),
		WithObserver(NewLoggingObserver(logger.With("fsm_id", "traffic"))))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	engine.Step("go")
	engine.Step("nope")

	output := buf.String()
	for _, want := range []string{
		"fsm reset",
		"initial=Red",
		"fsm transition",
		"from=Red",
		"to=Green",
		"event=go",
		"fsm no eligible transition",
		"fsm_id=traffic",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected log output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestLoggingObserverEvaluationError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	def := NewDefinition().
		State("A").Initial().
		To("A").On("boom").Do("x = 1/0").
		Build()
	engine, err := NewEngine(def, WithObserver(NewLoggingObserver(logger)))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	engine.Step("boom")
	if !strings.Contains(buf.String(), "fsm snippet evaluation failed") {
		t.Errorf("Expected a warning about the failed snippet, got:\n%s", buf.String())
	}
}

func TestLoggingObserverNilLoggerFallsBack(t *testing.T) {
	observer := NewLoggingObserver(nil)
	if observer.logger == nil {
		t.Fatal("Expected a fallback logger")
	}
}
