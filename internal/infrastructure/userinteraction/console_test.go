package userinteraction

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"agent-platform/internal/domain/entity"

	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

func TestReadQuery(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("  find go jobs \nlast line"), &out)

	q, err := c.ReadQuery()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q != "find go jobs" {
		t.Errorf("expected trimmed query, got %q", q)
	}

	q, err = c.ReadQuery()
	if err != nil || q != "last line" {
		t.Errorf("expected unterminated last line, got %q, %v", q, err)
	}

	if _, err := c.ReadQuery(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
	if !strings.Contains(out.String(), "> ") {
		t.Error("expected prompt to be printed")
	}
}

func TestShowResult_Success(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out)

	c.ShowResult(entity.ExecutionResult{
		Status:     entity.StatusSuccess,
		Agent:      entity.AgentCareer,
		Confidence: 0.95,
		Reasoning:  "Career/job related query",
		Result:     map[string]any{"total_jobs": 3},
	})

	got := out.String()
	for _, want := range []string{"✓ career", "confidence 0.95", "Career/job related query", `"total_jobs": 3`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestShowResult_Error(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out)

	c.ShowResult(entity.ExecutionResult{
		Status:  entity.StatusError,
		Message: "unknown agent: weather",
		Routing: &entity.RoutingDecision{Agent: "weather", Source: entity.SourceClassifier, Confidence: 0.8, Reasoning: "LLM classification"},
	})

	got := out.String()
	if !strings.Contains(got, "✗ unknown agent: weather") {
		t.Errorf("expected error line, got:\n%s", got)
	}
	if !strings.Contains(got, "routed to weather via classifier (0.80)") {
		t.Errorf("expected routing line, got:\n%s", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc\n..." {
		t.Errorf("truncate() = %q", got)
	}
}
