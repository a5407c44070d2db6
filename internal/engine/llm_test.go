package engine

import (
	"context"
	"errors"
	"testing"
)

type fakeCompleter struct {
	reply        string
	err          error
	system, user string
}

func (f *fakeCompleter) complete(_ context.Context, system, prompt string, _ float64, _ int) (string, error) {
	f.system, f.user = system, prompt
	return f.reply, f.err
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "🎯 TITLE\nhello", "🎯 TITLE\nhello"},
		{"fenced", "```\nbody\n```", "body"},
		{"markdown fence", "```markdown\n## body\n```", "## body"},
		{"inner fence kept", "text\n```go\nx\n```", "text\n```go\nx\n```"},
		{"whitespace", "  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestChatClientComplete(t *testing.T) {
	f := &fakeCompleter{reply: "summary"}
	c := &ChatClient{client: f, temperature: 0.7, maxTokens: 4000}
	calls := GetMetrics()["llm_calls"]

	got, err := c.Complete(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "summary" || f.system != "sys" || f.user != "user" {
		t.Errorf("got %q system=%q user=%q", got, f.system, f.user)
	}
	if GetMetrics()["llm_calls"] != calls+1 {
		t.Error("llm_calls not incremented")
	}
}

func TestChatClientError(t *testing.T) {
	c := &ChatClient{client: &fakeCompleter{err: errors.New("429")}}
	errs := GetMetrics()["llm_errors"]
	if _, err := c.Complete(context.Background(), "", "x"); err == nil {
		t.Fatal("expected error")
	}
	if GetMetrics()["llm_errors"] != errs+1 {
		t.Error("llm_errors not incremented")
	}
}
