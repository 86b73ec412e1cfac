package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	dom "github.com/haflows/tasknotify/internal/domain"
)

type scriptedGen struct {
	response string
	err      error
	prompts  []string
}

func (g *scriptedGen) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.response, g.err
}

func TestAnalyzeTaskParsesResponse(t *testing.T) {
	gen := &scriptedGen{response: `{"priority":"High","suggested_detail":"Call the dentist before noon","due_date_suggestion":"tomorrow 10:00 AM"}`}
	s := NewSummarizer(gen)

	a, err := s.AnalyzeTask(context.Background(), "dentist", "call them")
	if err != nil {
		t.Fatal(err)
	}
	if a.Priority != dom.PriorityHigh {
		t.Errorf("priority = %s", a.Priority)
	}
	if a.DueDateSuggestion == nil || *a.DueDateSuggestion != "tomorrow 10:00 AM" {
		t.Errorf("due suggestion = %v", a.DueDateSuggestion)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "dentist") {
		t.Errorf("prompt should embed the task title: %q", gen.prompts)
	}
}

func TestAnalyzeTaskStripsCodeFences(t *testing.T) {
	gen := &scriptedGen{response: "```json\n{\"priority\":\"Low\",\"suggested_detail\":\"x\",\"due_date_suggestion\":null}\n```"}
	s := NewSummarizer(gen)

	a, err := s.AnalyzeTask(context.Background(), "t", "")
	if err != nil {
		t.Fatal(err)
	}
	if a.Priority != dom.PriorityLow || a.DueDateSuggestion != nil {
		t.Errorf("analysis = %+v", a)
	}
}

func TestAnalyzeTaskRejectsInvalidPriority(t *testing.T) {
	gen := &scriptedGen{response: `{"priority":"Urgent","suggested_detail":"x","due_date_suggestion":null}`}
	s := NewSummarizer(gen)

	if _, err := s.AnalyzeTask(context.Background(), "t", ""); !errors.Is(err, ErrGeneration) {
		t.Errorf("err = %v, want ErrGeneration", err)
	}
}

func TestAnalyzeTaskRejectsNonJSON(t *testing.T) {
	gen := &scriptedGen{response: "Sure! Here is my analysis of your task."}
	s := NewSummarizer(gen)

	if _, err := s.AnalyzeTask(context.Background(), "t", ""); !errors.Is(err, ErrGeneration) {
		t.Errorf("err = %v, want ErrGeneration", err)
	}
}

func TestAnalyzeTaskPassesGeneratorErrorThrough(t *testing.T) {
	gen := &scriptedGen{err: ErrNotConfigured}
	s := NewSummarizer(gen)

	if _, err := s.AnalyzeTask(context.Background(), "t", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured to stay matchable", err)
	}
}

func TestComposeDigest(t *testing.T) {
	gen := &scriptedGen{response: `{"subject":"今日のタスク","html_body":"<p>Alice様、おはようございます</p>","line_message":"Alice様 本日のタスクです"}`}
	s := NewSummarizer(gen)

	due := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	tasks := []dom.Task{
		{Title: "Ship release", Priority: dom.PriorityHigh, DueDate: &due},
		{Title: "Water plants", Priority: dom.PriorityLow},
	}

	d, err := s.ComposeDigest(context.Background(), "Alice", tasks)
	if err != nil {
		t.Fatal(err)
	}
	if d.Subject == "" || d.HTMLBody == "" || d.LineMessage == "" {
		t.Errorf("digest = %+v", d)
	}

	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "Alice様") {
		t.Error("prompt should address the user by name")
	}
	if !strings.Contains(prompt, "- [High] Ship release (Due: 2026-08-30T09:00:00Z)") {
		t.Errorf("prompt task line missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "- [Low] Water plants (Due: None)") {
		t.Errorf("prompt should mark missing due dates:\n%s", prompt)
	}
}

func TestComposeDigestDefaultsUserName(t *testing.T) {
	gen := &scriptedGen{response: `{"subject":"s","html_body":"b","line_message":"l"}`}
	s := NewSummarizer(gen)

	if _, err := s.ComposeDigest(context.Background(), "  ", []dom.Task{{Title: "x"}}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gen.prompts[0], "ユーザー様") {
		t.Error("blank names should fall back to the generic honorific")
	}
}

func TestComposeDigestRejectsIncompleteContent(t *testing.T) {
	gen := &scriptedGen{response: `{"subject":"s","html_body":"","line_message":"l"}`}
	s := NewSummarizer(gen)

	if _, err := s.ComposeDigest(context.Background(), "Alice", []dom.Task{{Title: "x"}}); !errors.Is(err, ErrGeneration) {
		t.Errorf("err = %v, want ErrGeneration", err)
	}
}
