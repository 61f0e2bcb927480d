package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/log"
)

func TestPrintVersionInfo(t *testing.T) {
	var sb strings.Builder
	printVersionInfo(&sb)

	out := sb.String()
	if !strings.Contains(out, "studyowl") || !strings.Contains(out, AppVersion) {
		t.Errorf("version output missing name or version:\n%s", out)
	}
}

func TestPrintHelp_ListsCommands(t *testing.T) {
	var sb strings.Builder
	printHelp(&sb)

	out := sb.String()
	for _, cmd := range []string{"ask", "ingest", "courses", "chat", "version", "help"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("help output missing command %q", cmd)
		}
	}
}

func TestRunAsk_EmptyQuestion(t *testing.T) {
	cfg := &config.Config{}

	err := runAsk(context.Background(), cfg, log.NewNop(), nil)
	if err == nil {
		t.Fatal("expected usage error for empty question")
	}
	if !strings.Contains(err.Error(), "usage") {
		t.Errorf("error = %v", err)
	}
}

func TestCheckRequiredEnv_OllamaNeedsNoKey(t *testing.T) {
	cfg := &config.Config{Provider: config.ProviderOllama}
	if err := checkRequiredEnv(cfg); err != nil {
		t.Errorf("ollama provider must not require an API key: %v", err)
	}
}
