// Package cmd contains the command-line interface: argument routing,
// logger setup and the individual command handlers.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "0.1.0"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the entry point called from main. It routes the first
// argument to a command handler; without arguments it starts the
// interactive chat loop.
func Execute() error {
	// version and help work even when configuration is broken.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			printVersionInfo(os.Stdout)
			return nil
		case "help", "--help", "-h":
			printHelp(os.Stdout)
			return nil
		}
	}

	logger := initLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := checkRequiredEnv(cfg); err != nil {
		return err
	}

	ctx := context.Background()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "ask":
			return runAsk(ctx, cfg, logger, os.Args[2:])
		case "ingest":
			return runIngest(ctx, cfg, logger, os.Args[2:])
		case "courses":
			return runCourses(ctx, cfg, logger)
		case "chat":
			return runChat(ctx, cfg, logger)
		default:
			printHelp(os.Stderr)
			return fmt.Errorf("unknown command %q", os.Args[1])
		}
	}

	return runChat(ctx, cfg, logger)
}

// initLogger builds the root logger. DEBUG in the environment switches
// on debug-level output; logs always go to stderr so command output on
// stdout stays clean.
func initLogger() *slog.Logger {
	lc := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		lc.Level = slog.LevelDebug
	}
	return log.New(lc)
}

// checkRequiredEnv verifies provider credentials before any network
// call, so the failure is immediate and instructive.
func checkRequiredEnv(cfg *config.Config) error {
	if cfg.Provider == config.ProviderOllama {
		return nil // local provider, no key needed
	}
	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "To set your API key:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Get your API key at: https://ai.google.dev/")
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	return nil
}

func printVersionInfo(w io.Writer) {
	fmt.Fprintf(w, "studyowl %s\n", AppVersion)
	fmt.Fprintf(w, "Build: %s\n", BuildTime)
	fmt.Fprintf(w, "Commit: %s\n", GitCommit)
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "studyowl - ask questions about your course materials")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  studyowl                  start an interactive chat session")
	fmt.Fprintln(w, "  studyowl chat             same as above")
	fmt.Fprintln(w, "  studyowl ask <question>   answer a single question and exit")
	fmt.Fprintln(w, "  studyowl ingest [dir]     index course documents (default: configured docs dir)")
	fmt.Fprintln(w, "  studyowl courses          list indexed courses")
	fmt.Fprintln(w, "  studyowl version          show version information")
	fmt.Fprintln(w, "  studyowl help             show this help")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  GEMINI_API_KEY   API key for the gemini provider")
	fmt.Fprintln(w, "  DEBUG            enable debug logging when set")
}
