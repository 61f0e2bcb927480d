package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/studyowl/studyowl/internal/app"
	"github.com/studyowl/studyowl/internal/config"
)

// runChat starts the interactive loop. One session spans the whole
// process, so follow-up questions see recent history.
func runChat(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("starting application: %w", err)
	}
	defer func() {
		_ = a.Close()
	}()

	analytics := a.RAG.CourseAnalytics()
	fmt.Printf("studyowl ready: %d courses indexed. Ask away (exit to quit).\n", analytics.TotalCourses)

	var sessionID string
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		answer, sources, id, err := a.RAG.Query(ctx, question, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		sessionID = id

		fmt.Println(answer)
		printSources(sources)
		fmt.Println()
	}
	return scanner.Err()
}
