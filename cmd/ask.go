package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/studyowl/studyowl/internal/app"
	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/tools"
)

// runAsk answers a single question and exits.
func runAsk(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("usage: studyowl ask <question>")
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("starting application: %w", err)
	}
	defer func() {
		_ = a.Close()
	}()

	answer, sources, _, err := a.RAG.Query(ctx, question, "")
	if err != nil {
		return err
	}

	fmt.Println(answer)
	printSources(sources)
	return nil
}

func printSources(sources []tools.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for _, s := range sources {
		line := fmt.Sprintf("  [%d] %s", s.Citation, s.Label())
		if link := s.LessonLink; link != "" {
			line += " <" + link + ">"
		} else if s.CourseLink != "" {
			line += " <" + s.CourseLink + ">"
		}
		fmt.Println(line)
	}
}
