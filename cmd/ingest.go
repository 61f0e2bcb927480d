package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studyowl/studyowl/internal/app"
	"github.com/studyowl/studyowl/internal/config"
)

// runIngest indexes course documents from the given directory, or from
// the configured docs dir when no argument is passed. Already-indexed
// courses are skipped, so re-running over the same corpus is safe.
func runIngest(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	dir := cfg.DocsDir
	if len(args) > 0 {
		dir = args[0]
	}

	// Setup already ingests the configured docs dir; pointing it at the
	// requested one avoids a second pass.
	cfg.DocsDir = dir

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("starting application: %w", err)
	}
	defer func() {
		_ = a.Close()
	}()

	analytics := a.RAG.CourseAnalytics()
	fmt.Printf("Indexed %d courses (%d chunks total)\n", analytics.TotalCourses, a.Store.ChunkCount())
	return nil
}

// runCourses prints what the index currently holds.
func runCourses(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("starting application: %w", err)
	}
	defer func() {
		_ = a.Close()
	}()

	analytics := a.RAG.CourseAnalytics()
	fmt.Printf("Courses: %d\n", analytics.TotalCourses)
	for _, title := range analytics.CourseTitles {
		fmt.Println("  - " + title)
	}
	return nil
}
