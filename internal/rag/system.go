// Package rag assembles the retrieval pipeline: document ingestion,
// vector search tools, orchestrated generation and session memory.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/studyowl/studyowl/internal/course"
	"github.com/studyowl/studyowl/internal/orchestrator"
	"github.com/studyowl/studyowl/internal/session"
	"github.com/studyowl/studyowl/internal/tools"
)

// Index is the slice of the vector store ingestion and analytics need.
type Index interface {
	AddCourse(ctx context.Context, c *course.Course, chunks []course.Chunk) error
	ExistingTitles() []string
	Count() int
}

// Responder runs one orchestrated query.
type Responder interface {
	Respond(ctx context.Context, query string, history []*ai.Message) (orchestrator.Result, error)
}

// Analytics summarizes the indexed corpus.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System ties the pipeline together. One System serves all sessions.
type System struct {
	processor *course.Processor
	index     Index
	registry  *tools.Registry
	responder Responder
	sessions  *session.Store
	logger    *slog.Logger
}

// New creates a System from its already-constructed parts.
func New(processor *course.Processor, index Index, registry *tools.Registry,
	responder Responder, sessions *session.Store, logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.Default()
	}
	return &System{
		processor: processor,
		index:     index,
		registry:  registry,
		responder: responder,
		sessions:  sessions,
		logger:    logger,
	}
}

// AddCourseDocument ingests a single document into the index.
func (s *System) AddCourseDocument(ctx context.Context, path string) (*course.Course, int, error) {
	c, chunks, err := s.processor.ProcessFile(path)
	if err != nil {
		return nil, 0, err
	}
	if err := s.index.AddCourse(ctx, c, chunks); err != nil {
		return nil, 0, fmt.Errorf("indexing course %q: %w", c.Title, err)
	}
	return c, len(chunks), nil
}

// AddCourseFolder ingests every course document in dir. Documents whose
// titles are already indexed are skipped, so re-running ingestion over
// the same corpus is a no-op. Malformed documents are logged and
// skipped rather than failing the batch. Returns the number of courses
// and chunks added.
func (s *System) AddCourseFolder(ctx context.Context, dir string) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("course folder does not exist", "dir", dir)
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("reading course folder %q: %w", dir, err)
	}

	existing := make(map[string]bool)
	for _, title := range s.index.ExistingTitles() {
		existing[title] = true
	}

	coursesAdded, chunksAdded := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !isCourseFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		c, chunks, err := s.processor.ProcessFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable course document", "file", entry.Name(), "error", err)
			continue
		}
		if existing[c.Title] {
			s.logger.Debug("course already indexed, skipping", "course", c.Title)
			continue
		}

		if err := s.index.AddCourse(ctx, c, chunks); err != nil {
			s.logger.Error("indexing course failed", "course", c.Title, "error", err)
			continue
		}
		existing[c.Title] = true
		coursesAdded++
		chunksAdded += len(chunks)
	}

	s.logger.Info("course folder ingested",
		"dir", dir,
		"courses_added", coursesAdded,
		"chunks_added", chunksAdded)
	return coursesAdded, chunksAdded, nil
}

// Query answers one user question within a session. Source provenance
// is reset before the run and collected afterwards; the exchange is
// appended to session history only when the whole pipeline succeeded.
func (s *System) Query(ctx context.Context, query, sessionID string) (string, []tools.Source, string, error) {
	id := s.sessions.GetOrCreate(sessionID)

	s.registry.ResetSources()

	history := s.sessions.Messages(id)
	res, err := s.responder.Respond(ctx, query, history)
	if err != nil {
		return "", nil, id, fmt.Errorf("answering query: %w", err)
	}

	sources := s.registry.LastSources()
	s.sessions.Append(id, query, res.Answer)

	s.logger.Debug("query completed",
		"session_id", id,
		"tool", res.ToolUsed,
		"sources", len(sources))
	return res.Answer, sources, id, nil
}

// CourseAnalytics reports what the index currently holds.
func (s *System) CourseAnalytics() Analytics {
	return Analytics{
		TotalCourses: s.index.Count(),
		CourseTitles: s.index.ExistingTitles(),
	}
}

// ClearSession drops one conversation's history.
func (s *System) ClearSession(id string) {
	s.sessions.Clear(id)
}

func isCourseFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	default:
		return false
	}
}
