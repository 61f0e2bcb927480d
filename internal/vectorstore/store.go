// Package vectorstore persists course metadata and chunk embeddings and
// serves semantic search over them.
//
// Two chromem-go collections back the store: course_catalog holds one
// document per course (content is the title, so a fuzzy course name
// resolves by vector similarity) and course_content holds one document
// per chunk. A small JSON registry file beside the database keeps the
// full course metadata (links, lesson lists) available across restarts
// without re-reading the source documents.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/studyowl/studyowl/internal/course"
)

const (
	catalogCollection = "course_catalog"
	contentCollection = "course_content"

	registryFile = "courses.json"

	metaCourseTitle  = "course_title"
	metaLessonNumber = "lesson_number"
)

// Store is the dual-index vector store. It is safe for concurrent use:
// chromem collections handle their own locking and the course registry
// is guarded by an RWMutex.
type Store struct {
	db         *chromem.DB
	catalog    *chromem.Collection
	content    *chromem.Collection
	maxResults int
	logger     *slog.Logger

	registryPath string // empty for in-memory stores

	mu      sync.RWMutex
	courses map[string]course.Course // title -> course
}

// Open creates or reopens a store. storagePath selects the on-disk
// location; an empty path gives a volatile in-memory store (used by
// tests). maxResults is the default search limit.
func Open(storagePath string, maxResults int, embed chromem.EmbeddingFunc, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if maxResults < 1 {
		maxResults = 5
	}

	var db *chromem.DB
	var registryPath string
	if storagePath == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(storagePath, false)
		if err != nil {
			return nil, fmt.Errorf("opening vector database at %q: %w", storagePath, err)
		}
		registryPath = filepath.Join(storagePath, registryFile)
	}

	catalog, err := db.GetOrCreateCollection(catalogCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("opening catalog collection: %w", err)
	}
	content, err := db.GetOrCreateCollection(contentCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("opening content collection: %w", err)
	}

	s := &Store{
		db:           db,
		catalog:      catalog,
		content:      content,
		maxResults:   maxResults,
		logger:       logger,
		registryPath: registryPath,
		courses:      make(map[string]course.Course),
	}

	if err := s.loadRegistry(); err != nil {
		return nil, err
	}

	logger.Debug("vector store opened",
		"path", storagePath,
		"courses", len(s.courses),
		"chunks", content.Count())

	return s, nil
}

// AddCourse indexes one course: a catalog document keyed by title plus
// one content document per chunk. Re-adding a title overwrites its
// catalog entry and chunk documents.
func (s *Store) AddCourse(ctx context.Context, c *course.Course, chunks []course.Chunk) error {
	if c == nil || c.Title == "" {
		return fmt.Errorf("course must have a title")
	}

	err := s.catalog.AddDocument(ctx, chromem.Document{
		ID:      c.Title,
		Content: c.Title,
		Metadata: map[string]string{
			"instructor":   c.Instructor,
			"link":         c.Link,
			"lesson_count": strconv.Itoa(len(c.Lessons)),
		},
	})
	if err != nil {
		return fmt.Errorf("indexing catalog entry for %q: %w", c.Title, err)
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, ch := range chunks {
		meta := map[string]string{metaCourseTitle: ch.CourseTitle}
		if ch.LessonNumber != nil {
			meta[metaLessonNumber] = strconv.Itoa(*ch.LessonNumber)
		}
		docs = append(docs, chromem.Document{
			ID:       fmt.Sprintf("%s#%d", ch.CourseTitle, ch.Index),
			Content:  ch.Text,
			Metadata: meta,
		})
	}
	if len(docs) > 0 {
		// Sequential so the embedding rate limiter stays authoritative.
		if err := s.content.AddDocuments(ctx, docs, 1); err != nil {
			return fmt.Errorf("indexing chunks for %q: %w", c.Title, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.Title] = *c
	if err := s.saveRegistryLocked(); err != nil {
		return err
	}

	s.logger.Info("course indexed", "course", c.Title, "chunks", len(docs))
	return nil
}

// ResolveCourseName maps a possibly partial course name to the best
// matching catalog title by vector similarity. ok is false when the
// catalog is empty or the query returns nothing.
func (s *Store) ResolveCourseName(ctx context.Context, name string) (title string, ok bool, err error) {
	if s.catalog.Count() == 0 {
		return "", false, nil
	}
	results, err := s.catalog.Query(ctx, name, 1, nil, nil)
	if err != nil {
		return "", false, fmt.Errorf("resolving course name %q: %w", name, err)
	}
	if len(results) == 0 {
		return "", false, nil
	}
	return results[0].Content, true, nil
}

// Search runs semantic retrieval over the content index. Failures that
// are meaningful to the caller (unresolvable course filter, index
// errors) come back inside the SearchResult rather than as a Go error,
// so tools can relay them verbatim.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) SearchResult {
	cfg := searchConfig{limit: s.maxResults}
	for _, opt := range opts {
		opt(&cfg)
	}

	where := make(map[string]string)
	var result SearchResult

	if cfg.courseName != "" {
		title, ok, err := s.ResolveCourseName(ctx, cfg.courseName)
		if err != nil {
			s.logger.Error("course name resolution failed", "name", cfg.courseName, "error", err)
			return SearchResult{Err: fmt.Sprintf("Search error: %v", err)}
		}
		if !ok {
			return SearchResult{Err: fmt.Sprintf("No course found matching '%s'", cfg.courseName)}
		}
		where[metaCourseTitle] = title
		result.CourseTitle = title
	}
	if cfg.lessonNumber != nil {
		where[metaLessonNumber] = strconv.Itoa(*cfg.lessonNumber)
		result.LessonNumber = cfg.lessonNumber
	}
	if len(where) == 0 {
		where = nil
	}

	total := s.content.Count()
	if total == 0 {
		return result
	}
	n := min(cfg.limit, total)

	hits, err := s.content.Query(ctx, query, n, where, nil)
	if err != nil {
		s.logger.Error("content query failed", "query", query, "error", err)
		return SearchResult{Err: fmt.Sprintf("Search error: %v", err)}
	}

	result.Hits = make([]Hit, 0, len(hits))
	for _, h := range hits {
		hit := Hit{
			Text:        h.Content,
			CourseTitle: h.Metadata[metaCourseTitle],
			Distance:    1 - h.Similarity,
		}
		if v, found := h.Metadata[metaLessonNumber]; found {
			if num, convErr := strconv.Atoi(v); convErr == nil {
				hit.LessonNumber = &num
			}
		}
		result.Hits = append(result.Hits, hit)
	}
	return result
}

// ExistingTitles returns the indexed course titles, sorted.
func (s *Store) ExistingTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	titles := make([]string, 0, len(s.courses))
	for t := range s.courses {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// Count returns the number of indexed courses.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.courses)
}

// ChunkCount returns the number of indexed content chunks.
func (s *Store) ChunkCount() int {
	return s.content.Count()
}

// Outline returns the full metadata of a course by its exact title.
func (s *Store) Outline(title string) (course.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[title]
	return c, ok
}

// CourseLink returns the course-level URL for an exact title, if any.
func (s *Store) CourseLink(title string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[title]
	if !ok || c.Link == "" {
		return "", false
	}
	return c.Link, true
}

// LessonLink returns the URL of one lesson of a course, if any.
func (s *Store) LessonLink(title string, lessonNumber int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[title]
	if !ok {
		return "", false
	}
	for _, l := range c.Lessons {
		if l.Number == lessonNumber && l.Link != "" {
			return l.Link, true
		}
	}
	return "", false
}

// loadRegistry restores course metadata saved by a previous run.
func (s *Store) loadRegistry() error {
	if s.registryPath == "" {
		return nil
	}
	data, err := os.ReadFile(s.registryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading course registry: %w", err)
	}
	if err := json.Unmarshal(data, &s.courses); err != nil {
		return fmt.Errorf("parsing course registry %q: %w", s.registryPath, err)
	}
	return nil
}

// saveRegistryLocked writes the registry atomically. Callers hold s.mu.
func (s *Store) saveRegistryLocked() error {
	if s.registryPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.courses, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding course registry: %w", err)
	}
	tmp := s.registryPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing course registry: %w", err)
	}
	if err := os.Rename(tmp, s.registryPath); err != nil {
		return fmt.Errorf("replacing course registry: %w", err)
	}
	return nil
}
