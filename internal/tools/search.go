package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/studyowl/studyowl/internal/course"
	"github.com/studyowl/studyowl/internal/vectorstore"
)

// SearchToolName is the name the model uses to call content search.
const SearchToolName = "search_course_content"

// ContentStore is the slice of the vector store the tools need.
type ContentStore interface {
	Search(ctx context.Context, query string, opts ...vectorstore.SearchOption) vectorstore.SearchResult
	ResolveCourseName(ctx context.Context, name string) (string, bool, error)
	Outline(title string) (course.Course, bool)
	CourseLink(title string) (string, bool)
	LessonLink(title string, lessonNumber int) (string, bool)
}

// SearchInput is the declared schema for search_course_content.
type SearchInput struct {
	Query        string `json:"query" jsonschema_description:"What to search for in the course content"`
	CourseName   string `json:"course_name,omitempty" jsonschema_description:"Course title (partial matches work, e.g. 'MCP', 'Introduction')"`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema_description:"Specific lesson number to search within (e.g. 1, 2, 3)"`
}

// CourseSearch performs semantic search over course content with fuzzy
// course matching and optional lesson filtering. It remembers the
// sources of its last results until the registry resets them.
//
// Safe for concurrent use.
type CourseSearch struct {
	store  ContentStore
	logger *slog.Logger

	mu          sync.Mutex
	lastSources []Source
}

// NewCourseSearch creates the content search tool.
func NewCourseSearch(store ContentStore, logger *slog.Logger) *CourseSearch {
	if logger == nil {
		logger = slog.Default()
	}
	return &CourseSearch{store: store, logger: logger}
}

func (t *CourseSearch) Name() string { return SearchToolName }

func (t *CourseSearch) Description() string {
	return "Search course materials with smart course name matching and lesson filtering"
}

// Execute decodes the raw argument map and runs the search.
func (t *CourseSearch) Execute(ctx context.Context, input map[string]any) (string, error) {
	var in SearchInput
	if err := decodeInput(input, &in); err != nil {
		return "", fmt.Errorf("%s: %w", SearchToolName, err)
	}
	return t.run(ctx, in)
}

func (t *CourseSearch) run(ctx context.Context, in SearchInput) (string, error) {
	if strings.TrimSpace(in.Query) == "" {
		return "", fmt.Errorf("%s: query is required", SearchToolName)
	}

	var opts []vectorstore.SearchOption
	if in.CourseName != "" {
		opts = append(opts, vectorstore.WithCourse(in.CourseName))
	}
	if in.LessonNumber != nil {
		opts = append(opts, vectorstore.WithLesson(*in.LessonNumber))
	}

	res := t.store.Search(ctx, in.Query, opts...)
	if res.IsError() {
		return res.Err, nil
	}
	if res.IsEmpty() {
		var filterInfo strings.Builder
		if in.CourseName != "" {
			fmt.Fprintf(&filterInfo, " in course '%s'", in.CourseName)
		}
		if in.LessonNumber != nil {
			fmt.Fprintf(&filterInfo, " in lesson %d", *in.LessonNumber)
		}
		return fmt.Sprintf("No relevant content found%s.", filterInfo.String()), nil
	}

	t.logger.Debug("content search",
		"query", in.Query,
		"course", res.CourseTitle,
		"hits", len(res.Hits))

	return t.formatResults(res), nil
}

// formatResults renders one [Course - Lesson N] block per hit and
// records deduplicated sources for the registry.
func (t *CourseSearch) formatResults(res vectorstore.SearchResult) string {
	var blocks []string
	var sources []Source
	seen := make(map[string]bool)

	for _, hit := range res.Hits {
		header := "[" + hit.CourseTitle
		if hit.LessonNumber != nil {
			header += fmt.Sprintf(" - Lesson %d", *hit.LessonNumber)
		}
		header += "]"
		blocks = append(blocks, header+"\n"+hit.Text)

		key := hit.CourseTitle
		if hit.LessonNumber != nil {
			key = fmt.Sprintf("%s#%d", hit.CourseTitle, *hit.LessonNumber)
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		src := Source{
			CourseTitle:  hit.CourseTitle,
			LessonNumber: hit.LessonNumber,
			Citation:     len(sources) + 1,
		}
		if link, ok := t.store.CourseLink(hit.CourseTitle); ok {
			src.CourseLink = link
		}
		if hit.LessonNumber != nil {
			if link, ok := t.store.LessonLink(hit.CourseTitle, *hit.LessonNumber); ok {
				src.LessonLink = link
			}
			if c, ok := t.store.Outline(hit.CourseTitle); ok {
				for _, l := range c.Lessons {
					if l.Number == *hit.LessonNumber {
						src.LessonTitle = l.Title
						break
					}
				}
			}
		}
		sources = append(sources, src)
	}

	t.mu.Lock()
	t.lastSources = sources
	t.mu.Unlock()

	return strings.Join(blocks, "\n\n")
}

// LastSources returns the sources recorded by the most recent search.
func (t *CourseSearch) LastSources() []Source {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Source, len(t.lastSources))
	copy(out, t.lastSources)
	return out
}

// ResetSources clears recorded sources.
func (t *CourseSearch) ResetSources() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSources = nil
}

func formatLessonLabel(title string, lessonNumber int) string {
	return fmt.Sprintf("%s - Lesson %d", title, lessonNumber)
}

// decodeInput converts the model's argument map into a typed input via
// a JSON round trip, so numbers arriving as float64 land in int fields.
func decodeInput(input map[string]any, out any) error {
	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("encoding tool input: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid tool input: %w", err)
	}
	return nil
}
