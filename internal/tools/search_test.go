package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/studyowl/studyowl/internal/course"
	"github.com/studyowl/studyowl/internal/log"
	"github.com/studyowl/studyowl/internal/vectorstore"
)

// fakeStore scripts the vector store behaviour for tool tests.
type fakeStore struct {
	result       vectorstore.SearchResult
	resolveTitle string
	resolveOK    bool
	resolveErr   error
	courses      map[string]course.Course

	gotQuery string
	gotOpts  int
}

func (f *fakeStore) Search(_ context.Context, query string, opts ...vectorstore.SearchOption) vectorstore.SearchResult {
	f.gotQuery = query
	f.gotOpts = len(opts)
	return f.result
}

func (f *fakeStore) ResolveCourseName(context.Context, string) (string, bool, error) {
	return f.resolveTitle, f.resolveOK, f.resolveErr
}

func (f *fakeStore) Outline(title string) (course.Course, bool) {
	c, ok := f.courses[title]
	return c, ok
}

func (f *fakeStore) CourseLink(title string) (string, bool) {
	c, ok := f.courses[title]
	if !ok || c.Link == "" {
		return "", false
	}
	return c.Link, true
}

func (f *fakeStore) LessonLink(title string, n int) (string, bool) {
	c, ok := f.courses[title]
	if !ok {
		return "", false
	}
	for _, l := range c.Lessons {
		if l.Number == n && l.Link != "" {
			return l.Link, true
		}
	}
	return "", false
}

func mlCourse() course.Course {
	return course.Course{
		Title: "Introduction to Machine Learning",
		Link:  "https://example.com/ml",
		Lessons: []course.Lesson{
			{Number: 1, Title: "Linear Regression", Link: "https://example.com/ml/1"},
			{Number: 2, Title: "Decision Trees"},
		},
	}
}

func TestCourseSearch_FormatsHitsAndSources(t *testing.T) {
	store := &fakeStore{
		result: vectorstore.SearchResult{
			Hits: []vectorstore.Hit{
				{Text: "regression minimizes error", CourseTitle: "Introduction to Machine Learning", LessonNumber: intptr(1)},
				{Text: "more about regression", CourseTitle: "Introduction to Machine Learning", LessonNumber: intptr(1)},
				{Text: "trees split greedily", CourseTitle: "Introduction to Machine Learning", LessonNumber: intptr(2)},
			},
		},
		courses: map[string]course.Course{"Introduction to Machine Learning": mlCourse()},
	}
	tool := NewCourseSearch(store, log.NewNop())

	out, err := tool.Execute(context.Background(), map[string]any{"query": "regression"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	blocks := strings.Split(out, "\n\n")
	if len(blocks) != 3 {
		t.Fatalf("expected 3 result blocks, got %d:\n%s", len(blocks), out)
	}
	if !strings.HasPrefix(blocks[0], "[Introduction to Machine Learning - Lesson 1]\n") {
		t.Errorf("block 0 header wrong: %q", blocks[0])
	}
	if !strings.Contains(blocks[2], "trees split greedily") {
		t.Errorf("block 2 missing hit text: %q", blocks[2])
	}

	// Two hits from lesson 1 collapse into one source.
	sources := tool.LastSources()
	if len(sources) != 2 {
		t.Fatalf("expected 2 deduplicated sources, got %d", len(sources))
	}
	if sources[0].Citation != 1 || sources[1].Citation != 2 {
		t.Errorf("citations not sequential: %+v", sources)
	}
	if sources[0].LessonTitle != "Linear Regression" {
		t.Errorf("source 0 lesson title = %q", sources[0].LessonTitle)
	}
	if sources[0].LessonLink != "https://example.com/ml/1" {
		t.Errorf("source 0 lesson link = %q", sources[0].LessonLink)
	}
	if sources[0].CourseLink != "https://example.com/ml" {
		t.Errorf("source 0 course link = %q", sources[0].CourseLink)
	}
	if sources[1].LessonLink != "" {
		t.Errorf("lesson 2 has no link, got %q", sources[1].LessonLink)
	}
}

func TestCourseSearch_RelaysStoreError(t *testing.T) {
	store := &fakeStore{
		result: vectorstore.SearchResult{Err: "No course found matching 'Ghost'"},
	}
	tool := NewCourseSearch(store, log.NewNop())

	out, err := tool.Execute(context.Background(), map[string]any{
		"query":       "anything",
		"course_name": "Ghost",
	})
	if err != nil {
		t.Fatalf("store-level failures are data, not errors: %v", err)
	}
	if out != "No course found matching 'Ghost'" {
		t.Errorf("output = %q", out)
	}
	if len(tool.LastSources()) != 0 {
		t.Error("failed search must not record sources")
	}
}

func TestCourseSearch_EmptyResultMentionsFilters(t *testing.T) {
	store := &fakeStore{result: vectorstore.SearchResult{}}
	tool := NewCourseSearch(store, log.NewNop())

	out, err := tool.Execute(context.Background(), map[string]any{
		"query":         "quantum",
		"course_name":   "MCP",
		"lesson_number": 3,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	want := "No relevant content found in course 'MCP' in lesson 3."
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestCourseSearch_MissingQuery(t *testing.T) {
	tool := NewCourseSearch(&fakeStore{}, log.NewNop())

	if _, err := tool.Execute(context.Background(), map[string]any{"course_name": "MCP"}); err == nil {
		t.Fatal("expected error for missing query")
	}
}

func TestCourseSearch_LessonNumberFromJSONNumber(t *testing.T) {
	store := &fakeStore{result: vectorstore.SearchResult{}}
	tool := NewCourseSearch(store, log.NewNop())

	// Models deliver numbers as float64; the input decoder must accept them.
	out, err := tool.Execute(context.Background(), map[string]any{
		"query":         "anything",
		"lesson_number": float64(2),
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(out, "in lesson 2") {
		t.Errorf("output = %q", out)
	}
	if store.gotOpts != 1 {
		t.Errorf("expected one search option, got %d", store.gotOpts)
	}
}
