package vectorstore

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/studyowl/studyowl/internal/course"
	"github.com/studyowl/studyowl/internal/log"
)

// wordHashEmbedding is a deterministic offline embedding: each word
// bumps one dimension selected by its hash, so texts sharing words land
// near each other. Good enough to exercise ranking and filters without
// a model behind it.
func wordHashEmbedding(_ context.Context, text string) ([]float32, error) {
	const dim = 64
	vec := make([]float32, dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,:!?'\"()")))
		vec[h.Sum32()%dim]++
	}
	// chromem rejects zero vectors; give empty text a fixed direction.
	var sum float32
	for _, v := range vec {
		sum += v
	}
	if sum == 0 {
		vec[0] = 1
	}
	return vec, nil
}

func intptr(n int) *int { return &n }

func testCourses() []struct {
	c      course.Course
	chunks []course.Chunk
} {
	return []struct {
		c      course.Course
		chunks []course.Chunk
	}{
		{
			c: course.Course{
				Title:      "Introduction to Machine Learning",
				Link:       "https://example.com/ml",
				Instructor: "Ada Lovelace",
				Lessons: []course.Lesson{
					{Number: 1, Title: "Linear Regression", Link: "https://example.com/ml/1"},
					{Number: 2, Title: "Decision Trees"},
				},
			},
			chunks: []course.Chunk{
				{CourseTitle: "Introduction to Machine Learning", LessonNumber: intptr(1), Index: 0,
					Text: "Lesson 1 content: Linear regression fits a line through data points by minimizing squared error."},
				{CourseTitle: "Introduction to Machine Learning", LessonNumber: intptr(2), Index: 1,
					Text: "Lesson 2 content: Decision trees split the feature space with greedy threshold rules."},
			},
		},
		{
			c: course.Course{
				Title: "Advanced Databases",
				Link:  "https://example.com/db",
				Lessons: []course.Lesson{
					{Number: 1, Title: "Query Planning"},
				},
			},
			chunks: []course.Chunk{
				{CourseTitle: "Advanced Databases", LessonNumber: intptr(1), Index: 0,
					Text: "Lesson 1 content: A query planner chooses join orders using cardinality estimates."},
				{CourseTitle: "Advanced Databases", Index: 1,
					Text: "Course Advanced Databases content: This course covers database internals end to end."},
			},
		},
	}
}

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, 5, wordHashEmbedding, log.NewNop())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return s
}

func seedStore(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	for _, tc := range testCourses() {
		c := tc.c
		if err := s.AddCourse(ctx, &c, tc.chunks); err != nil {
			t.Fatalf("AddCourse(%q) error: %v", c.Title, err)
		}
	}
}

func TestSearch_Unfiltered(t *testing.T) {
	s := newTestStore(t, "")
	seedStore(t, s)

	res := s.Search(context.Background(), "linear regression squared error")
	if res.IsError() {
		t.Fatalf("unexpected search error: %s", res.Err)
	}
	if len(res.Hits) == 0 {
		t.Fatal("expected hits")
	}

	if got := res.Hits[0].CourseTitle; got != "Introduction to Machine Learning" {
		t.Errorf("top hit from course %q", got)
	}
	if res.Hits[0].LessonNumber == nil || *res.Hits[0].LessonNumber != 1 {
		t.Errorf("top hit lesson = %v, want 1", res.Hits[0].LessonNumber)
	}
	for i := 1; i < len(res.Hits); i++ {
		if res.Hits[i-1].Distance > res.Hits[i].Distance {
			t.Errorf("hits not ordered by ascending distance at %d", i)
		}
	}
}

func TestSearch_CourseFilterFuzzyMatch(t *testing.T) {
	s := newTestStore(t, "")
	seedStore(t, s)

	// Partial name resolves against the catalog by similarity.
	res := s.Search(context.Background(), "join orders", WithCourse("Databases"))
	if res.IsError() {
		t.Fatalf("unexpected search error: %s", res.Err)
	}
	if res.CourseTitle != "Advanced Databases" {
		t.Fatalf("resolved course = %q", res.CourseTitle)
	}
	for _, h := range res.Hits {
		if h.CourseTitle != "Advanced Databases" {
			t.Errorf("hit leaked from course %q", h.CourseTitle)
		}
	}
}

func TestSearch_CourseFilterNoCatalog(t *testing.T) {
	s := newTestStore(t, "")

	res := s.Search(context.Background(), "anything", WithCourse("Ghost Course"))
	if !res.IsError() {
		t.Fatal("expected error result for empty catalog")
	}
	want := "No course found matching 'Ghost Course'"
	if res.Err != want {
		t.Errorf("Err = %q, want %q", res.Err, want)
	}
}

func TestSearch_LessonFilterAcrossCourses(t *testing.T) {
	s := newTestStore(t, "")
	seedStore(t, s)

	res := s.Search(context.Background(), "content", WithLesson(1))
	if res.IsError() {
		t.Fatalf("unexpected search error: %s", res.Err)
	}
	if len(res.Hits) == 0 {
		t.Fatal("expected lesson 1 hits")
	}
	seen := make(map[string]bool)
	for _, h := range res.Hits {
		if h.LessonNumber == nil || *h.LessonNumber != 1 {
			t.Errorf("hit with lesson %v, want 1", h.LessonNumber)
		}
		seen[h.CourseTitle] = true
	}
	if len(seen) != 2 {
		t.Errorf("lesson-only filter should span both courses, got %v", seen)
	}
}

func TestSearch_CourseAndLessonFilter(t *testing.T) {
	s := newTestStore(t, "")
	seedStore(t, s)

	res := s.Search(context.Background(), "splitting rules",
		WithCourse("Machine Learning"), WithLesson(2))
	if res.IsError() {
		t.Fatalf("unexpected search error: %s", res.Err)
	}
	if len(res.Hits) != 1 {
		t.Fatalf("expected exactly the one lesson 2 chunk, got %d hits", len(res.Hits))
	}
	if !strings.Contains(res.Hits[0].Text, "Decision trees") {
		t.Errorf("unexpected hit text %q", res.Hits[0].Text)
	}
}

func TestSearch_NoMatchesIsEmptyNotError(t *testing.T) {
	s := newTestStore(t, "")
	seedStore(t, s)

	res := s.Search(context.Background(), "anything", WithLesson(99))
	if res.IsError() {
		t.Fatalf("filter miss must not be an error: %s", res.Err)
	}
	if !res.IsEmpty() {
		t.Errorf("expected empty result, got %d hits", len(res.Hits))
	}
}

func TestSearch_EmptyStore(t *testing.T) {
	s := newTestStore(t, "")

	res := s.Search(context.Background(), "anything")
	if res.IsError() {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if !res.IsEmpty() {
		t.Error("expected empty result from empty store")
	}
}

func TestSearch_LimitClamped(t *testing.T) {
	s := newTestStore(t, "")
	seedStore(t, s)

	res := s.Search(context.Background(), "content", WithLimit(50))
	if res.IsError() {
		t.Fatalf("oversized limit must be clamped, got error: %s", res.Err)
	}
	if len(res.Hits) > s.ChunkCount() {
		t.Errorf("got %d hits for %d chunks", len(res.Hits), s.ChunkCount())
	}
}

func TestResolveCourseName_EmptyCatalog(t *testing.T) {
	s := newTestStore(t, "")

	_, ok, err := s.ResolveCourseName(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("empty catalog must not resolve any name")
	}
}

func TestStore_MetadataAccessors(t *testing.T) {
	s := newTestStore(t, "")
	seedStore(t, s)

	if got := s.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
	titles := s.ExistingTitles()
	if len(titles) != 2 || titles[0] != "Advanced Databases" {
		t.Errorf("ExistingTitles() = %v", titles)
	}

	link, ok := s.CourseLink("Introduction to Machine Learning")
	if !ok || link != "https://example.com/ml" {
		t.Errorf("CourseLink() = %q, %v", link, ok)
	}

	link, ok = s.LessonLink("Introduction to Machine Learning", 1)
	if !ok || link != "https://example.com/ml/1" {
		t.Errorf("LessonLink(1) = %q, %v", link, ok)
	}
	if _, ok := s.LessonLink("Introduction to Machine Learning", 2); ok {
		t.Error("lesson 2 has no link and must report false")
	}

	c, ok := s.Outline("Advanced Databases")
	if !ok || len(c.Lessons) != 1 || c.Lessons[0].Title != "Query Planning" {
		t.Errorf("Outline() = %+v, %v", c, ok)
	}
}

func TestStore_RegistrySurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s := newTestStore(t, dir)
	seedStore(t, s)
	chunksBefore := s.ChunkCount()

	reopened := newTestStore(t, dir)
	if got := reopened.Count(); got != 2 {
		t.Fatalf("reopened Count() = %d, want 2", got)
	}
	if got := reopened.ChunkCount(); got != chunksBefore {
		t.Errorf("reopened ChunkCount() = %d, want %d", got, chunksBefore)
	}
	c, ok := reopened.Outline("Introduction to Machine Learning")
	if !ok || c.Instructor != "Ada Lovelace" {
		t.Errorf("reopened Outline() = %+v, %v", c, ok)
	}

	res := reopened.Search(context.Background(), "cardinality estimates", WithCourse("Advanced"))
	if res.IsError() || len(res.Hits) == 0 {
		t.Errorf("search after reopen failed: err=%q hits=%d", res.Err, len(res.Hits))
	}
}
