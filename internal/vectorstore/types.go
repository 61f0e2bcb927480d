package vectorstore

// Hit is one retrieved chunk with its provenance and ranking distance.
type Hit struct {
	Text         string
	CourseTitle  string
	LessonNumber *int // nil for course-level preamble chunks
	Distance     float32
}

// SearchResult carries either ranked hits or a retrieval-level failure
// message. Failures here are data for the calling tool (which relays
// them to the model), not Go errors: a missing course is a normal
// outcome of a fuzzy filter, not a broken pipeline.
type SearchResult struct {
	Hits []Hit

	// Filters as actually applied, after course name resolution.
	CourseTitle  string
	LessonNumber *int

	// Err is a human-readable failure description, empty on success.
	Err string
}

// IsError reports whether the search failed (unresolvable course filter
// or index error).
func (r SearchResult) IsError() bool { return r.Err != "" }

// IsEmpty reports whether the search succeeded but matched nothing.
func (r SearchResult) IsEmpty() bool { return r.Err == "" && len(r.Hits) == 0 }

type searchConfig struct {
	courseName   string
	lessonNumber *int
	limit        int
}

// SearchOption configures a single Search call.
type SearchOption func(*searchConfig)

// WithCourse filters results to one course. The name is resolved
// against the catalog by vector similarity, so partial names match.
func WithCourse(name string) SearchOption {
	return func(c *searchConfig) { c.courseName = name }
}

// WithLesson filters results to one lesson number. Without WithCourse
// the filter applies across all courses.
func WithLesson(number int) SearchOption {
	return func(c *searchConfig) { c.lessonNumber = &number }
}

// WithLimit overrides the store's default maximum number of hits.
func WithLimit(n int) SearchOption {
	return func(c *searchConfig) {
		if n > 0 {
			c.limit = n
		}
	}
}
