package course

// Course is the catalog identity of one ingested course document.
// Identity is Title; a Course is immutable after ingestion.
type Course struct {
	Title      string   // unique key
	Link       string   // optional URL
	Instructor string   // optional
	Lessons    []Lesson // ordered by Number
}

// Lesson is one numbered unit within a Course. Numbers are unique within
// their course; a lesson is owned exclusively by its course.
type Lesson struct {
	Number int    // non-negative, unique within the course
	Title  string
	Link   string // optional
}

// Chunk is the unit of semantic retrieval: a bounded, context-enriched
// segment of a lesson's text. Text already carries the context prefix and
// the sentence-boundary overlap; the embedding is computed at index time.
type Chunk struct {
	CourseTitle  string // back-reference to the owning course
	LessonNumber *int   // nil for course-level preamble
	Index        int    // strictly increasing across the whole course
	Text         string
}
