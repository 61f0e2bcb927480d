// Package tools implements the retrieval tools the model can call
// during answer generation, plus the registry that executes them and
// tracks source provenance for the UI layer.
package tools

import "context"

// Tool is one model-callable operation. Execute receives the raw
// argument map as produced by the model and returns a formatted string
// for the model to read. Retrieval-level failures (no matching course,
// nothing found) are part of that string; the error return is reserved
// for malformed input and programming errors.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input map[string]any) (string, error)
}

// SourceTracker is implemented by tools that record where their last
// results came from. The registry collects these after each query.
type SourceTracker interface {
	LastSources() []Source
	ResetSources()
}

// Source identifies one course/lesson a search result came from.
// Sources are deduplicated per course+lesson and numbered in the order
// they first appeared.
type Source struct {
	CourseTitle  string `json:"course_title"`
	CourseLink   string `json:"course_link,omitempty"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
	LessonTitle  string `json:"lesson_title,omitempty"`
	LessonLink   string `json:"lesson_link,omitempty"`
	Citation     int    `json:"citation_number"`
}

// Label returns the display form, "Course Title - Lesson N" when a
// lesson is known.
func (s Source) Label() string {
	if s.LessonNumber == nil {
		return s.CourseTitle
	}
	return formatLessonLabel(s.CourseTitle, *s.LessonNumber)
}
