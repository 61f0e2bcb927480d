package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// OutlineToolName is the name the model uses to fetch a course outline.
const OutlineToolName = "get_course_outline"

// OutlineInput is the declared schema for get_course_outline.
type OutlineInput struct {
	CourseName string `json:"course_name" jsonschema_description:"Course title or partial name (fuzzy matching supported, e.g. 'MCP', 'prompt engineering')"`
}

// CourseOutline resolves a course by fuzzy name and formats its title,
// link, instructor and full lesson list.
type CourseOutline struct {
	store  ContentStore
	logger *slog.Logger
}

// NewCourseOutline creates the outline tool.
func NewCourseOutline(store ContentStore, logger *slog.Logger) *CourseOutline {
	if logger == nil {
		logger = slog.Default()
	}
	return &CourseOutline{store: store, logger: logger}
}

func (t *CourseOutline) Name() string { return OutlineToolName }

func (t *CourseOutline) Description() string {
	return "Retrieve the complete outline of a course including its title, link, and full list of lessons. " +
		"Use this when users ask about course structure, lessons list, course content overview, or what topics a course covers."
}

// Execute decodes the raw argument map and renders the outline.
func (t *CourseOutline) Execute(ctx context.Context, input map[string]any) (string, error) {
	var in OutlineInput
	if err := decodeInput(input, &in); err != nil {
		return "", fmt.Errorf("%s: %w", OutlineToolName, err)
	}
	return t.run(ctx, in)
}

func (t *CourseOutline) run(ctx context.Context, in OutlineInput) (string, error) {
	if strings.TrimSpace(in.CourseName) == "" {
		return "", fmt.Errorf("%s: course_name is required", OutlineToolName)
	}

	title, ok, err := t.store.ResolveCourseName(ctx, in.CourseName)
	if err != nil {
		t.logger.Error("outline resolution failed", "name", in.CourseName, "error", err)
		return fmt.Sprintf("Error retrieving course outline: %v", err), nil
	}
	if !ok {
		return fmt.Sprintf("No course found matching '%s'. Please try a different course name or check available courses.", in.CourseName), nil
	}

	c, ok := t.store.Outline(title)
	if !ok {
		return fmt.Sprintf("Course '%s' exists but has no metadata available.", title), nil
	}
	if len(c.Lessons) == 0 {
		return fmt.Sprintf("Course '%s' has an empty lessons list.", title), nil
	}

	var out []string
	out = append(out, "Course: "+c.Title)
	if c.Link != "" {
		out = append(out, "Link: "+c.Link)
	}
	if c.Instructor != "" {
		out = append(out, "Instructor: "+c.Instructor)
	}
	out = append(out, fmt.Sprintf("\nLessons (%d total):", len(c.Lessons)))

	lessons := make([]int, len(c.Lessons))
	for i := range c.Lessons {
		lessons[i] = i
	}
	sort.Slice(lessons, func(a, b int) bool {
		return c.Lessons[lessons[a]].Number < c.Lessons[lessons[b]].Number
	})

	for _, i := range lessons {
		l := c.Lessons[i]
		line := fmt.Sprintf("  %d. %s", l.Number, l.Title)
		if l.Link != "" {
			line += " - " + l.Link
		}
		out = append(out, line)
	}

	return strings.Join(out, "\n"), nil
}
