// Package course parses raw course documents into structured metadata and
// overlapping, sentence-aware text chunks ready for vector indexing.
//
// Expected document format (plain text):
//
//	Course Title: <text>
//	Course Link: <url>          (optional)
//	Course Instructor: <text>   (optional)
//
//	Lesson 0: Introduction
//	Lesson Link: <url>          (optional)
//	<lesson body ...>
//
//	Lesson 1: ...
package course

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrMalformedDocument indicates a document is missing required header
// fields. Ingestion callers log and skip such documents rather than
// aborting the whole batch.
var ErrMalformedDocument = errors.New("malformed course document")

// Header field prefixes, fixed order.
const (
	titlePrefix      = "Course Title:"
	linkPrefix       = "Course Link:"
	instructorPrefix = "Course Instructor:"
	lessonLinkPrefix = "Lesson Link:"
)

var lessonMarkerRe = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// sentenceBoundaryRe matches sentence-ending punctuation followed by
// whitespace. Candidate boundaries are rejected when the preceding word
// is a known abbreviation, so "Dr. Smith" stays in one sentence.
var sentenceBoundaryRe = regexp.MustCompile(`[.!?]+\s+`)

// acronymRe matches dotted acronyms such as "U.S" or "Ph.D" (trailing
// period already stripped by the caller).
var acronymRe = regexp.MustCompile(`^(?:[A-Za-z]\.)+[A-Za-z]?$`)

// defaultAbbreviations are lowercase words (periods stripped from the
// end, internal periods kept) that do not terminate a sentence.
var defaultAbbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {},
	"sr": {}, "jr": {}, "st": {}, "vs": {}, "etc": {},
	"e.g": {}, "i.e": {}, "al": {}, "fig": {}, "vol": {},
	"approx": {}, "dept": {}, "est": {},
}

// Processor converts raw course documents into one Course plus its
// ordered chunk sequence. Chunking is deterministic: identical input and
// configuration always yield identical chunks.
//
// Processor is stateless and safe for concurrent use.
type Processor struct {
	chunkSize     int
	chunkOverlap  int
	abbreviations map[string]struct{}
	logger        *slog.Logger
}

// NewProcessor creates a Processor. chunkSize is the maximum characters
// per chunk; chunkOverlap is the number of trailing characters re-included
// (at sentence granularity) at the start of the following chunk.
func NewProcessor(chunkSize, chunkOverlap int, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Processor{
		chunkSize:     chunkSize,
		chunkOverlap:  chunkOverlap,
		abbreviations: defaultAbbreviations,
		logger:        logger,
	}
}

// ProcessFile parses the document at path.
func (p *Processor) ProcessFile(path string) (*Course, []Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening course document: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return p.Process(f, filepath.Base(path))
}

// Process parses one course document read from r. name is used only for
// error reporting. It returns the parsed Course and its chunks, or an
// error wrapping ErrMalformedDocument when required header fields are
// missing. A course with a header but no lessons is valid and yields zero
// chunks.
func (p *Processor) Process(r io.Reader, name string) (*Course, []Chunk, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading course document %q: %w", name, err)
	}

	lines := strings.Split(decodeText(data), "\n")

	c, bodyStart, err := parseHeader(lines, name)
	if err != nil {
		return nil, nil, err
	}

	preamble, bodies := splitLessons(lines[bodyStart:], c)

	var chunks []Chunk
	index := 0

	// Course-level preamble: no lesson number, prefixed with the course
	// title so each chunk stays self-describing once detached.
	for _, text := range p.chunkText(preamble) {
		chunks = append(chunks, Chunk{
			CourseTitle: c.Title,
			Index:       index,
			Text:        fmt.Sprintf("Course %s content: %s", c.Title, text),
		})
		index++
	}

	for li := range c.Lessons {
		lesson := c.Lessons[li]
		for i, text := range p.chunkText(bodies[li]) {
			n := lesson.Number
			var enriched string
			if i == 0 {
				enriched = fmt.Sprintf("Lesson %d content: %s", n, text)
			} else {
				enriched = fmt.Sprintf("Course %s Lesson %d content: %s", c.Title, n, text)
			}
			chunks = append(chunks, Chunk{
				CourseTitle:  c.Title,
				LessonNumber: &n,
				Index:        index,
				Text:         enriched,
			})
			index++
		}
	}

	p.logger.Debug("processed course document",
		"course", c.Title,
		"lessons", len(c.Lessons),
		"chunks", len(chunks))

	return c, chunks, nil
}

// parseHeader reads the fixed-order header. Only the title is required.
func parseHeader(lines []string, name string) (*Course, int, error) {
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) || !strings.HasPrefix(lines[i], titlePrefix) {
		return nil, 0, fmt.Errorf("%w: %q is missing a %q header line", ErrMalformedDocument, name, titlePrefix)
	}

	c := &Course{Title: strings.TrimSpace(strings.TrimPrefix(lines[i], titlePrefix))}
	if c.Title == "" {
		return nil, 0, fmt.Errorf("%w: %q has an empty course title", ErrMalformedDocument, name)
	}
	i++

	if i < len(lines) && strings.HasPrefix(lines[i], linkPrefix) {
		c.Link = strings.TrimSpace(strings.TrimPrefix(lines[i], linkPrefix))
		i++
	}
	if i < len(lines) && strings.HasPrefix(lines[i], instructorPrefix) {
		c.Instructor = strings.TrimSpace(strings.TrimPrefix(lines[i], instructorPrefix))
		i++
	}

	return c, i, nil
}

// splitLessons scans the document body for lesson markers. Text before
// the first marker is the course-level preamble. Duplicate lesson numbers
// keep the first occurrence's metadata; their bodies merge into it.
func splitLessons(lines []string, c *Course) (preamble string, bodies []string) {
	var preambleLines []string
	var current *strings.Builder
	seen := make(map[int]int) // lesson number -> index into c.Lessons

	appendLine := func(line string) {
		if current == nil {
			preambleLines = append(preambleLines, line)
			return
		}
		current.WriteString(line)
		current.WriteString("\n")
	}

	var builders []*strings.Builder

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		m := lessonMarkerRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			appendLine(line)
			continue
		}

		number, err := strconv.Atoi(m[1])
		if err != nil {
			// Marker with an unparseable number is treated as body text.
			appendLine(line)
			continue
		}

		if idx, dup := seen[number]; dup {
			// Merge duplicate markers into the first lesson with that number.
			current = builders[idx]
			continue
		}

		lesson := Lesson{Number: number, Title: strings.TrimSpace(m[2])}

		// Optional "Lesson Link:" line directly after the marker.
		if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if strings.HasPrefix(next, lessonLinkPrefix) {
				lesson.Link = strings.TrimSpace(strings.TrimPrefix(next, lessonLinkPrefix))
				i++
			}
		}

		seen[number] = len(c.Lessons)
		c.Lessons = append(c.Lessons, lesson)
		builders = append(builders, &strings.Builder{})
		current = builders[len(builders)-1]
	}

	bodies = make([]string, len(builders))
	for i, b := range builders {
		bodies[i] = b.String()
	}
	return strings.Join(preambleLines, "\n"), bodies
}

// decodeText decodes document bytes as UTF-8, falling back to Latin-1 for
// invalid input so a stray byte does not discard the whole document.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return b.String()
}

// chunkText splits text into sentence-aligned chunks of at most chunkSize
// characters, re-including trailing sentences of the previous chunk up to
// chunkOverlap characters. A single sentence longer than chunkSize forms
// its own chunk; sentences are never split.
func (p *Processor) chunkText(text string) []string {
	sentences := p.splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		var cur []string
		curLen := 0
		j := i
		for j < len(sentences) {
			add := len(sentences[j])
			if len(cur) > 0 {
				add++ // joining space
			}
			if curLen+add > p.chunkSize && len(cur) > 0 {
				break
			}
			cur = append(cur, sentences[j])
			curLen += add
			j++
		}
		chunks = append(chunks, strings.Join(cur, " "))
		if j >= len(sentences) {
			break
		}

		// Walk back over the tail of this chunk to build the overlap.
		// The first sentence of a chunk is never part of the overlap,
		// which guarantees forward progress.
		k := j
		overlap := 0
		for k > i+1 {
			need := len(sentences[k-1]) + 1
			if overlap+need > p.chunkOverlap {
				break
			}
			overlap += need
			k--
		}
		i = k
	}
	return chunks
}

// splitSentences splits normalized text on sentence-ending punctuation,
// treating abbreviations and dotted acronyms as non-terminal.
func (p *Processor) splitSentences(text string) []string {
	norm := strings.Join(strings.Fields(text), " ")
	if norm == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceBoundaryRe.FindAllStringIndex(norm, -1) {
		if p.isAbbreviation(lastWord(norm[start:loc[0]]) + strings.TrimRight(norm[loc[0]:loc[1]], " \t")) {
			continue
		}
		if s := strings.TrimSpace(norm[start:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(norm[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// isAbbreviation reports whether word (including its trailing
// punctuation) should not end a sentence.
func (p *Processor) isAbbreviation(word string) bool {
	base := strings.TrimRight(word, ".!?")
	if base == "" {
		return false
	}
	if _, ok := p.abbreviations[strings.ToLower(base)]; ok {
		return true
	}
	// Single-letter initials: "J. Smith".
	if len(base) == 1 && isLetter(base[0]) {
		return true
	}
	return acronymRe.MatchString(base)
}

func lastWord(s string) string {
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		return s[i+1:]
	}
	return s
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
