// Package marker locates sentinel comment pairs that delimit solution-only
// spans of the course tree. A span is opened by a line containing
// "@begin-private(<slug>)" and closed by a matching "@end-private(<slug>)"
// line; the slug names the task that owns the span. The tokens are plain
// substrings, so any comment syntax in front of them works.
package marker

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	beginRe = regexp.MustCompile(`@begin-private\(([^)]*)\)`)
	endRe   = regexp.MustCompile(`@end-private\(([^)]*)\)`)

	// slugRe matches "<lab number>-<lab name>-<task number>-<task name>",
	// e.g. "3-allocator-5-small-memory-allocator". The lab prefix is the
	// leading "<number>-<word>" pair.
	slugRe = regexp.MustCompile(`^\d+-[a-z][a-z0-9]*-\d+-[a-z0-9][a-z0-9-]*$`)
)

// Span is one private region of one file. BeginLine and EndLine are 1-based
// and cover the marker lines themselves; Body holds the lines strictly
// between them.
type Span struct {
	File      string
	Slug      string
	BeginLine int
	EndLine   int
	// Leader is the begin-marker line's text up to the token with trailing
	// space removed, i.e. whatever comment syntax opened the marker. The
	// composer reuses it to emit a stub that stays parseable.
	Leader string
	Body   []string
}

// Spans maps a root-relative file path to its ordered spans.
type Spans map[string][]Span

// MalformedMarkerError reports an unterminated, mismatched, or nested
// sentinel marker. Line is 1-based.
type MalformedMarkerError struct {
	File   string
	Line   int
	Reason string
}

func (e *MalformedMarkerError) Error() string {
	return fmt.Sprintf("malformed marker in %s:%d: %s", e.File, e.Line, e.Reason)
}

// ValidSlug reports whether slug follows the task naming convention.
func ValidSlug(slug string) bool {
	return slugRe.MatchString(slug)
}

// ContainsToken reports whether the line carries either sentinel token.
func ContainsToken(line string) bool {
	return beginRe.MatchString(line) || endRe.MatchString(line)
}

// ScanLines performs a single linear pass over the lines of one file,
// tracking the currently open span explicitly. Spans never overlap, so a
// second begin of any tag while one is open is malformed, as is an end
// without an open begin, a tag mismatch, or an open span at end of file.
func ScanLines(rel string, lines []string) ([]Span, error) {
	var spans []Span
	var open *Span

	for i, line := range lines {
		lineNo := i + 1
		beginMatch := beginRe.FindStringSubmatchIndex(line)
		endMatch := endRe.FindStringSubmatch(line)

		switch {
		case beginMatch != nil:
			slug := line[beginMatch[2]:beginMatch[3]]
			if open != nil {
				return nil, &MalformedMarkerError{File: rel, Line: lineNo,
					Reason: fmt.Sprintf("begin marker for %q while span for %q is still open (opened at line %d)", slug, open.Slug, open.BeginLine)}
			}
			if !ValidSlug(slug) {
				return nil, &MalformedMarkerError{File: rel, Line: lineNo,
					Reason: fmt.Sprintf("invalid task slug %q", slug)}
			}
			open = &Span{
				File:      rel,
				Slug:      slug,
				BeginLine: lineNo,
				Leader:    strings.TrimRight(line[:beginMatch[0]], " \t"),
			}
		case endMatch != nil:
			slug := endMatch[1]
			if open == nil {
				return nil, &MalformedMarkerError{File: rel, Line: lineNo,
					Reason: fmt.Sprintf("end marker for %q without a matching begin", slug)}
			}
			if slug != open.Slug {
				return nil, &MalformedMarkerError{File: rel, Line: lineNo,
					Reason: fmt.Sprintf("end marker for %q closes span opened for %q at line %d", slug, open.Slug, open.BeginLine)}
			}
			open.EndLine = lineNo
			spans = append(spans, *open)
			open = nil
		}
	}

	if open != nil {
		return nil, &MalformedMarkerError{File: rel, Line: open.BeginLine,
			Reason: fmt.Sprintf("begin marker for %q is never closed", open.Slug)}
	}

	// Body collection is a second cheap pass so the main loop stays a pure
	// state machine.
	for s := range spans {
		spans[s].Body = append([]string(nil), lines[spans[s].BeginLine:spans[s].EndLine-1]...)
	}
	return spans, nil
}

// ScanFile reads and scans a single file. rel is the root-relative path
// reported in spans and errors.
func ScanFile(path string, rel string) ([]Span, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return ScanLines(rel, lines)
}
