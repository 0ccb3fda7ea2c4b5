package gatekeeper

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/vk/labgate/internal/compose"
	"github.com/vk/labgate/internal/marker"
	"github.com/vk/labgate/internal/registry"
)

// checkContent validates that, for every file the task's spans touch, the
// student's file keeps the solution skeleton intact and fills each span
// location with non-empty content. It collects every reason instead of
// stopping at the first.
func (g *Gatekeeper) checkContent(ctx context.Context, studentRepo, originalRepo string, task *registry.Task) ([]Reason, error) {
	var reasons []Reason

	if len(task.Spans) == 0 {
		reasons = append(reasons, Reason{
			Kind:   ReasonUnknownTask,
			Detail: fmt.Sprintf("task %q has no private spans in the solution tree", task.Slug),
		})
		return reasons, nil
	}

	for _, rel := range task.Files() {
		originalLines, err := readLines(filepath.Join(originalRepo, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("read original file %s: %w", rel, err)
		}

		studentPath := filepath.Join(studentRepo, filepath.FromSlash(rel))
		studentLines, err := readLines(studentPath)
		if err != nil {
			if os.IsNotExist(err) {
				reasons = append(reasons, Reason{
					Kind:   ReasonFileMissing,
					File:   rel,
					Detail: "file is missing from the submission",
				})
				continue
			}
			return nil, fmt.Errorf("read student file %s: %w", rel, err)
		}
		reasons = append(reasons, checkFileShape(rel, task.Slug, g.spans[rel], originalLines, studentLines)...)
	}
	return reasons, nil
}

// checkFileShape matches the student's file against the solution skeleton:
// the original's content outside any span must appear in order. Every hole
// holding one of the checked task's spans must be filled with something
// other than the stub; other tasks' holes the student may or may not have
// filled yet.
func checkFileShape(rel, taskSlug string, spans []marker.Span, originalLines, studentLines []string) []Reason {
	for _, line := range studentLines {
		if marker.ContainsToken(line) {
			return []Reason{{
				Kind:   ReasonMarkerLeftover,
				File:   rel,
				Detail: "submission still contains sentinel marker tokens",
			}}
		}
	}

	segments, holes := skeletonSegments(originalLines, spans)

	// The leading segment anchors at the top of the file.
	if !segmentAt(studentLines, 0, segments[0]) {
		return []Reason{shapeMismatch(rel, spans, originalLines, studentLines)}
	}
	pos := len(segments[0])

	for i := 1; i < len(segments); i++ {
		seg := segments[i]
		var at int
		if i == len(segments)-1 {
			// The trailing segment anchors at the bottom.
			at = len(studentLines) - len(seg)
			if at < pos || !segmentAt(studentLines, at, seg) {
				return []Reason{shapeMismatch(rel, spans, originalLines, studentLines)}
			}
		} else {
			at = findSegment(studentLines, pos, seg)
			if at < 0 {
				return []Reason{shapeMismatch(rel, spans, originalLines, studentLines)}
			}
		}
		hole := holes[i-1]
		if holeOwnedBy(hole, taskSlug) && emptyFill(studentLines[pos:at], hole) {
			return []Reason{{
				Kind:   ReasonEmptySolution,
				File:   rel,
				Detail: fmt.Sprintf("no solution content where task %q expects it (line %d)", taskSlug, pos+1),
			}}
		}
		pos = at + len(seg)
	}
	if pos != len(studentLines) {
		return []Reason{shapeMismatch(rel, spans, originalLines, studentLines)}
	}
	return nil
}

// skeletonSegments splits the original file into the fixed line blocks
// around the spans and the list of spans sitting in each hole between
// consecutive blocks. Marker lines belong to no segment. Adjacent spans
// with no skeleton line between them share one hole: an empty block
// cannot be located inside the student's file, so the surrounding fills
// are judged together.
func skeletonSegments(originalLines []string, spans []marker.Span) ([][]string, [][]marker.Span) {
	segments := [][]string{originalLines[:spans[0].BeginLine-1]}
	holes := make([][]marker.Span, 0, len(spans))

	var hole []marker.Span
	for k, span := range spans {
		hole = append(hole, span)
		last := k == len(spans)-1
		var block []string
		if last {
			block = originalLines[span.EndLine:]
		} else {
			block = originalLines[span.EndLine : spans[k+1].BeginLine-1]
		}
		if !last && len(block) == 0 {
			continue
		}
		holes = append(holes, hole)
		hole = nil
		segments = append(segments, block)
	}
	return segments, holes
}

// holeOwnedBy reports whether any span in the hole belongs to the task.
func holeOwnedBy(hole []marker.Span, taskSlug string) bool {
	for _, span := range hole {
		if span.Slug == taskSlug {
			return true
		}
	}
	return false
}

func segmentAt(lines []string, at int, seg []string) bool {
	if at+len(seg) > len(lines) {
		return false
	}
	for i, s := range seg {
		if lines[at+i] != s {
			return false
		}
	}
	return true
}

// findSegment returns the first index >= from where seg matches as a
// contiguous block, or -1. An empty segment matches in place.
func findSegment(lines []string, from int, seg []string) int {
	if len(seg) == 0 {
		return from
	}
	for at := from; at+len(seg) <= len(lines); at++ {
		if segmentAt(lines, at, seg) {
			return at
		}
	}
	return -1
}

// emptyFill reports whether the student's fill for a hole is effectively
// empty: only blank lines and untouched stub lines.
func emptyFill(gap []string, hole []marker.Span) bool {
	stubs := make(map[string]bool, len(hole))
	for _, span := range hole {
		stubs[strings.TrimSpace(compose.StubLine(span))] = true
	}
	for _, line := range gap {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || stubs[trimmed] {
			continue
		}
		return false
	}
	return true
}

func shapeMismatch(rel string, spans []marker.Span, originalLines, studentLines []string) Reason {
	expected := compose.Strip(originalLines, spans)
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(expected, "\n") + "\n"),
		B:        difflib.SplitLines(strings.Join(studentLines, "\n") + "\n"),
		FromFile: "expected/" + rel,
		ToFile:   "submitted/" + rel,
		Context:  3,
	})
	return Reason{
		Kind:   ReasonShapeMismatch,
		File:   rel,
		Detail: "content outside the task's private region was modified",
		Diff:   diff,
	}
}

func readLines(path string) ([]string, error) {
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
	return lines, scanner.Err()
}
