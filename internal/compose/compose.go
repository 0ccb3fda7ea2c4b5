// Package compose produces the public view of a course tree: a copy with
// every private span replaced by a stub, except for spare paths which are
// copied byte-for-byte. The output is staged in a temporary directory and
// published with a single rename so an interrupted run never leaves a
// partially-stripped tree visible.
package compose

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc"

	"github.com/vk/labgate/internal/ctxlog"
	"github.com/vk/labgate/internal/fsutil"
	"github.com/vk/labgate/internal/marker"
)

// PathNotFoundError reports a missing input or output location.
type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path not found: %s", e.Path)
}

// IOError reports an unreadable or unwritable path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Compose copies the tree at in to out, stripping the given spans from
// every non-spare file. The spans must come from a scan of the same tree
// state. It returns the list of files written, relative to out.
func Compose(ctx context.Context, in, out string, spare []string, spans marker.Spans) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	if _, err := os.Stat(in); err != nil {
		if os.IsNotExist(err) {
			return nil, &PathNotFoundError{Path: in}
		}
		return nil, &IOError{Op: "stat", Path: in, Err: err}
	}
	if _, err := os.Stat(out); err == nil {
		return nil, &IOError{Op: "compose", Path: out, Err: fmt.Errorf("output path already exists")}
	}

	files, err := fsutil.ListFiles(in)
	if err != nil {
		return nil, &IOError{Op: "walk", Path: in, Err: err}
	}

	// Stage next to the destination so the final rename stays on one
	// filesystem.
	parent := filepath.Dir(filepath.Clean(out))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: parent, Err: err}
	}
	stage, err := os.MkdirTemp(parent, ".compose-*")
	if err != nil {
		return nil, &IOError{Op: "stage", Path: parent, Err: err}
	}
	defer os.RemoveAll(stage)

	logger.Debug("Composing public view.", "in", in, "out", out, "files", len(files))

	errs := make([]error, len(files))
	var wg conc.WaitGroup
	for i, rel := range files {
		i, rel := i, rel
		wg.Go(func() {
			errs[i] = writeOne(in, stage, rel, spare, spans[rel])
		})
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return nil, &IOError{Op: "write", Path: files[i], Err: err}
		}
	}

	if err := os.Rename(stage, out); err != nil {
		return nil, &IOError{Op: "publish", Path: out, Err: err}
	}
	logger.Debug("Public view published.", "out", out)
	return files, nil
}

// writeOne copies or strips a single file into the staging tree. Spare
// files and files without spans are copied verbatim.
func writeOne(in, stage, rel string, spare []string, spans []marker.Span) error {
	src := filepath.Join(in, filepath.FromSlash(rel))
	dst := filepath.Join(stage, filepath.FromSlash(rel))

	if len(spans) == 0 || fsutil.UnderAny(rel, spare) {
		return fsutil.CopyFile(src, dst)
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	lines, eol, finalEOL := splitFileLines(data)
	stripped := Strip(lines, spans)
	var buf []byte
	for i, line := range stripped {
		if i > 0 {
			buf = append(buf, eol...)
		}
		buf = append(buf, line...)
	}
	if finalEOL {
		buf = append(buf, eol...)
	}
	return fsutil.WriteFileAt(dst, buf, info.Mode())
}

// splitFileLines splits a file into lines while remembering how to put it
// back together: the terminator style and whether the last line was
// terminated. A file mixing CRLF and LF comes back as CRLF throughout.
func splitFileLines(data []byte) (lines []string, eol string, finalEOL bool) {
	eol = "\n"
	if bytes.Contains(data, []byte("\r\n")) {
		eol = "\r\n"
	}
	s := string(data)
	finalEOL = strings.HasSuffix(s, "\n")
	if finalEOL {
		s = strings.TrimSuffix(s, "\n")
		s = strings.TrimSuffix(s, "\r")
	}
	lines = strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return lines, eol, finalEOL
}

// Strip replaces each span (marker lines included) with a single stub
// line. The stub reuses the begin marker's comment leader so the file
// stays parseable for whatever language it is written in.
func Strip(lines []string, spans []marker.Span) []string {
	out := make([]string, 0, len(lines))
	next := 0
	for _, span := range spans {
		out = append(out, lines[next:span.BeginLine-1]...)
		out = append(out, StubLine(span))
		next = span.EndLine
	}
	return append(out, lines[next:]...)
}

// StubLine is the placeholder left in place of a stripped span.
func StubLine(span marker.Span) string {
	if span.Leader == "" {
		return "your code here"
	}
	return span.Leader + " your code here"
}
