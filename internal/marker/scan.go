package marker

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/sourcegraph/conc"

	"github.com/vk/labgate/internal/ctxlog"
	"github.com/vk/labgate/internal/fsutil"
)

// ScanTree walks root and scans every file outside the spare paths. Files
// are discovered in sorted order and the per-file work is fanned out onto a
// wait group; spans are file-local, so the only synchronization needed is
// the barrier before aggregation. Spare files are never even opened, which
// keeps their content immune to stripping regardless of what they contain.
func ScanTree(ctx context.Context, root string, spare []string) (Spans, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.ListFiles(root)
	if err != nil {
		return nil, err
	}

	scanned := make([]string, 0, len(files))
	for _, rel := range files {
		if fsutil.UnderAny(rel, spare) {
			continue
		}
		scanned = append(scanned, rel)
	}
	logger.Debug("Scanning tree for private spans.", "root", root, "files", len(scanned), "spare_paths", len(spare))

	results := make([][]Span, len(scanned))
	errs := make([]error, len(scanned))

	var wg conc.WaitGroup
	for i, rel := range scanned {
		i, rel := i, rel
		wg.Go(func() {
			results[i], errs[i] = ScanFile(filepath.Join(root, filepath.FromSlash(rel)), rel)
		})
	}
	wg.Wait()

	// Report the first failure in path order so reruns on an unchanged
	// tree always name the same file.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	spans := make(Spans)
	total := 0
	for i, rel := range scanned {
		if len(results[i]) > 0 {
			spans[rel] = results[i]
			total += len(results[i])
		}
	}
	logger.Debug("Scan complete.", "files_with_spans", len(spans), "spans", total)
	return spans, nil
}

// Files returns the file paths holding spans, sorted.
func (s Spans) Files() []string {
	files := make([]string, 0, len(s))
	for f := range s {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Count returns the total number of spans across all files.
func (s Spans) Count() int {
	n := 0
	for _, spans := range s {
		n += len(spans)
	}
	return n
}
