// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListFiles recursively collects every regular file under root and returns
// their paths relative to root, sorted lexicographically. The sorted order
// is what makes repeated scans of an unchanged tree deterministic.
func ListFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// FindFilesByExtension recursively searches root for files ending with the
// given extension and returns their paths relative to root, sorted.
func FindFilesByExtension(root string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}
	all, err := ListFiles(root)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, f := range all {
		if strings.HasSuffix(f, extension) {
			files = append(files, f)
		}
	}
	return files, nil
}

// UnderAny reports whether rel (a slash-separated relative path) equals one
// of the given prefixes or lies underneath one of them.
func UnderAny(rel string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.Trim(filepath.ToSlash(p), "/")
		if p == "" {
			continue
		}
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}

// CopyFile copies src to dst byte-for-byte, preserving the source file mode.
// Parent directories of dst are created as needed.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// WriteFileAt writes data to dst with the given mode, creating parent
// directories as needed.
func WriteFileAt(dst string, data []byte, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, mode.Perm())
}
