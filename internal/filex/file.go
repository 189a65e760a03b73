// Package filex enumerates local files into transferable handles. A Handle
// carries the metadata the upload pipeline needs (name, relative path, size,
// MIME type) plus enough information to open the content lazily.
package filex

import (
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Handle describes one selected file. RelativePath preserves the subfolder
// structure under the selected directory, including the directory's own name
// as the first segment. RelativePath may be empty when the selection lost its
// path metadata (e.g. files re-supplied one by one after a restart).
type Handle struct {
	Name         string
	RelativePath string
	AbsPath      string
	Size         int64
	MIMEType     string
}

// Open returns the file's content for reading. The caller must close it.
func (h Handle) Open() (io.ReadCloser, error) {
	if h.AbsPath == "" {
		return nil, fmt.Errorf("no local path for %q", h.Name)
	}
	return os.Open(h.AbsPath)
}

// CollectDir walks root recursively and returns a handle per regular file.
// Relative paths are rooted at the directory's base name, mirroring how a
// directory selection is presented by a browser, so that
// /data/survey-2026/cam1/a.jpg under root /data/survey-2026 becomes
// "survey-2026/cam1/a.jpg".
func CollectDir(root string) ([]Handle, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	base := filepath.Base(abs)
	var handles []Handle

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		handles = append(handles, Handle{
			Name:         d.Name(),
			RelativePath: base + "/" + filepath.ToSlash(rel),
			AbsPath:      path,
			Size:         info.Size(),
			MIMEType:     TypeByName(d.Name()),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return handles, nil
}

// TypeByName guesses a MIME type from the file extension, falling back to
// application/octet-stream.
func TypeByName(name string) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if t == "" {
		return "application/octet-stream"
	}
	return t
}

// EnsureSubDir creates (if needed) and returns a subdirectory of the current
// working directory, used for local state such as the checkpoint database.
func EnsureSubDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
