// Package classify filters a raw file selection down to eligible transfer
// candidates. It is a pure function over its input: no network or storage
// access, no mutation of the handles.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/camtrapkit/uploader/internal/filex"
)

// imageExtensions is the allow-list of recognized camera-trap content,
// matched case-insensitively against the file extension.
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

// Result is the outcome of partitioning a selection.
type Result struct {
	Eligible []filex.Handle
	Ignored  []filex.Handle

	// TotalSize is the combined size of the eligible files in bytes.
	TotalSize int64

	// TopLevelFolder is the first path segment of the first eligible file's
	// relative path, or "" when no relative-path information is available.
	// An empty value is a degraded but non-fatal mode.
	TopLevelFolder string
}

// Eligible reports whether the file name carries a recognized content
// extension.
func Eligible(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Partition splits files into eligible and ignored sets and computes the
// aggregates. Callers must refuse to proceed when Result.Eligible is empty;
// that is a validation failure, not an error from this package.
func Partition(files []filex.Handle) Result {
	var res Result

	for _, f := range files {
		if !Eligible(f.Name) {
			res.Ignored = append(res.Ignored, f)
			continue
		}
		res.Eligible = append(res.Eligible, f)
		res.TotalSize += f.Size
	}

	if len(res.Eligible) > 0 {
		res.TopLevelFolder = firstSegment(res.Eligible[0].RelativePath)
	}

	return res
}

func firstSegment(relPath string) string {
	if relPath == "" {
		return ""
	}
	if i := strings.IndexByte(relPath, '/'); i >= 0 {
		return relPath[:i]
	}
	return relPath
}
