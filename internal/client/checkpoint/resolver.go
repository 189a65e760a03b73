package checkpoint

import "strings"

// ResolveFile finds the record matching identity and returns its index, or -1
// when nothing matches. identity may be a bare file name or a full relative
// path: after a restart the caller may re-supply files without preserved path
// metadata, so matching must tolerate both forms.
//
// Precedence: exact relative path, then exact name, then path-suffix (the
// record's relative path ends in "/"+identity).
func ResolveFile(files []FileRecord, identity string) int {
	if identity == "" {
		return -1
	}

	for i, f := range files {
		if f.RelativePath != "" && f.RelativePath == identity {
			return i
		}
		if f.Path != "" && f.Path == identity {
			return i
		}
	}

	for i, f := range files {
		if f.Name == identity {
			return i
		}
	}

	for i, f := range files {
		if strings.HasSuffix(f.RelativePath, "/"+identity) {
			return i
		}
	}

	return -1
}
