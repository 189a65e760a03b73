package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveFile_Precedence(t *testing.T) {
	files := []FileRecord{
		{Name: "a.jpg", RelativePath: "survey/cam1/a.jpg"},
		{Name: "b.jpg", RelativePath: "survey/cam2/b.jpg"},
		{Name: "dup.jpg", RelativePath: "survey/cam1/dup.jpg"},
		{Name: "dup.jpg", RelativePath: "survey/cam2/dup.jpg"},
	}

	tests := []struct {
		name     string
		identity string
		want     int
	}{
		{"exact relative path", "survey/cam2/b.jpg", 1},
		{"exact path beats name", "survey/cam2/dup.jpg", 3},
		{"bare name", "a.jpg", 0},
		{"bare name picks first on ambiguity", "dup.jpg", 2},
		{"path suffix", "cam2/b.jpg", 1},
		{"no match", "missing.jpg", -1},
		{"empty identity", "", -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveFile(files, tc.identity))
		})
	}
}

func TestResolveFile_PathField(t *testing.T) {
	files := []FileRecord{
		{Name: "a.jpg", Path: "survey/a.jpg"},
	}
	assert.Equal(t, 0, ResolveFile(files, "survey/a.jpg"))
}

func TestResolveFile_SuffixRequiresBoundary(t *testing.T) {
	files := []FileRecord{
		{Name: "xa.jpg", RelativePath: "survey/xa.jpg"},
	}
	// "a.jpg" is a substring suffix of "xa.jpg" but not at a path boundary
	assert.Equal(t, -1, ResolveFile(files, "a.jpg"))
}
