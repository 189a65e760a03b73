package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want map[string]any
	}{
		{"none", nil, nil},
		{"single", []string{"country=ZA"}, map[string]any{"country": "ZA"}},
		{"several", []string{"country=ZA", "model=v5"}, map[string]any{"country": "ZA", "model": "v5"}},
		{"value with equals", []string{"note=a=b"}, map[string]any{"note": "a=b"}},
		{"malformed skipped", []string{"country=ZA", "junk", "=empty"}, map[string]any{"country": "ZA"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseParams(tt.args))
		})
	}
}
