package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/camtrapkit/uploader/internal/flagx"
	"github.com/camtrapkit/uploader/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the timeout either as a string like
// "60s" or as integer nanoseconds. Pointer fields distinguish "absent" from
// zero so a sparse file only overrides what it mentions.
type JsonConfig struct {
	ServerBaseURL  *string         `json:"server_base_url"`
	AuthToken      *string         `json:"auth_token"`
	DatabasePath   *string         `json:"database_path"`
	Concurrency    *int            `json:"concurrency"`
	MaxFileSizeMB  *int64          `json:"max_file_size_mb"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags (flagx.JsonConfigFlags); when absent,
// nothing is loaded. Intended usage is defaults -> parseJson -> parseFlags,
// where later stages override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != nil {
		cfg.ServerBaseURL = *jc.ServerBaseURL
	}
	if jc.AuthToken != nil {
		cfg.AuthToken = *jc.AuthToken
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.Concurrency != nil {
		cfg.Concurrency = *jc.Concurrency
	}
	if jc.MaxFileSizeMB != nil {
		cfg.MaxFileSizeMB = *jc.MaxFileSizeMB
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
}
