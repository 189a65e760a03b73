package config

import (
	"flag"
	"os"

	"github.com/camtrapkit/uploader/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server (default from Config)
//	-t string   access token for the backend API
//	-d string   path to the local checkpoint database
//	-n int      parallel transfers per wave (0 = automatic)
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-d", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the backend server")
	fs.StringVar(&cfg.AuthToken, "t", cfg.AuthToken, "access token for the backend API")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local checkpoint database")
	fs.IntVar(&cfg.Concurrency, "n", cfg.Concurrency, "parallel transfers per wave (0 = automatic)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
