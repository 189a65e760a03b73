package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Upload(ctx context.Context, args []string) error
	Resume(ctx context.Context) error
	Jobs(ctx context.Context) error
	Status(ctx context.Context, jobID string) error
	Cancel(ctx context.Context, jobID string) error
}

// runREPL starts a simple read–eval–print loop for the uploader CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands:
//
//	help              — show available commands
//	upload DIR [k=v]  — upload a directory, optional processing parameters
//	resume            — resume the most recent interrupted job
//	jobs              — list your jobs on the backend
//	status ID         — show one job's state
//	cancel ID         — cancel a job on the backend
//	exit | quit       — leave the program
//
// Errors from command handlers are printed here in wrapped, actionable form;
// handlers never surface raw transport errors.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		printlnFn("uploader > ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn("Available commands: upload DIR [key=value ...], resume, jobs, status ID, cancel ID, exit")
		case "upload":
			if len(args) < 1 {
				printlnFn("usage: upload DIR [key=value ...]")
				continue
			}
			err = a.Upload(ctx, args)
		case "resume":
			err = a.Resume(ctx)
		case "jobs":
			err = a.Jobs(ctx)
		case "status":
			if len(args) != 1 {
				printlnFn("usage: status ID")
				continue
			}
			err = a.Status(ctx, args[0])
		case "cancel":
			if len(args) != 1 {
				printlnFn("usage: cancel ID")
				continue
			}
			err = a.Cancel(ctx, args[0])
		case "exit", "quit":
			return
		default:
			printlnFn(fmt.Sprintf("unknown command: %s (type 'help')", cmd))
		}

		if err != nil {
			printlnFn(fmt.Sprintf("error: %v", err))
		}
	}
}
