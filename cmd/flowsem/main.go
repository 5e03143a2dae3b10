// cmd/flowsem/main.go
//
// This is the entry point for the flowsem CLI.
//
// Commands:
// 1. resolve: turn chain documents into typed flows and report diagnostics
// 2. validate: check a document against the schema without resolving it
// 3. browse: open the flow browser TUI
// 4. init: create the .flowsem directory in a project

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const usageText = `Usage:
  flowsem resolve [-project dir] [-metrics-file f] [-format summary|yaml|json] [-no-color] [doc|dir]
  flowsem validate <doc>
  flowsem browse [-project dir] [doc|dir]
  flowsem init [-project dir] [-type-policy first|last]
`

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return exitUsage
	}
	switch args[0] {
	case "resolve":
		return runResolve(args[1:], stdout, stderr)
	case "validate":
		return runValidate(args[1:], stdout, stderr)
	case "browse":
		return runBrowse(args[1:], stderr)
	case "init":
		return runInit(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usageText)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usageText)
		return exitUsage
	}
}

// projectRoot resolves the -project flag, defaulting to the working directory.
func projectRoot(flagValue string) (string, error) {
	project := flagValue
	if project == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		project = cwd
	}
	abs, err := filepath.Abs(project)
	if err != nil {
		return "", fmt.Errorf("resolve project dir: %w", err)
	}
	return abs, nil
}

func fail(stderr io.Writer, format string, args ...any) int {
	fmt.Fprintf(stderr, format+"\n", args...)
	return exitFail
}
