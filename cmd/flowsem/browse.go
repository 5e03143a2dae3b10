package main

import (
	"flag"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/flowsem/internal/config"
	"github.com/kingrea/flowsem/internal/tui"
)

func runBrowse(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	projectDir := fs.String("project", "", "path to the project directory (defaults to cwd)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 1 {
		fmt.Fprint(stderr, usageText)
		return exitUsage
	}
	project, err := projectRoot(*projectDir)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	source := ""
	if fs.NArg() == 1 {
		source = fs.Arg(0)
	} else {
		cfg, err := config.NewConfig(project)
		if err != nil {
			return fail(stderr, "load config: %v", err)
		}
		source = cfg.SourcesDir()
	}

	app, err := tui.NewApp(project, source)
	if err != nil {
		return fail(stderr, "Error starting browser: %v", err)
	}
	// tea.WithAltScreen uses the alternate screen buffer (like vim does)
	p := tea.NewProgram(app, tea.WithAltScreen())

	// Run blocks until the user quits
	if _, err := p.Run(); err != nil {
		return fail(stderr, "Error running TUI: %v", err)
	}
	return exitOK
}

func runInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	projectDir := fs.String("project", "", "path to the project directory (defaults to cwd)")
	typePolicy := fs.String("type-policy", "", "persist the resolver type policy (first or last)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	project, err := projectRoot(*projectDir)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	if err := config.InitProjectDir(project); err != nil {
		return fail(stderr, "Error initializing %s directory: %v", config.ProjectDirName, err)
	}
	cfg, err := config.NewConfig(project)
	if err != nil {
		return fail(stderr, "load config: %v", err)
	}
	if *typePolicy != "" {
		if err := cfg.SetTypePolicy(*typePolicy); err != nil {
			return fail(stderr, "set type policy: %v", err)
		}
	}
	fmt.Fprintf(stdout, "Initialized %s (type policy %s)\n", cfg.StateRoot, cfg.Project.Resolver.TypePolicy)
	return exitOK
}
