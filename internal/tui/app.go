// internal/tui/app.go
//
// This is the flow browser for flowsem. It uses bubbletea, which follows
// The Elm Architecture:
//
// 1. Model: the resolved flow file and what is selected
// 2. Update: a function that updates state based on messages
// 3. View: a function that renders state to a string

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/flowsem/internal/chain"
	"github.com/kingrea/flowsem/internal/config"
	"github.com/kingrea/flowsem/internal/diag"
	"github.com/kingrea/flowsem/internal/flow/resolver"
	"github.com/kingrea/flowsem/internal/logbook"
	"github.com/kingrea/flowsem/plugins"
)

// appState represents which "screen" we're on
type appState int

const (
	stateFlowList    appState = iota // List of resolved flows
	stateFlowDetail                  // Operations and connections of one flow
	stateDiagnostics                 // Every diagnostic of the file
)

const logPanelLines = 6

// SourceLoader turns the browsed path into a chain document.
type SourceLoader func(path string) (chain.Document, error)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithSourceLoader overrides how the browsed path is loaded.
func WithSourceLoader(loader SourceLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loader = loader
		}
	}
}

// WithResolveOptions overrides the resolver options taken from the config.
func WithResolveOptions(opts resolver.Options) AppOption {
	return func(a *App) {
		a.opts = opts
	}
}

type resolvedMsg struct {
	result resolver.Result
	err    error
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	logbook *logbook.Logbook
	loader  SourceLoader
	opts    resolver.Options
	source  string

	result   resolver.Result
	resolved bool
	err      error

	// UI components
	flowMenu  list.Model
	detail    flowDetail
	statusMsg string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates a browser for the document or directory at source.
func NewApp(projectDir, source string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	resolveOpts, err := resolver.OptionsFromConfig(cfg.Project.Resolver)
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	lb, err := logbook.New(cfg.RunLogPath())
	if err != nil {
		lb = nil
	}
	skipSchema := !cfg.Project.Input.ValidateSchema

	flowMenu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	flowMenu.Title = "Flows"
	flowMenu.SetShowStatusBar(false)
	flowMenu.SetFilteringEnabled(true)

	app := &App{
		state:   stateFlowList,
		config:  cfg,
		logbook: lb,
		opts:    resolveOpts,
		source:  source,
		loader: func(path string) (chain.Document, error) {
			return plugins.LoadSource(path, plugins.Options{SkipSchema: skipSchema})
		},
		flowMenu:  flowMenu,
		statusMsg: "Resolving " + source + "...",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app, nil
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.resolveCmd()
}

func (a *App) resolveCmd() tea.Cmd {
	loader, source, opts := a.loader, a.source, a.opts
	return func() tea.Msg {
		doc, err := loader(source)
		if err != nil {
			return resolvedMsg{err: err}
		}
		result, err := resolver.ResolveFile(context.Background(), doc, opts)
		return resolvedMsg{result: result, err: err}
	}
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.flowMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		return a, nil

	case resolvedMsg:
		return a.handleResolved(msg)

	case tea.KeyMsg:
		if a.flowMenu.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == stateFlowList {
				return a, tea.Quit
			}
			a.state = stateFlowList
			return a, nil
		case "esc":
			if a.state != stateFlowList {
				a.state = stateFlowList
				return a, nil
			}
		case "r":
			a.statusMsg = "Resolving " + a.source + "..."
			return a, a.resolveCmd()
		case "d":
			if a.resolved {
				a.state = stateDiagnostics
			}
			return a, nil
		case "enter":
			if a.state == stateFlowList {
				return a.openSelectedFlow()
			}
		case "tab":
			if a.state == stateFlowDetail {
				a.detail.nextSection()
				return a, nil
			}
		case "up", "k":
			if a.state == stateFlowDetail {
				a.detail.moveSelection(-1)
				return a, nil
			}
		case "down", "j":
			if a.state == stateFlowDetail {
				a.detail.moveSelection(1)
				return a, nil
			}
		}
	}

	if a.state == stateFlowList {
		var cmd tea.Cmd
		a.flowMenu, cmd = a.flowMenu.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleResolved(msg resolvedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.err = msg.err
		a.resolved = false
		a.flowMenu.SetItems(nil)
		a.statusMsg = "Resolution failed"
		a.logError("browse %s failed: %v", a.source, msg.err)
		return a, nil
	}
	a.err = nil
	a.result = msg.result
	a.resolved = true
	a.flowMenu.SetItems(buildFlowItems(msg.result))
	a.state = stateFlowList
	summary := diag.Summary(msg.result.Diagnostics)
	a.statusMsg = fmt.Sprintf("%d flow(s) · %s · run %s", len(msg.result.File.Flows), summary, shortID(msg.result.RunID.String()))
	a.logInfo("browse %s run %s: %d flow(s), %s", a.source, msg.result.RunID, len(msg.result.File.Flows), summary)
	return a, nil
}

func (a *App) openSelectedFlow() (tea.Model, tea.Cmd) {
	item, ok := a.flowMenu.SelectedItem().(flowItem)
	if !ok {
		return a, nil
	}
	a.detail = newFlowDetail(item.flow, diagnosticsFor(a.result.Diagnostics, item.flow.Name))
	a.state = stateFlowDetail
	return a, nil
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	var content string
	switch {
	case a.err != nil:
		content = errorTextStyle.Render(a.err.Error())
	case !a.resolved:
		content = "Loading flows..."
	case a.state == stateFlowDetail:
		content = a.detail.View(width - 6)
	case a.state == stateDiagnostics:
		content = a.renderDiagnostics()
	default:
		content = a.flowMenu.View()
	}
	return a.renderBoard(content, width)
}

func (a *App) renderBoard(content string, width int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⬡ FLOWSEM · " + a.fileLabel())
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, width-2)).
		Render(content)
	sections := []string{header, box}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg + "\n" + a.hints())
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) fileLabel() string {
	if a.resolved && a.result.File.FileName != "" {
		return a.result.File.FileName
	}
	return filepath.Base(a.source)
}

func (a *App) hints() string {
	switch a.state {
	case stateFlowDetail:
		return "tab: next section · ↑/↓: select operation · esc: back · d: diagnostics"
	case stateDiagnostics:
		return "esc: back · r: resolve again"
	default:
		return "enter: open flow · d: diagnostics · r: resolve again · q: quit"
	}
}

func (a *App) renderDiagnostics() string {
	ds := a.result.Diagnostics
	if len(ds) == 0 {
		return okTextStyle.Render("No diagnostics.")
	}
	title := sectionTitleStyle.Render(fmt.Sprintf("DIAGNOSTICS · %s", diag.Summary(ds)))
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.TrimRight(diag.Render(ds, true), "\n"))
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(lines))
	for _, line := range lines {
		rendered = append(rendered, renderLogLine(line))
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s (%d)", filepath.Base(a.logbook.Path()), total))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(head + "\n" + strings.Join(rendered, "\n"))
}

func renderLogLine(line string) string {
	entry, ok := logbook.ParseEntry(line)
	if !ok {
		return detailTextStyle.Render(line)
	}
	style := detailTextStyle
	switch entry.Level {
	case logbook.LevelError:
		style = errorTextStyle
	case logbook.LevelWarn:
		style = warnTextStyle
	}
	return fmt.Sprintf("%s %s", entry.Time.Local().Format("15:04:05"), style.Render(entry.Message))
}

func diagnosticsFor(ds []diag.Diagnostic, flowName string) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range ds {
		if d.Flow == flowName {
			out = append(out, d)
		}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
