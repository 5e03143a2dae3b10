package tui

import (
	"errors"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/flowsem/internal/chain"
	"github.com/kingrea/flowsem/internal/config"
)

const browseDocument = `
file: browse.flow
version: {political: 0, major: 1}
flows:
  - name: main
    pos: 1
    chains:
      - - start: {port: {name: in}, type: string, pos: 10}
        - op: {name: read, type: ReadFile, pos: 12}
        - link: {type: Text, pos: 20}
        - op: {name: parse, type: Parse, pos: 22}
        - end: {port: {name: out}, pos: 30}
      - - op: {name: parse, pos: 40}
        - link: {out: {name: err}, pos: 42}
        - op: {name: log, type: Log, pos: 44}
  - name: broken
    pos: 100
    chains:
      - - op: {name: a, type: X, pos: 110}
        - link: {type: int, pos: 112}
        - op: {name: b, pos: 114}
      - - op: {name: a, type: Y, pos: 120}
        - link: {type: int, pos: 122}
        - op: {name: c, pos: 124}
`

func documentLoader(t *testing.T) SourceLoader {
	t.Helper()
	return func(string) (chain.Document, error) {
		return chain.ParseDocumentYAML([]byte(browseDocument))
	}
}

func TestAppResolvesOnInit(t *testing.T) {
	projectDir := t.TempDir()
	app := newTestApp(t, projectDir, WithSourceLoader(documentLoader(t)))
	app = runCommands(t, app, app.Init())

	if !app.resolved || app.err != nil {
		t.Fatalf("expected resolved app, got err %v", app.err)
	}
	if got := len(app.flowMenu.Items()); got != 2 {
		t.Fatalf("expected 2 flows in menu, got %d", got)
	}
	item, ok := app.flowMenu.Items()[1].(flowItem)
	if !ok || item.flow.Name != "broken" || item.errors != 1 {
		t.Fatalf("unexpected second item: %+v", app.flowMenu.Items()[1])
	}
	if !strings.Contains(app.statusMsg, "2 flow(s)") || !strings.Contains(app.statusMsg, "2 error(s)") {
		t.Fatalf("unexpected status %q", app.statusMsg)
	}
	view := app.View()
	for _, want := range []string{"FLOWSEM", "browse.flow", "main", "runs.log"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q:\n%s", want, view)
		}
	}
}

func TestAppFlowDetailNavigation(t *testing.T) {
	app := newTestApp(t, t.TempDir(), WithSourceLoader(documentLoader(t)))
	app = runCommands(t, app, app.Init())

	app = sendKey(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if app.state != stateFlowDetail || app.detail.flow.Name != "main" {
		t.Fatalf("expected detail of main, got state %d flow %q", app.state, app.detail.flow.Name)
	}
	if !strings.Contains(app.View(), "> read") {
		t.Fatalf("expected read selected:\n%s", app.View())
	}
	app = sendKey(t, app, runeKey("j"))
	if view := app.View(); !strings.Contains(view, "> parse") || !strings.Contains(view, "pair in -> out") {
		t.Fatalf("expected parse selected with its port pairs:\n%s", view)
	}

	app = sendKey(t, app, tea.KeyMsg{Type: tea.KeyTab})
	view := app.View()
	if !strings.Contains(view, "read.out -[Text]-> parse.in") {
		t.Fatalf("expected declared connection:\n%s", view)
	}
	if !strings.Contains(view, "parse.out -[Text*]-> <flow>.out") {
		t.Fatalf("expected inherited type marker:\n%s", view)
	}

	app = sendKey(t, app, tea.KeyMsg{Type: tea.KeyTab})
	if view := app.View(); !strings.Contains(view, "flow main chain 2") {
		t.Fatalf("expected flow diagnostics:\n%s", view)
	}

	app = sendKey(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.state != stateFlowList {
		t.Fatalf("expected esc to return to list, got %d", app.state)
	}
}

func TestAppDiagnosticsScreen(t *testing.T) {
	app := newTestApp(t, t.TempDir(), WithSourceLoader(documentLoader(t)))
	app = runCommands(t, app, app.Init())
	app = sendKey(t, app, runeKey("d"))
	if app.state != stateDiagnostics {
		t.Fatalf("expected diagnostics state, got %d", app.state)
	}
	view := app.View()
	if !strings.Contains(view, "DIAGNOSTICS · 2 error(s), 0 warning(s)") {
		t.Fatalf("expected summary title:\n%s", view)
	}
	if !strings.Contains(view, "browse.flow:120") {
		t.Fatalf("expected conflict position:\n%s", view)
	}
}

func TestAppLoaderErrorIsShownAndLogged(t *testing.T) {
	projectDir := t.TempDir()
	loader := func(string) (chain.Document, error) {
		return chain.Document{}, errors.New("no such document")
	}
	app := newTestApp(t, projectDir, WithSourceLoader(loader))
	app = runCommands(t, app, app.Init())
	if app.err == nil || app.resolved {
		t.Fatalf("expected loader failure to be recorded")
	}
	if !strings.Contains(app.View(), "no such document") {
		t.Fatalf("expected error in view:\n%s", app.View())
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(cfg.RunLogPath())
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(data), "ERROR") || !strings.Contains(string(data), "no such document") {
		t.Fatalf("expected logged failure, got %q", data)
	}

	// d does nothing until a resolve succeeds.
	app = sendKey(t, app, runeKey("d"))
	if app.state != stateFlowList {
		t.Fatalf("expected to stay on list, got %d", app.state)
	}
}

func TestAppKeysQuitAndResolveAgain(t *testing.T) {
	calls := 0
	loader := func(string) (chain.Document, error) {
		calls++
		return chain.ParseDocumentYAML([]byte(browseDocument))
	}
	app := newTestApp(t, t.TempDir(), WithSourceLoader(loader))
	app = runCommands(t, app, app.Init())

	model, cmd := app.Update(runeKey("r"))
	app = runCommands(t, model, cmd)
	if calls != 2 {
		t.Fatalf("expected r to load the source again, got %d loads", calls)
	}

	_, cmd = app.Update(runeKey("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func newTestApp(t *testing.T, projectDir string, opts ...AppOption) *App {
	t.Helper()
	app, err := NewApp(projectDir, "browse.flow", opts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	model, _ := app.Update(tea.WindowSizeMsg{Width: 140, Height: 60})
	return model.(*App)
}

func sendKey(t *testing.T, app *App, msg tea.KeyMsg) *App {
	t.Helper()
	model, cmd := app.Update(msg)
	return runCommands(t, model, cmd)
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		if _, quit := msg.(tea.QuitMsg); quit {
			break
		}
		nextModel, nextCmd := app.Update(msg)
		var ok bool
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		cmd = nextCmd
	}
	return app
}
