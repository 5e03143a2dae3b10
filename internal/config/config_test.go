package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProjectConfig(t *testing.T, projectDir, body string) {
	t.Helper()
	dir := filepath.Join(projectDir, ProjectDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(strings.TrimSpace(body)), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.Project.Resolver.TypePolicy != "first" || c.Project.Resolver.CheckOutPorts {
		t.Fatalf("unexpected resolver defaults: %+v", c.Project.Resolver)
	}
	if !c.Project.Input.ValidateSchema || !c.Project.Output.Color {
		t.Fatalf("expected schema validation and color on by default")
	}
	if want := filepath.Join(projectDir, "flows"); c.SourcesDir() != want {
		t.Fatalf("expected sources dir %s, got %s", want, c.SourcesDir())
	}
}

func TestNewConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	writeProjectConfig(t, projectDir, `
version: 1
resolver:
  type_policy: LAST
  max_parallel: 4
  check_out_ports: true
input:
  sources_dir: graphs/main
output:
  color: false
`)
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	r := c.Project.Resolver
	if r.TypePolicy != "last" || r.MaxParallel != 4 || !r.CheckOutPorts {
		t.Fatalf("unexpected resolver config: %+v", r)
	}
	if r.DefaultInPort != "in" || r.DefaultOutPort != "out" {
		t.Fatalf("expected default ports kept, got %+v", r)
	}
	if !c.Project.Input.ValidateSchema {
		t.Fatalf("expected omitted validate_schema to stay true")
	}
	if c.Project.Output.Color {
		t.Fatalf("expected color disabled")
	}
	if !strings.HasPrefix(c.SourcesDir(), projectDir) || !strings.HasSuffix(c.SourcesDir(), filepath.Join("graphs", "main")) {
		t.Fatalf("expected sources dir to be resolved, got %s", c.SourcesDir())
	}
}

func TestNewConfigValidation(t *testing.T) {
	cases := map[string]string{
		"policy":   "resolver:\n  type_policy: nearest",
		"parallel": "resolver:\n  max_parallel: -1",
		"version":  "version: -2",
		"yaml":     "resolver: [",
	}
	for name, body := range cases {
		projectDir := t.TempDir()
		writeProjectConfig(t, projectDir, body)
		if _, err := NewConfig(projectDir); err == nil {
			t.Fatalf("%s: expected validation error but got none", name)
		}
	}
}

func TestInitProjectDirCreatesLayout(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitProjectDir(projectDir); err != nil {
		t.Fatalf("InitProjectDir: %v", err)
	}
	for _, rel := range []string{"logs", "state", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(projectDir, ProjectDirName, rel)); err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("default template must load: %v", err)
	}
	if c.Project.Resolver.TypePolicy != "first" {
		t.Fatalf("unexpected template policy %q", c.Project.Resolver.TypePolicy)
	}

	// A second init keeps an edited config.
	writeProjectConfig(t, projectDir, "resolver:\n  trace: true")
	if err := InitProjectDir(projectDir); err != nil {
		t.Fatalf("second InitProjectDir: %v", err)
	}
	c, _ = NewConfig(projectDir)
	if !c.Project.Resolver.Trace {
		t.Fatalf("expected edited config preserved")
	}
}

func TestSetTypePolicyPersists(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetTypePolicy("last"); err != nil {
		t.Fatalf("SetTypePolicy: %v", err)
	}
	data, err := os.ReadFile(c.ProjectConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), projectDir) {
		t.Fatalf("expected saved paths relative to the project, got:\n%s", data)
	}
	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Project.Resolver.TypePolicy != "last" {
		t.Fatalf("expected persisted policy last, got %q", reloaded.Project.Resolver.TypePolicy)
	}
	if reloaded.SourcesDir() != c.SourcesDir() {
		t.Fatalf("sources dir changed on reload: %s vs %s", reloaded.SourcesDir(), c.SourcesDir())
	}
	if err := c.SetTypePolicy("sometimes"); err == nil {
		t.Fatalf("expected invalid policy to be rejected")
	}
}
