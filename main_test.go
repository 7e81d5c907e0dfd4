package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) (home, project string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ENDEMISM_CONFIG", filepath.Join(home, "missing.yaml"))
	t.Setenv("ENDEMISM_REGISTRY", "")
	project = filepath.Join(home, "app")
	if err := os.MkdirAll(project, 0o755); err != nil {
		t.Fatal(err)
	}
	return home, project
}

func writePackage(t *testing.T, dir, name, version string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	pkg := `{"name":"` + name + `","version":"` + version + `"}`
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(pkg), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCLIWorkflow(t *testing.T) {
	home, project := setupEnv(t)
	src := filepath.Join(home, "src", "utils")
	writePackage(t, src, "utils", "1.0.0")

	out, err := run(t, "register", src)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !strings.Contains(out, "'utils=1.0.0' is successfully registered") {
		t.Fatalf("register output %q", out)
	}
	if _, err := os.Stat(filepath.Join(home, ".endemism_registry")); err != nil {
		t.Fatalf("global registry not created: %v", err)
	}

	out, err = run(t, "list")
	if err != nil || !strings.Contains(out, "utils") || !strings.Contains(out, src) {
		t.Fatalf("list: %q %v", out, err)
	}

	if out, err = run(t, "install", "-C", project, "utils@^1"); err != nil {
		t.Fatalf("install: %q %v", out, err)
	}
	if _, err := os.Stat(filepath.Join(project, "node_modules", "utils", "package.json")); err != nil {
		t.Fatalf("package not copied: %v", err)
	}

	out, err = run(t, "list", "-p", "-C", project)
	if err != nil || !strings.Contains(out, "1.0.0") {
		t.Fatalf("list -p: %q %v", out, err)
	}

	writePackage(t, src, "utils", "1.1.0")
	if _, err := run(t, "register", src); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "update", "-C", project)
	if err != nil || !strings.Contains(out, "updated from 1.0.0 to 1.1.0") {
		t.Fatalf("update: %q %v", out, err)
	}

	out, err = run(t, "uninstall", "-C", project, "utils")
	if err != nil || !strings.Contains(out, "uninstalled") {
		t.Fatalf("uninstall: %q %v", out, err)
	}

	out, err = run(t, "deregister", "utils")
	if err != nil || !strings.Contains(out, "removed from the registry") {
		t.Fatalf("deregister: %q %v", out, err)
	}
}

func TestCLIRegistryFlag(t *testing.T) {
	home, _ := setupEnv(t)
	src := filepath.Join(home, "src", "lib")
	writePackage(t, src, "lib", "0.1.0")
	custom := filepath.Join(home, "custom", "registry.json")

	if _, err := run(t, "--registry", custom, "register", src); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := os.Stat(custom); err != nil {
		t.Fatalf("custom registry not written: %v", err)
	}
	if _, err := run(t, "list"); err == nil {
		t.Fatalf("default registry should still be missing")
	}
}

func TestCLIErrors(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "install"); err == nil {
		t.Fatalf("install without args should fail")
	}
	if _, err := run(t, "list", "-g", "-p"); err == nil {
		t.Fatalf("-g and -p together should fail")
	}
	if _, err := run(t, "install", "ghost"); err == nil || !strings.Contains(err.Error(), "registry not found") {
		t.Fatalf("install with no registry: %v", err)
	}
}

func TestCLIHomeAsProject(t *testing.T) {
	home, _ := setupEnv(t)
	src := filepath.Join(home, "src", "utils")
	writePackage(t, src, "utils", "1.0.0")
	if _, err := run(t, "register", src); err != nil {
		t.Fatal(err)
	}
	if out, err := run(t, "install", "-C", home, "utils"); err != nil {
		t.Fatalf("install into home: %q %v", out, err)
	}
	out, err := run(t, "list", "-p", "-C", home)
	if err != nil || !strings.Contains(out, "utils") {
		t.Fatalf("list -p in home: %q %v", out, err)
	}
	out, err = run(t, "list")
	if err != nil || !strings.Contains(out, src) {
		t.Fatalf("global registry damaged: %q %v", out, err)
	}
}
