package registry

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"endemism/pkg/types"
)

func TestReadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reg.json")
	if _, err := Read[types.GlobalRegistry](path); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	m, err := ReadOrInit[types.ProjectRegistry](path)
	if err != nil {
		t.Fatalf("ReadOrInit: %v", err)
	}
	if m == nil || len(m) != 0 {
		t.Fatalf("expected empty registry, got %v", m)
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reg.json")
	in := types.GlobalRegistry{
		"left-pad": {Path: "/src/left-pad", Version: "1.3.0"},
		"@acme/ui": {Path: "/src/ui", Version: "0.2.0"},
	}
	if err := Write(path, in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := Read[types.GlobalRegistry](path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch: %v != %v", in, out)
	}
}

func TestReadOriginalFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reg.json")
	raw := `{"utils":{"path":"/home/me/utils","version":"2.0.1"}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Read[types.GlobalRegistry](path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if m["utils"].Path != "/home/me/utils" || m["utils"].Version != "2.0.1" {
		t.Fatalf("unexpected entry %+v", m["utils"])
	}
}

func TestReadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reg.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadOrInit[types.ProjectRegistry](path)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestReadNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reg.json")
	if err := os.WriteFile(path, []byte("null"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Read[types.ProjectRegistry](path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	m["x"] = "1.0.0"
}

func TestNames(t *testing.T) {
	got := Names(types.ProjectRegistry{"b": "1", "a": "2", "@z/c": "3"})
	want := []string{"@z/c", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Names=%v want %v", got, want)
	}
}
