package patch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

// TestReadLinesHandlesCRLF verifies both line ending styles parse to
// the same sequence.
func TestReadLinesHandlesCRLF(t *testing.T) {
	dir := t.TempDir()

	crlf := filepath.Join(dir, "crlf.txt")
	writeFile(t, crlf, "one\r\ntwo\r\nthree\r\n")
	lf := filepath.Join(dir, "lf.txt")
	writeFile(t, lf, "one\ntwo\nthree\n")

	for _, path := range []string{crlf, lf} {
		lines, err := ReadLines(path)
		if err != nil {
			t.Fatalf("Failed to read lines: %v", err)
		}
		if len(lines) != 3 || lines[0] != "one" || lines[2] != "three" {
			t.Errorf("Unexpected lines from %s: %v", path, lines)
		}
	}
}

func TestReadLinesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	writeFile(t, path, "")

	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("Failed to read lines: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Expected no lines, got %v", lines)
	}
}

// TestWriteLinesUsesCRLF checks the files we write back carry Windows
// line endings.
func TestWriteLinesUsesCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	if err := WriteLines(path, []string{"a", "b"}); err != nil {
		t.Fatalf("Failed to write lines: %v", err)
	}

	if got := readFile(t, path); got != "a\r\nb\r\n" {
		t.Errorf("Unexpected content: %q", got)
	}
}

// TestApplySkipsWhenDetected verifies the no-op path leaves the file
// byte-identical.
func TestApplySkipsWhenDetected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.txt")
	writeFile(t, path, "already patched\r\n")

	spec := Spec{
		Name:      "test",
		Detect:    func([]string) bool { return true },
		Transform: func([]string) []string { return []string{"should not happen"} },
	}

	applied, err := Apply(path, spec)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if applied {
		t.Error("Apply should have been a no-op")
	}
	if got := readFile(t, path); got != "already patched\r\n" {
		t.Errorf("File was modified: %q", got)
	}
}

func TestApplyMissingFile(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{
		Name:      "test",
		Detect:    func([]string) bool { return false },
		Transform: func(lines []string) []string { return append(lines, "created") },
	}

	if _, err := Apply(filepath.Join(dir, "absent.txt"), spec); err == nil {
		t.Error("Expected an error for a missing file")
	}

	spec.CreateIfMissing = true
	path := filepath.Join(dir, "created.txt")
	applied, err := Apply(path, spec)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !applied {
		t.Error("Apply should have created the file")
	}
	if got := readFile(t, path); got != "created\r\n" {
		t.Errorf("Unexpected content: %q", got)
	}
}

// TestResolveOne covers the zero/one/many contract for the wildcard
// module path.
func TestResolveOne(t *testing.T) {
	root := t.TempDir()
	pattern := "Modules/OSD/*/OSD.psm1"

	if _, err := ResolveOne(root, pattern); err == nil {
		t.Error("Expected an error with zero matches")
	}

	writeFile(t, filepath.Join(root, "Modules", "OSD", "24.1.1", "OSD.psm1"), "x")
	got, err := ResolveOne(root, pattern)
	if err != nil {
		t.Fatalf("ResolveOne failed: %v", err)
	}
	if !strings.HasSuffix(got, "OSD.psm1") {
		t.Errorf("Unexpected match: %s", got)
	}

	writeFile(t, filepath.Join(root, "Modules", "OSD", "25.2.0", "OSD.psm1"), "x")
	if _, err := ResolveOne(root, pattern); err == nil {
		t.Error("Expected an error with two matches")
	}
}
