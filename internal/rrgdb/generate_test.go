package rrgdb

import (
	"os"
	"path/filepath"
	"testing"
)

func writePhpFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		path := filepath.Join(root, n)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("<?php\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestGenerateThenParseBreakpointMapRoundTrip(t *testing.T) {
	root := t.TempDir()
	writePhpFiles(t, root, "a.php", "sub/b.php", "not_php.txt")

	extDir := filepath.Join(t.TempDir(), "ext")
	if err := Generate(root, extDir, 4); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	bpMap, levelAr, maxStackDepth, err := ParseBreakpointMap(extDir)
	if err != nil {
		t.Fatalf("ParseBreakpointMap: %v", err)
	}

	if maxStackDepth != 4 {
		t.Errorf("maxStackDepth = %d, want 4", maxStackDepth)
	}
	if len(levelAr) != 4 {
		t.Errorf("len(levelAr) = %d, want 4", len(levelAr))
	}
	if len(bpMap) != 2 {
		t.Errorf("len(bpMap) = %d, want 2 (only .php files counted)", len(bpMap))
	}

	absA, _ := filepath.Abs(filepath.Join(root, "a.php"))
	if _, ok := bpMap["file://"+absA]; !ok {
		t.Errorf("bpMap missing entry for %s", absA)
	}
}

func TestParseBreakpointMapMissingFileIsError(t *testing.T) {
	_, _, _, err := ParseBreakpointMap(t.TempDir())
	if err == nil {
		t.Error("expected an error reading a directory with no dontbug_break.c")
	}
}
