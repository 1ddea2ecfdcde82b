package rrgdb

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeExecutable drops a tiny shell script on disk that prints versionLine
// to stdout for "--version" and nothing otherwise, then points PATH at its
// directory so exec.LookPath finds it under name.
func fakeExecutable(t *testing.T, name, versionLine string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake executable script is POSIX shell only")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\necho '" + versionLine + "'\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestCheckRRExecutableAcceptsSatisfyingVersion(t *testing.T) {
	fakeExecutable(t, "rr", "rr 4.5.0")
	if _, err := CheckRRExecutable("rr"); err != nil {
		t.Errorf("expected rr 4.5.0 to satisfy >= 4.3.0, got: %v", err)
	}
}

func TestCheckRRExecutableRejectsOldVersion(t *testing.T) {
	fakeExecutable(t, "rr", "rr 4.2.0")
	if _, err := CheckRRExecutable("rr"); err == nil {
		t.Error("expected rr 4.2.0 to fail the >= 4.3.0 constraint")
	}
}

func TestCheckGdbExecutableAcceptsSatisfyingVersion(t *testing.T) {
	fakeExecutable(t, "gdb", "GNU gdb (GDB) 8.1")
	if _, err := CheckGdbExecutable("gdb"); err != nil {
		t.Errorf("expected gdb 8.1 to satisfy >= 7.11.1, got: %v", err)
	}
}

func TestCheckGdbExecutableRejectsOldVersion(t *testing.T) {
	fakeExecutable(t, "gdb", "GNU gdb (GDB) 7.10.0")
	if _, err := CheckGdbExecutable("gdb"); err == nil {
		t.Error("expected gdb 7.10.0 to fail the >= 7.11.1 constraint")
	}
}

func TestCheckPHPExecutableRequiresDebugBuild(t *testing.T) {
	fakeExecutable(t, "php", "PHP 7.2.1 (cli) (built: Jan  1 2018 00:00:00)")
	if _, err := CheckPHPExecutable("php"); err == nil {
		t.Error("expected a non-DEBUG build to be rejected")
	}
}

func TestCheckPHPExecutableAcceptsDebugBuild(t *testing.T) {
	fakeExecutable(t, "php", "PHP 7.2.1 (cli) (built: Jan  1 2018 00:00:00) (DEBUG)")
	if _, err := CheckPHPExecutable("php"); err != nil {
		t.Errorf("expected a DEBUG build of PHP 7.x to pass, got: %v", err)
	}
}

func TestCheckPHPExecutableRejectsWrongMajorVersion(t *testing.T) {
	fakeExecutable(t, "php", "PHP 5.6.40 (cli) (built: Jan  1 2018 00:00:00) (DEBUG)")
	if _, err := CheckPHPExecutable("php"); err == nil {
		t.Error("expected PHP 5.x to fail the ^7.0 constraint")
	}
}
