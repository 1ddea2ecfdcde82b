// Package rrgdb is the production RuntimeIntrospector: it drives a
// recorded debuggee through an `rr replay` session over gdb/mi, using the
// same breakpoint-in-the-debuggee protocol the teacher project pioneered
// for deterministic, reversible PHP debugging.
package rrgdb

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/fatih/color"
)

func findExec(file string) (string, error) {
	path, err := exec.LookPath(file)
	if err != nil {
		return "", fmt.Errorf("could not find %v: %w", file, err)
	}
	color.Yellow("dbgpd: using %v from path %v", filepath.Base(file), path)
	return path, nil
}

func getPathAndVersionLine(file string) (string, string, error) {
	path, err := findExec(file)
	if err != nil {
		return "", "", err
	}
	output, err := exec.Command(path, "--version").Output()
	if err != nil {
		return "", "", err
	}
	firstLine := strings.Split(string(output), "\n")[0]
	return path, firstLine, nil
}

// CheckPHPExecutable verifies phpExecutable is a debug build of PHP 7.x,
// mirroring the teacher's checkPhpExecutable.
func CheckPHPExecutable(phpExecutable string) (string, error) {
	path, firstLine, err := getPathAndVersionLine(phpExecutable)
	if err != nil {
		return "", err
	}
	versionString := strings.Split(firstLine, " ")[1]

	ver, err := semver.NewVersion(versionString)
	if err != nil {
		return "", err
	}
	constraint, err := semver.NewConstraint("^7.0")
	if err != nil {
		return "", err
	}
	if !constraint.Check(ver) {
		return "", fmt.Errorf("only PHP 7.x supported, got %v", versionString)
	}

	matched, err := regexp.MatchString(`\(.*DEBUG.*\)`, firstLine)
	if err != nil {
		return "", err
	}
	if !matched {
		return "", errors.New("PHP must be compiled in DEBUG mode")
	}
	return path, nil
}

// CheckRRExecutable verifies rrExecutable is >= 4.3.0.
func CheckRRExecutable(rrExecutable string) (string, error) {
	return checkVersionedExecutable(rrExecutable, ">= 4.3.0")
}

// CheckGdbExecutable verifies gdbExecutable is >= 7.11.1.
func CheckGdbExecutable(gdbExecutable string) (string, error) {
	return checkVersionedExecutable(gdbExecutable, ">= 7.11.1")
}

func checkVersionedExecutable(file, constraintStr string) (string, error) {
	path, firstLine, err := getPathAndVersionLine(file)
	if err != nil {
		return "", err
	}

	fields := strings.Split(firstLine, " ")
	versionString := fields[len(fields)-1]

	ver, err := semver.NewVersion(versionString)
	if err != nil {
		return "", err
	}
	constraint, err := semver.NewConstraint(constraintStr)
	if err != nil {
		return "", err
	}
	if !constraint.Check(ver) {
		return "", fmt.Errorf("%v does not satisfy %v (got %v)", file, constraintStr, versionString)
	}
	return path, nil
}
