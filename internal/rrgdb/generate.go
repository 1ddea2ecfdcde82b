package rrgdb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sentinel markers dontbug_break.c carries so ParseBreakpointMap can find
// its way back through the generated file without re-parsing PHP. Mirrors
// the teacher's replay.go:constructBreakpointLocMap sentinel set exactly,
// since the production introspector still expects this file shape.
const (
	numFilesSentinel      = "//&&& Number of Files:"
	maxStackDepthSentinel = "//&&& Max Stack Depth:"
	phpFilenameSentinel   = "//### "
	levelSentinel         = "//$$$"

	dontbugBreakFilename = "dontbug_break.c"
)

// Generate walks rootDir for .php files and writes extDir/dontbug_break.c:
// one breakpoint-able C case per PHP file (a stand-in for what the real
// dontbug.c case-per-line instrumentation would contain) plus maxStackDepth
// stack-level marker lines, so the rr/gdb backend has a stable source line
// to attach a breakpoint to for every file and every call depth.
func Generate(rootDir, extDir string, maxStackDepth int) error {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return err
	}

	var phpFiles []string
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".php") {
			phpFiles = append(phpFiles, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", rootDir, err)
	}

	if err := os.MkdirAll(extDir, 0o755); err != nil {
		return err
	}

	out, err := os.Create(filepath.Join(extDir, dontbugBreakFilename))
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%s %d\n", numFilesSentinel, len(phpFiles))
	fmt.Fprintf(w, "%s %d\n", maxStackDepthSentinel, maxStackDepth)
	fmt.Fprintln(w, "// Generated by dbgpd generate. Do not edit by hand.")

	for _, f := range phpFiles {
		fmt.Fprintf(w, "%s%s\n", phpFilenameSentinel, f)
	}
	for i := 0; i < maxStackDepth; i++ {
		fmt.Fprintf(w, "%s level %d\n", levelSentinel, i)
	}

	return w.Flush()
}

// ParseBreakpointMap reads extDir/dontbug_break.c back into the
// file->line, level->line, maxStackDepth triple the production introspector
// needs, the same shape the teacher's constructBreakpointLocMap builds --
// just returning an error instead of calling log.Fatal on the way.
func ParseBreakpointMap(extDir string) (map[string]int, []int, int, error) {
	path := filepath.Join(extDir, dontbugBreakFilename)
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, 0, err
	}
	defer file.Close()

	buf := bufio.NewReader(file)
	lineno := 0

	readLine := func() (string, error) {
		line, err := buf.ReadString('\n')
		lineno++
		return line, err
	}

	line, err := readLine()
	if err != nil {
		return nil, nil, 0, err
	}
	idx := strings.Index(line, numFilesSentinel)
	if idx == -1 {
		return nil, nil, 0, fmt.Errorf("%s: marker %q not found", path, numFilesSentinel)
	}
	numFiles, err := strconv.Atoi(strings.TrimSpace(line[idx+len(numFilesSentinel):]))
	if err != nil {
		return nil, nil, 0, err
	}

	line, err = readLine()
	if err != nil {
		return nil, nil, 0, err
	}
	idx = strings.Index(line, maxStackDepthSentinel)
	if idx == -1 {
		return nil, nil, 0, fmt.Errorf("%s: marker %q not found", path, maxStackDepthSentinel)
	}
	maxStackDepth, err := strconv.Atoi(strings.TrimSpace(line[idx+len(maxStackDepthSentinel):]))
	if err != nil {
		return nil, nil, 0, err
	}

	bpMap := make(map[string]int, numFiles)
	levelAr := make([]int, maxStackDepth)
	level := 0

	for {
		line, err := readLine()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, nil, 0, err
		}

		if idxB := strings.Index(line, phpFilenameSentinel); idxB != -1 {
			filename := "file://" + strings.TrimSpace(line[idxB+len(phpFilenameSentinel):])
			if _, ok := bpMap[filename]; ok {
				return nil, nil, 0, fmt.Errorf("%s: duplicate entry for %s", path, filename)
			}
			bpMap[filename] = lineno
		}

		if strings.Index(line, levelSentinel) != -1 {
			if level >= len(levelAr) {
				return nil, nil, 0, fmt.Errorf("%s: more level markers than max-stack-depth %d", path, maxStackDepth)
			}
			levelAr[level] = lineno
			level++
		}
	}

	if len(bpMap) != numFiles {
		return nil, nil, 0, fmt.Errorf("%s: says %d files, found %d", path, numFiles, len(bpMap))
	}

	return bpMap, levelAr, maxStackDepth, nil
}
