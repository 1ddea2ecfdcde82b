package fixtureruntime

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dbgpcore/dbgpd/engine"
)

// Runtime is a fixed, single-stack RuntimeIntrospector: frame 0 is "current"
// and stepping just walks a scripted list of (file, line) positions,
// enough to exercise the Session Controller's dispatch and the Symbol Path
// Evaluator without a live scripting engine on the other end.
type Runtime struct {
	frames    []engine.Frame
	positions []position
	pos       int

	stdoutHook func([]byte)
	stderrHook func([]byte)

	sources map[string]string
}

type position struct {
	file  string
	line  int
}

// New builds a Runtime with a single frame whose locals/self are supplied
// by the caller, stepping through positions in order as Resume is called.
func New(frames []engine.Frame, positions []struct {
	File string
	Line int
}, sources map[string]string) *Runtime {
	ps := make([]position, len(positions))
	for i, p := range positions {
		ps[i] = position{file: p.File, line: p.Line}
	}
	return &Runtime{frames: frames, positions: ps, sources: sources}
}

// NewDefault builds the sample object graph "dbgpd serve --backend=fixture"
// demonstrates the protocol with: a $this with public/protected/private
// properties of the same name, a numeric array, and a short scripted walk
// through three source lines.
func NewDefault() *Runtime {
	self := NewObject("Greeter", map[string]engine.Value{
		PublicKey("name"):                 NewString("public"),
		ProtectedKey("name"):              NewString("protected"),
		PrivateKey("Greeter", "name"):      NewString("private"),
		PublicKey("items"):                NewArray(NewInt(1), NewInt(2), NewInt(3)),
	})
	locals := NewLocals(map[string]engine.Value{
		"this":  self,
		"count": NewInt(0),
	})
	frames := []engine.Frame{
		{FunctionName: "greet", ClassName: "Greeter", Self: self, Locals: locals},
	}
	positions := []struct {
		File string
		Line int
	}{
		{File: "file:///fixture/greeter.php", Line: 10},
		{File: "file:///fixture/greeter.php", Line: 11},
		{File: "file:///fixture/greeter.php", Line: 12},
	}
	sources := map[string]string{
		"file:///fixture/greeter.php": "<?php\nclass Greeter {\n  public $name = 'public';\n  function greet() {\n    echo $this->name;\n  }\n}\n",
	}
	return New(frames, positions, sources)
}

func (r *Runtime) CurrentFrame() (engine.Frame, bool) {
	return r.Frame(0)
}

func (r *Runtime) Frame(depth int) (engine.Frame, bool) {
	if depth < 0 || depth >= len(r.frames) {
		return engine.Frame{}, false
	}
	f := r.frames[depth]
	if len(r.positions) > 0 {
		f.Filename = r.positions[r.pos].file
		f.Lineno = r.positions[r.pos].line
	}
	return f, true
}

func (r *Runtime) StackDepth() int {
	return len(r.frames)
}

func (r *Runtime) ExecutedFile() string {
	if len(r.positions) == 0 {
		return ""
	}
	return r.positions[r.pos].file
}

func (r *Runtime) ExecutedLine() int {
	if len(r.positions) == 0 {
		return 0
	}
	return r.positions[r.pos].line
}

// Resume advances to the next scripted position regardless of mode: the
// fixture has no real control-flow graph to step_into/over/out within, so
// every ExecMode just moves the program counter one position forward. ended
// reports true once the positions are exhausted.
func (r *Runtime) Resume(mode engine.ExecMode) (bool, error) {
	if r.pos+1 >= len(r.positions) {
		r.pos = len(r.positions) - 1
		return true, nil
	}
	r.pos++
	return false, nil
}

// Evaluate supports symbol-path lookups plus bare integer/string literals
// and the "==" / ">=" comparisons breakpoint conditions need -- enough
// surface for the testable properties in spec.md §8, not a general
// expression evaluator.
func (r *Runtime) Evaluate(source string) (engine.Value, error) {
	source = strings.TrimSpace(source)

	for _, op := range []string{">=", "=="} {
		if idx := strings.Index(source, op); idx >= 0 {
			lhs, err := r.Evaluate(source[:idx])
			if err != nil {
				return nil, err
			}
			rhs, err := r.Evaluate(source[idx+len(op):])
			if err != nil {
				return nil, err
			}
			lt, _ := lhs.Scalar()
			rt, _ := rhs.Scalar()
			ln, lerr := strconv.Atoi(strings.TrimSpace(lt))
			rn, rerr := strconv.Atoi(strings.TrimSpace(rt))
			var result bool
			if lerr == nil && rerr == nil {
				if op == ">=" {
					result = ln >= rn
				} else {
					result = ln == rn
				}
			} else {
				result = lt == rt
			}
			return NewInt(boolToInt(result)), nil
		}
	}

	if n, err := strconv.Atoi(source); err == nil {
		return NewInt(n), nil
	}
	if len(source) >= 2 && source[0] == '\'' && source[len(source)-1] == '\'' {
		return NewString(source[1 : len(source)-1]), nil
	}

	f, ok := r.CurrentFrame()
	if !ok {
		return nil, fmt.Errorf("no current frame")
	}
	return engine.EvaluateSymbolPath(f.Locals, f.Self, source)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *Runtime) OpenSource(url string) (io.ReadCloser, error) {
	src, ok := r.sources[url]
	if !ok {
		return nil, fmt.Errorf("no such source: %s", url)
	}
	return io.NopCloser(bytes.NewBufferString(src)), nil
}

func (r *Runtime) InstallStdoutHook(fn func([]byte)) func() {
	prev := r.stdoutHook
	r.stdoutHook = fn
	return func() { r.stdoutHook = prev }
}

func (r *Runtime) InstallStderrHook(fn func([]byte)) func() {
	prev := r.stderrHook
	r.stderrHook = fn
	return func() { r.stderrHook = prev }
}

// Emit feeds bytes through whichever hook is currently installed, used by
// tests to simulate debuggee output.
func (r *Runtime) Emit(stdout bool, data []byte) {
	if stdout && r.stdoutHook != nil {
		r.stdoutHook(data)
	}
	if !stdout && r.stderrHook != nil {
		r.stderrHook(data)
	}
}

var _ engine.RuntimeIntrospector = (*Runtime)(nil)
