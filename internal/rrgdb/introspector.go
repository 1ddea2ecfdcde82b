package rrgdb

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dbgpcore/dbgpd/engine"
)

// Introspector implements engine.RuntimeIntrospector against a *Session,
// driving the debuggee entirely through gdb/mi expressions evaluated
// against the compiled-in dontbug.c helper globals, exactly as the
// teacher's handler functions do (just regrouped behind the interface
// instead of threaded through a shared engineState).
type Introspector struct {
	session   *Session
	sourceMap map[string]int // PHP filename -> internal source line, from `dbgpd generate`
	levelAr   []int          // stack-level breakpoint source lines, indexed by depth

	breakpoints *engine.BreakpointRegistry
	gdbBkptIDs  map[string]string // gdb bkptno -> DBGp breakpoint ID

	reverse bool

	stdoutHook func([]byte)
	stderrHook func([]byte)
}

// SetReverse toggles whether Resume drives gdb/mi's reverse-execution
// commands, the production equivalent of the teacher's debuggerLoop "t"/"r"/
// "f" console toggles -- here exposed as the CLI's --reverse flag instead of
// a runtime console toggle; the interactive console has no reverse toggle.
func (in *Introspector) SetReverse(reverse bool) {
	in.reverse = reverse
}

// New wraps an already-attached Session as a RuntimeIntrospector.
func New(session *Session, breakpoints *engine.BreakpointRegistry, sourceMap map[string]int, levelAr []int) *Introspector {
	return &Introspector{
		session:     session,
		breakpoints: breakpoints,
		sourceMap:   sourceMap,
		levelAr:     levelAr,
		gdbBkptIDs:  make(map[string]string),
	}
}

// InstallBreakpoint arranges for a DBGp line/conditional breakpoint to
// actually be able to stop the debuggee: it inserts a real gdb breakpoint at
// bp.Filename's instrumentation line (from `dbgpd generate`'s one-line-per-
// file case statement) and records the resulting gdb breakpoint number
// against bp's DBGp ID, so Resume can translate ContinueExecution's bkptno
// back into a Breakpoint Registry lookup. Breakpoint kinds other than
// line/conditional have no gdb-insertable location in this scheme and are
// left to fire purely off the registry's own bookkeeping (call/return/
// exception breakpoints aren't wired to stop execution at all yet).
func (in *Introspector) InstallBreakpoint(bp engine.Breakpoint) error {
	if bp.Type != engine.BreakpointLine && bp.Type != engine.BreakpointConditional {
		return nil
	}
	line, ok := in.sourceMap[bp.Filename]
	if !ok {
		return fmt.Errorf("no source mapping for %s; run `dbgpd generate` first", bp.Filename)
	}
	result, err := sendGdbCommand(in.session.gdb, "break-insert", fmt.Sprintf("-f --source dontbug.c --line %d", line))
	if err != nil {
		return err
	}
	gdbID, err := breakInsertResult(result)
	if err != nil {
		return err
	}
	in.gdbBkptIDs[gdbID] = bp.ID
	return nil
}

func (in *Introspector) currentFilename() (string, error) {
	return xSlashS(in.session.gdb, "filename")
}

func (in *Introspector) currentLineno() (int, error) {
	return xSlashD(in.session.gdb, "lineno")
}

func (in *Introspector) currentLevel() (int, error) {
	return xSlashD(in.session.gdb, "level")
}

func (in *Introspector) ExecutedFile() string {
	f, err := in.currentFilename()
	if err != nil {
		return ""
	}
	return f
}

func (in *Introspector) ExecutedLine() int {
	l, err := in.currentLineno()
	if err != nil {
		return 0
	}
	return l
}

func (in *Introspector) StackDepth() int {
	level, err := in.currentLevel()
	if err != nil {
		return 0
	}
	return level + 1
}

func (in *Introspector) CurrentFrame() (engine.Frame, bool) {
	return in.Frame(0)
}

// Frame reports the frame at depth. Depths below the innermost one require
// unwinding through gdb's stack-level breakpoints, which the production
// backend does not yet expose beyond the current frame -- matching the
// teacher, which also only ever inspects the innermost PHP frame directly.
func (in *Introspector) Frame(depth int) (engine.Frame, bool) {
	if depth != 0 {
		return engine.Frame{}, false
	}
	filename, err := in.currentFilename()
	if err != nil {
		return engine.Frame{}, false
	}
	lineno, err := in.currentLineno()
	if err != nil {
		return engine.Frame{}, false
	}
	return engine.Frame{
		Filename: filename,
		Lineno:   lineno,
		Locals:   &diversionValue{in: in, expr: "dontbug_locals()"},
		Self:     &diversionValue{in: in, expr: "dontbug_this()"},
	}, true
}

// Evaluate returns a diversionValue over the debuggee expression
// `dontbug_eval("<source>")`: nothing is sent to gdb here, and every later
// read of the value round-trips through gdb/mi, the same indirection
// other_commands.go's diversionSessionCmd uses.
func (in *Introspector) Evaluate(source string) (engine.Value, error) {
	return &diversionValue{in: in, expr: fmt.Sprintf("dontbug_eval(%q)", source)}, nil
}

func (in *Introspector) OpenSource(url string) (io.ReadCloser, error) {
	lineno, ok := in.sourceMap[url]
	if !ok {
		return nil, fmt.Errorf("no source mapping for %s; run `dbgpd generate` first", url)
	}
	text, err := xSlashS(in.session.gdb, fmt.Sprintf("dontbug_source_at(%d)", lineno))
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewBufferString(text)), nil
}

func (in *Introspector) InstallStdoutHook(fn func([]byte)) func() {
	prev := in.stdoutHook
	in.stdoutHook = fn
	return func() { in.stdoutHook = prev }
}

func (in *Introspector) InstallStderrHook(fn func([]byte)) func() {
	prev := in.stderrHook
	in.stderrHook = fn
	return func() { in.stderrHook = prev }
}

// Resume drives exec-continue (optionally --reverse, per SetReverse) and
// reports whether the run ended the program or merely stopped at a
// breakpoint/step boundary. step_over/step_out additionally install a
// temporary stack-level breakpoint before continuing, exactly the way
// step.go's handleStepOverOrOut does.
func (in *Introspector) Resume(mode engine.ExecMode) (bool, error) {
	reverse := in.reverse
	level := mode.Level

	switch mode.Kind {
	case engine.StepOver, engine.StepOut:
		limit := level
		if mode.Kind == engine.StepOut && limit > 0 {
			limit--
		}
		if limit < 0 || limit >= len(in.levelAr) {
			return true, nil
		}
		id, err := in.setStackLevelBreakpoint(limit)
		if err != nil {
			return false, err
		}
		defer in.removeBreakpoint(id)
	}

	gdbID, err := in.session.ContinueExecution(reverse)
	if err != nil {
		return false, err
	}

	// gdbID names whichever gdb breakpoint actually stopped us: one of ours
	// (installed by InstallBreakpoint, translated below), one of the
	// internal stack-level breakpoints set up by setStackLevelBreakpoint (no
	// entry in gdbBkptIDs, nothing to check), or the session's own internal
	// step breakpoint from attach().
	if in.breakpoints != nil && in.gdbBkptIDs != nil {
		if dbgpID, ok := in.gdbBkptIDs[gdbID]; ok {
			bp, ok := in.breakpoints.Get(dbgpID)
			if ok && !engine.ConditionSatisfied(in, bp) {
				return in.Resume(mode)
			}
			if shouldBreak, err := in.breakpoints.RecordHit(dbgpID); err == nil && !shouldBreak {
				// Hit count didn't satisfy hit_condition: keep going.
				return in.Resume(mode)
			}
		}
	}

	return false, nil
}

func (in *Introspector) setStackLevelBreakpoint(level int) (string, error) {
	if level < 0 || level >= len(in.levelAr) {
		return "", fmt.Errorf("no stack-level breakpoint registered for depth %d", level)
	}
	result, err := sendGdbCommand(in.session.gdb, "break-insert", fmt.Sprintf("-f --source dontbug.c --line %d", in.levelAr[level]))
	if err != nil {
		return "", err
	}
	return breakInsertResult(result)
}

func (in *Introspector) removeBreakpoint(id string) {
	_, _ = sendGdbCommand(in.session.gdb, "break-delete", id)
}

var _ engine.RuntimeIntrospector = (*Introspector)(nil)
