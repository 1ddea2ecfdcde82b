// Copyright © 2016 Sidharth Kshatriya
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// SessionConfig bundles the per-connection parameters a new
// SessionController is constructed with.
type SessionConfig struct {
	IDEKey          string
	AppID           int
	LanguageName    string
	LanguageVersion string
	EngineVersion   string
	Logger          RemoteLogger

	// Breakpoints, when non-nil, is the registry this session shares with its
	// RuntimeIntrospector backend (e.g. rrgdb.Introspector, which consults it
	// from Resume). A nil value gets a fresh, session-private registry, which
	// is only actually useful for a backend like fixtureruntime that doesn't
	// evaluate breakpoints on its own.
	Breakpoints *BreakpointRegistry

	// Cookie is the DBGP_COOKIE value negotiated at connect time, echoed back
	// in the init packet's session attribute per spec.md §4.8/§6.
	Cookie string
}

// SessionController is the Session Controller / Command Loop: it owns the
// status/reason state machine, the breakpoint and eval-source registries,
// the feature registry, and the single RuntimeIntrospector this session
// drives. It never assumes anything about what is on the other side of
// RuntimeIntrospector.
type SessionController struct {
	cfg SessionConfig

	conn   net.Conn
	reader *commandReader
	writer *packetWriter

	runtime  RuntimeIntrospector
	renderer ValueRenderer
	features *featureRegistry
	breakpts *BreakpointRegistry
	evalSrc  *EvalSourceRegistry

	status Status
	reason Reason
}

// NewSessionController wires a fresh session around conn and runtime.
func NewSessionController(conn net.Conn, runtime RuntimeIntrospector, cfg SessionConfig) *SessionController {
	if cfg.EngineVersion == "" {
		cfg.EngineVersion = "0.1.0"
	}
	breakpts := cfg.Breakpoints
	if breakpts == nil {
		breakpts = NewBreakpointRegistry()
	}
	return &SessionController{
		cfg:      cfg,
		conn:     conn,
		reader:   newCommandReader(bufio.NewReader(conn), cfg.Logger),
		writer:   newPacketWriter(conn, cfg.Logger),
		runtime:  runtime,
		renderer: NewValueRenderer(),
		features: newFeatureRegistry(cfg.LanguageName, cfg.LanguageVersion),
		breakpts: breakpts,
		evalSrc:  NewEvalSourceRegistry(),
		status:   StatusStarting,
		reason:   ReasonOK,
	}
}

// SendInit writes the session's init packet, the first thing a DBGp
// connection ever sends.
func (s *SessionController) SendInit() error {
	xmlDoc := fmt.Sprintf(initResponseFormat, s.cfg.LanguageName, fileURI(s.runtime.ExecutedFile()), s.cfg.AppID, s.cfg.IDEKey, s.cfg.Cookie, s.cfg.EngineVersion, s.cfg.EngineVersion)
	return s.writer.WritePacket(xmlDoc)
}

// fileURI normalizes a RuntimeIntrospector-reported path into a file://
// URL. Backends differ on whether ExecutedFile already returns one (the
// fixture does; rrgdb's gdb-reported bare path doesn't), so this only adds
// the prefix when it's missing rather than unconditionally prepending it.
func fileURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + path
}

// Run is the command loop: read a command, dispatch it, write the
// response, until the connection closes or the session is stopped. A
// malformed command line never terminates the session (spec'd behavior):
// parseCommand's errors are always *dbgpError, so they're distinguished
// from the reader's raw I/O errors (closed socket, EOF) by type, not by
// content -- an I/O error still ends the loop, a protocol error doesn't.
func (s *SessionController) Run() error {
	for {
		cmd, err := s.reader.ReadCommand()
		if err != nil {
			if de, ok := err.(*dbgpError); ok {
				if werr := s.writer.WritePacket(s.renderError(nil, de)); werr != nil {
					return werr
				}
				continue
			}
			return err
		}

		xmlDoc, handlerErr := s.dispatch(cmd)
		if handlerErr != nil {
			xmlDoc = s.renderError(cmd, handlerErr)
		}
		if err := s.writer.WritePacket(xmlDoc); err != nil {
			return err
		}
		if s.status == StatusStopped && cmd.Command == "stop" {
			return nil
		}
	}
}

// renderError builds an <error> response. cmd is nil when the command line
// itself couldn't be parsed, so neither a command name nor a transaction id
// is available to echo back.
func (s *SessionController) renderError(cmd *dbgpCmd, err error) string {
	code := ErrUnknown
	msg := err.Error()
	if de, ok := err.(*dbgpError); ok {
		code = de.code
		msg = de.message
	}
	command, seq := "", ""
	if cmd != nil {
		command, seq = cmd.Command, cmd.Seq
	}
	return fmt.Sprintf(errorResponseFormat, command, seq, int(code), msg)
}

// dispatch routes a parsed command through the static command table,
// honoring the post-mortem and continues flags spec.md's Command Dispatcher
// component requires.
func (s *SessionController) dispatch(cmd *dbgpCmd) (string, error) {
	entry, ok := lookupCommand(cmd.Command)
	if !ok {
		return "", newError(ErrUnimplemented)
	}

	if s.status == StatusStopping && !entry.flags.postMortem {
		return "", newError(ErrCommandUnavailable)
	}

	if entry.flags.continues {
		s.status = StatusRunning
		s.reason = ReasonOK
	}

	xmlDoc, err := entry.handler(s, cmd)
	if err != nil {
		return "", err
	}
	return xmlDoc, nil
}

// --- status, feature_get/set ---------------------------------------------

func (s *SessionController) handleStatus(cmd *dbgpCmd) (string, error) {
	return fmt.Sprintf(statusResponseFormat, cmd.Seq, s.status, s.reason), nil
}

func (s *SessionController) handleFeatureGet(cmd *dbgpCmd) (string, error) {
	n, ok := cmd.Get('n')
	if !ok {
		return "", newError(ErrInvalidOptions)
	}
	v, supported := s.features.Get(n)
	return fmt.Sprintf(featureGetResponseFormat, cmd.Seq, n, boolToBit(supported), v), nil
}

// handleTypemapGet advertises the fixed common/language/xsi:type table every
// DBGp engine reports its property types against, grounded on xdebug's own
// static xdebug_dbgp_typemap.
func (s *SessionController) handleTypemapGet(cmd *dbgpCmd) (string, error) {
	return fmt.Sprintf(typeMapGetResponseFormat, cmd.Seq, renderTypeMap()), nil
}

// handleProfilerNameGet always reports error 800: this adapter has no
// profiler to name a file for.
func (s *SessionController) handleProfilerNameGet(cmd *dbgpCmd) (string, error) {
	return "", newError(ErrProfilerNotStarted)
}

// handleGetExecutableLines requires a stack depth and reports the
// executable source lines within that frame's function. The Runtime
// Introspector contract has no op-array/AST to enumerate a function body's
// full line set from, so this reports only the frame's current line -- a
// degenerate but honest approximation, not a full per-function line table.
func (s *SessionController) handleGetExecutableLines(cmd *dbgpCmd) (string, error) {
	d, ok := cmd.Get('d')
	if !ok {
		return "", newError(ErrInvalidOptions)
	}
	depth, err := strconv.Atoi(d)
	if err != nil {
		return "", newError(ErrStackDepthInvalid)
	}
	f, ok := s.runtime.Frame(depth)
	if !ok {
		return "", newError(ErrStackDepthInvalid)
	}
	return fmt.Sprintf(executableLinesResponseFormat, cmd.Seq, renderExecutableLines([]int{f.Lineno})), nil
}

func (s *SessionController) handleFeatureSet(cmd *dbgpCmd) (string, error) {
	n, ok := cmd.Get('n')
	if !ok {
		return "", newError(ErrInvalidOptions)
	}
	v, ok := cmd.Get('v')
	if !ok {
		return "", newError(ErrInvalidOptions)
	}
	if err := s.features.Set(n, v); err != nil {
		return "", err
	}
	return fmt.Sprintf(featureSetResponseFormat, cmd.Seq, n, 1), nil
}

// --- run / step -----------------------------------------------------------

// resumeAndReport drives the runtime forward under mode until either the
// program ends or execution should stop and be reported back to the IDE.
// For "run" (and reverse-run), a landed position doesn't stop the session
// unless a breakpoint registered there actually fires (spec.md §4.3); for a
// step command the step boundary itself is always the stop, but breakpoints
// at that position still get their hit recorded.
func (s *SessionController) resumeAndReport(cmd *dbgpCmd, mode ExecMode) (string, error) {
	for {
		ended, err := s.runtime.Resume(mode)
		if err != nil {
			return "", newErrorf(ErrInternalException, err.Error())
		}

		if ended {
			s.status = StatusStopping
			s.reason = ReasonOK
			return fmt.Sprintf(runOrStepEndResponseFormat, cmd.Command, cmd.Seq, s.status, s.reason), nil
		}

		fired := s.checkBreakpointHit()
		if mode.Kind != StepRun || fired {
			s.status = StatusBreak
			s.reason = ReasonOK
			return fmt.Sprintf(runOrStepBreakResponseFormat, cmd.Command, cmd.Seq, s.runtime.ExecutedFile(), s.runtime.ExecutedLine()), nil
		}
	}
}

// checkBreakpointHit evaluates every line/conditional breakpoint registered
// at the runtime's current position: a breakpoint whose condition
// expression (if any) isn't truthy in the current frame doesn't count as a
// candidate hit at all, the rest go through RecordHit so hit_condition and
// the enabled flag are honored. It reports whether any of them actually
// fired.
func (s *SessionController) checkBreakpointHit() bool {
	file, line := s.runtime.ExecutedFile(), s.runtime.ExecutedLine()
	fired := false
	for _, bp := range s.breakpts.LineBreakpoints(file, line) {
		if !ConditionSatisfied(s.runtime, bp) {
			continue
		}
		if shouldBreak, err := s.breakpts.RecordHit(bp.ID); err == nil && shouldBreak {
			fired = true
		}
	}
	return fired
}

func (s *SessionController) handleRun(cmd *dbgpCmd) (string, error) {
	return s.resumeAndReport(cmd, ExecMode{Kind: StepRun})
}

func (s *SessionController) handleStepInto(cmd *dbgpCmd) (string, error) {
	return s.resumeAndReport(cmd, ExecMode{Kind: StepInto})
}

func (s *SessionController) handleStepOver(cmd *dbgpCmd) (string, error) {
	return s.resumeAndReport(cmd, ExecMode{Kind: StepOver, Level: s.runtime.StackDepth()})
}

func (s *SessionController) handleStepOut(cmd *dbgpCmd) (string, error) {
	return s.resumeAndReport(cmd, ExecMode{Kind: StepOut, Level: s.runtime.StackDepth()})
}

func (s *SessionController) handleStop(cmd *dbgpCmd) (string, error) {
	s.status = StatusStopped
	s.reason = ReasonOK
	return fmt.Sprintf(statusResponseFormat, cmd.Seq, s.status, s.reason), nil
}

func (s *SessionController) handleDetach(cmd *dbgpCmd) (string, error) {
	s.status = StatusDetached
	s.reason = ReasonOK
	return fmt.Sprintf(statusResponseFormat, cmd.Seq, s.status, s.reason), nil
}

// --- breakpoints ------------------------------------------------------------

func (s *SessionController) handleBreakpointSet(cmd *dbgpCmd) (string, error) {
	t, ok := cmd.Get('t')
	if !ok {
		return "", newError(ErrInvalidOptions)
	}
	bpType, ok := parseBreakpointType(t)
	if !ok {
		return "", newErrorf(ErrBreakpointTypeNotSupport, fmt.Sprintf("unknown breakpoint type %q", t))
	}

	bp := Breakpoint{Type: bpType, Enabled: true, HitCondition: HitConditionDisabled}

	if state, ok := cmd.Get('s'); ok {
		switch state {
		case "disabled":
			bp.Enabled = false
		case "enabled":
			bp.Enabled = true
		default:
			return "", newError(ErrInvalidOptions)
		}
	}
	if r, ok := cmd.Get('r'); ok && r == "1" {
		bp.Temporary = true
	}
	if h, ok := cmd.Get('h'); ok {
		hc, ok := parseHitCondition(h)
		if !ok {
			return "", newError(ErrInvalidOptions)
		}
		bp.HitCondition = hc
	}
	if o, ok := cmd.Get('o'); ok {
		n, err := strconv.Atoi(o)
		if err != nil {
			return "", newError(ErrInvalidOptions)
		}
		bp.HitValue = n
	}

	switch bpType {
	case BreakpointLine, BreakpointConditional:
		f, ok := cmd.Get('f')
		if !ok {
			return "", newError(ErrInvalidOptions)
		}
		n, ok := cmd.Get('n')
		if !ok {
			return "", newError(ErrInvalidOptions)
		}
		lineno, err := strconv.Atoi(n)
		if err != nil {
			return "", newError(ErrInvalidBreakpointLine)
		}
		bp.Filename = f
		bp.Lineno = lineno
		if expr, ok := cmd.Data(); ok && bpType == BreakpointConditional {
			bp.Expression = expr
		}
	case BreakpointCall, BreakpointReturn:
		fn, ok := cmd.Get('m')
		if !ok {
			return "", newError(ErrInvalidOptions)
		}
		bp.FunctionName = fn
	case BreakpointException:
		x, ok := cmd.Get('x')
		if !ok {
			return "", newError(ErrInvalidOptions)
		}
		bp.Exception = x
	}

	id, err := s.breakpts.Add(bp)
	if err != nil {
		return "", err
	}
	bp.ID = id
	if installer, ok := s.runtime.(BreakpointInstaller); ok {
		if err := installer.InstallBreakpoint(bp); err != nil {
			s.breakpts.Remove(id)
			return "", newErrorf(ErrBreakpointCouldNotBeSet, err.Error())
		}
	}
	state := "enabled"
	if !bp.Enabled {
		state = "disabled"
	}
	return fmt.Sprintf(breakpointSetResponseFormat, cmd.Seq, state, id), nil
}

func (s *SessionController) handleBreakpointGet(cmd *dbgpCmd) (string, error) {
	d, ok := cmd.Get('d')
	if !ok {
		return "", newError(ErrInvalidOptions)
	}
	bp, ok := s.breakpts.Get(d)
	if !ok {
		return "", newError(ErrNoSuchBreakpoint)
	}
	return fmt.Sprintf(breakpointGetResponseFormat, cmd.Seq, renderBreakpointElement(bp)), nil
}

func (s *SessionController) handleBreakpointUpdate(cmd *dbgpCmd) (string, error) {
	d, ok := cmd.Get('d')
	if !ok {
		return "", newError(ErrInvalidOptions)
	}
	err := s.breakpts.Update(d, func(bp *Breakpoint) {
		if state, ok := cmd.Get('s'); ok {
			bp.Enabled = state == "enabled"
		}
		if n, ok := cmd.Get('n'); ok {
			if lineno, err := strconv.Atoi(n); err == nil {
				bp.Lineno = lineno
			}
		}
		if h, ok := cmd.Get('h'); ok {
			if hc, ok := parseHitCondition(h); ok {
				bp.HitCondition = hc
			}
		}
		if o, ok := cmd.Get('o'); ok {
			if n, err := strconv.Atoi(o); err == nil {
				bp.HitValue = n
			}
		}
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(breakpointRemoveOrUpdateResponseFormat, "breakpoint_update", cmd.Seq), nil
}

func (s *SessionController) handleBreakpointRemove(cmd *dbgpCmd) (string, error) {
	d, ok := cmd.Get('d')
	if !ok {
		return "", newError(ErrInvalidOptions)
	}
	if err := s.breakpts.Remove(d); err != nil {
		return "", err
	}
	return fmt.Sprintf(breakpointRemoveOrUpdateResponseFormat, "breakpoint_remove", cmd.Seq), nil
}

func (s *SessionController) handleBreakpointList(cmd *dbgpCmd) (string, error) {
	return fmt.Sprintf(breakpointListResponseFormat, cmd.Seq, renderBreakpointList(s.breakpts.All())), nil
}

// --- stack / context / property / eval / source ----------------------------

func (s *SessionController) handleStackDepth(cmd *dbgpCmd) (string, error) {
	return fmt.Sprintf(stackDepthResponseFormat, cmd.Seq, s.runtime.StackDepth()), nil
}

func (s *SessionController) handleStackGet(cmd *dbgpCmd) (string, error) {
	depth := s.runtime.StackDepth()
	var frames string
	if d, ok := cmd.Get('d'); ok {
		level, err := strconv.Atoi(d)
		if err != nil {
			return "", newError(ErrStackDepthInvalid)
		}
		f, ok := s.runtime.Frame(level)
		if !ok {
			return "", newError(ErrStackDepthInvalid)
		}
		frames = renderStackFrame(level, f)
	} else {
		for level := 0; level < depth; level++ {
			f, ok := s.runtime.Frame(level)
			if !ok {
				break
			}
			frames += renderStackFrame(level, f)
		}
	}
	return fmt.Sprintf(stackGetResponseFormat, cmd.Seq, frames), nil
}

func (s *SessionController) handleContextNames(cmd *dbgpCmd) (string, error) {
	return fmt.Sprintf(contextNamesResponseFormat, cmd.Seq), nil
}

func (s *SessionController) currentFrameOrErr() (Frame, error) {
	f, ok := s.runtime.CurrentFrame()
	if !ok {
		return Frame{}, newError(ErrContextInvalid)
	}
	return f, nil
}

func (s *SessionController) handleContextGet(cmd *dbgpCmd) (string, error) {
	f, err := s.currentFrameOrErr()
	if err != nil {
		return "", err
	}
	if f.Locals == nil {
		return fmt.Sprintf(contextGetResponseFormat, cmd.Seq, ""), nil
	}
	var props string
	for i := 0; i < f.Locals.Len(); i++ {
		name := strconv.Itoa(i)
		v, ok := f.Locals.Member(name, true)
		if !ok {
			continue
		}
		props += s.renderer.Render(name, v, s.exportOptions())
	}
	return fmt.Sprintf(contextGetResponseFormat, cmd.Seq, props), nil
}

func (s *SessionController) exportOptions() ExportOptions {
	return ExportOptions{
		MaxChildren: s.features.Int("max_children"),
		MaxData:     s.features.Int("max_data"),
		MaxDepth:    s.features.Int("max_depth"),
		ShowHidden:  s.features.Bool("show_hidden"),
	}
}

func (s *SessionController) handlePropertyGet(cmd *dbgpCmd) (string, error) {
	name, ok := cmd.Get('n')
	if !ok {
		return "", newError(ErrInvalidOptions)
	}
	f, err := s.currentFrameOrErr()
	if err != nil {
		return "", err
	}
	v, err := EvaluateSymbolPath(f.Locals, f.Self, name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(propertyGetResponseFormat, cmd.Seq, s.renderer.Render(name, v, s.exportOptions())), nil
}

// handlePropertyValue is property_get's bare-value sibling: same symbol
// path lookup, but the response is just the property's own CDATA value with
// no enclosing <property> element, for an IDE that already knows the type
// and only wants the data (e.g. evaluating a breakpoint condition by hand).
func (s *SessionController) handlePropertyValue(cmd *dbgpCmd) (string, error) {
	name, ok := cmd.Get('n')
	if !ok {
		return "", newError(ErrInvalidOptions)
	}
	f, err := s.currentFrameOrErr()
	if err != nil {
		return "", err
	}
	v, err := EvaluateSymbolPath(f.Locals, f.Self, name)
	if err != nil {
		return "", err
	}
	text, _ := v.Scalar()
	return fmt.Sprintf(propertyValueResponseFormat, cmd.Seq, b64(text)), nil
}

func (s *SessionController) handlePropertySet(cmd *dbgpCmd) (string, error) {
	// The Runtime Introspector contract has no mutation entry point, so
	// property_set always reports failure, matching the read-only-replay
	// compatibility behavior the teacher's rr backend relies on.
	return fmt.Sprintf(propertySetResponseFormat, cmd.Seq, 0), nil
}

func (s *SessionController) handleEval(cmd *dbgpCmd) (string, error) {
	data, ok := cmd.Data()
	if !ok {
		return "", newError(ErrInvalidOptions)
	}
	decoded, err := decodeEvalData(data)
	if err != nil {
		return "", newError(ErrEvaluatingCode)
	}

	// Register this source under the synthetic eval filename before
	// evaluating it, so a later source lookup naming it can resolve back to
	// the text.
	s.evalSrc.Register(s.runtime.ExecutedFile(), s.runtime.ExecutedLine(), decoded)

	v, err := s.runtime.Evaluate(decoded)
	if err != nil {
		return "", newErrorf(ErrEvaluatingCode, err.Error())
	}
	return fmt.Sprintf(evalResponseFormat, cmd.Seq, s.renderer.Render("", v, s.exportOptions())), nil
}

func (s *SessionController) handleSource(cmd *dbgpCmd) (string, error) {
	f, ok := cmd.Get('f')
	if !ok {
		return "", newError(ErrInvalidOptions)
	}

	if info, ok := s.evalSrc.ByName(f); ok {
		return fmt.Sprintf(sourceResponseFormat, cmd.Seq, b64(info.Source)), nil
	}

	r, err := s.runtime.OpenSource(f)
	if err != nil {
		return "", newError(ErrCantOpenFile)
	}
	defer r.Close()
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, rerr := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if rerr != nil {
			break
		}
	}
	return fmt.Sprintf(sourceResponseFormat, cmd.Seq, b64(string(buf))), nil
}

// --- stdout/stderr ----------------------------------------------------------

func (s *SessionController) handleStdout(cmd *dbgpCmd) (string, error) {
	return s.setStream(cmd, streamStdout)
}

func (s *SessionController) handleStderr(cmd *dbgpCmd) (string, error) {
	return s.setStream(cmd, streamStderr)
}
