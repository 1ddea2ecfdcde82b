package rrgdb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cyrus-and/gdb"
	"github.com/fatih/color"
	"github.com/kr/pty"
)

// stepLine and stepLineTemp are the source lines inside the
// compiled-in breakpoint helper (dontbug.c in the teacher) that the
// generated step/master breakpoints attach to.
const (
	stepLine     = 99
	stepLineTemp = 91
)

// Config bundles the parameters needed to start a replay session.
type Config struct {
	RRPath          string
	GdbPath         string
	TraceDir        string
	TargetRemotePort int
}

// Session owns one `rr replay` process and the gdb/mi connection attached
// to it, plus the channel that carries breakpoint-hit notifications out of
// gdb's async event stream -- the same architecture as the teacher's
// engineState/startGdbAndInitDebugEngineState pair, just split into a
// reusable type instead of a package-level global.
type Session struct {
	mu sync.Mutex

	gdb    *gdb.Gdb
	rrFile *os.File
	rrCmd  *exec.Cmd

	stopNotify chan string
	started    bool

	stepBreakpointID string
}

// Start launches `rr replay -s <port> <traceDir>` under a pty, waits for
// the "target extended-remote" line it prints, and attaches gdb in MI mode
// to the hardlinked binary that line names.
func Start(cfg Config) (*Session, error) {
	rrArgs := []string{"replay", "-s", strconv.Itoa(cfg.TargetRemotePort), cfg.TraceDir}
	replayCmd := exec.Command(cfg.RRPath, rrArgs...)

	f, err := pty.Start(replayCmd)
	if err != nil {
		return nil, fmt.Errorf("starting rr replay: %w", err)
	}
	color.Green("dbgpd: started replay session")

	hardlink, err := scrapeHardlink(f)
	if err != nil {
		return nil, err
	}

	return attach(cfg.GdbPath, hardlink, cfg.TargetRemotePort, f, replayCmd)
}

func scrapeHardlink(f *os.File) (string, error) {
	type result struct {
		line string
		err  error
	}
	lines := make(chan result, 1)

	go func() {
		buf := bufio.NewReader(f)
		for {
			line, err := buf.ReadString('\n')
			if strings.Contains(line, "target extended-remote") {
				lines <- result{line: line}
				go io.Copy(io.Discard, f)
				return
			}
			if err != nil {
				lines <- result{err: fmt.Errorf("rr exited before printing a gdb connection string: %w", err)}
				return
			}
		}
	}()

	select {
	case r := <-lines:
		if r.err != nil {
			return "", r.err
		}
		slashAt := strings.Index(r.line, "/")
		if slashAt < 0 {
			return "", fmt.Errorf("unexpected rr output: %q", r.line)
		}
		return strings.TrimSpace(r.line[slashAt:]), nil
	case <-time.After(5 * time.Second):
		return "", fmt.Errorf("timed out waiting for rr's gdb connection string")
	}
}

func attach(gdbPath, hardlink string, remotePort int, rrFile *os.File, rrCmd *exec.Cmd) (*Session, error) {
	gdbArgs := []string{
		"-l", "-1",
		"-ex", fmt.Sprintf("target extended-remote :%d", remotePort),
		"--interpreter", "mi",
		hardlink,
	}

	s := &Session{
		rrFile:     rrFile,
		rrCmd:      rrCmd,
		stopNotify: make(chan string),
	}

	gdbSession, err := gdb.NewCmd(append([]string{gdbPath}, gdbArgs...), s.onNotification)
	if err != nil {
		return nil, fmt.Errorf("attaching gdb: %w", err)
	}
	s.gdb = gdbSession
	go io.Copy(io.Discard, gdbSession)

	if _, err := sendGdbCommand(s.gdb, "break-insert", fmt.Sprintf("-f -d --source dontbug.c --line %d", stepLine)); err != nil {
		return nil, err
	}
	result, err := sendGdbCommand(s.gdb, "break-insert", fmt.Sprintf("-t -f --source dontbug.c --line %d", stepLineTemp))
	if err != nil {
		return nil, err
	}
	id, err := breakInsertResult(result)
	if err != nil {
		return nil, err
	}
	s.stepBreakpointID = id

	if _, err := sendGdbCommand(s.gdb, "gdb-set", "print elements 0"); err != nil {
		return nil, err
	}
	if _, err := sendGdbCommand(s.gdb, "exec-continue"); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Session) onNotification(notification map[string]interface{}) {
	id, ok := breakpointStopID(notification)
	if !ok {
		return
	}
	s.mu.Lock()
	started := s.started
	s.started = true
	s.mu.Unlock()
	if started {
		s.stopNotify <- id
	}
}

// breakpointStopID extracts a gdb breakpoint number from a "stopped"
// async notification reporting "breakpoint-hit".
func breakpointStopID(notification map[string]interface{}) (string, bool) {
	if notification["class"] != "stopped" {
		return "", false
	}
	payload, ok := notification["payload"].(map[string]interface{})
	if !ok {
		return "", false
	}
	if payload["reason"] != "breakpoint-hit" {
		return "", false
	}
	id, ok := payload["bkptno"].(string)
	return id, ok
}

// ContinueExecution resumes the debuggee (forwards, or backwards under rr
// if reverse is set) and blocks for the next breakpoint-hit notification.
func (s *Session) ContinueExecution(reverse bool) (string, error) {
	var err error
	if reverse {
		_, err = sendGdbCommand(s.gdb, "exec-continue", "--reverse")
	} else {
		_, err = sendGdbCommand(s.gdb, "exec-continue")
	}
	if err != nil {
		return "", err
	}
	return <-s.stopNotify, nil
}

// Close detaches gdb and tears down the rr replay process.
func (s *Session) Close() error {
	if s.rrCmd != nil && s.rrCmd.Process != nil {
		_ = s.rrCmd.Process.Kill()
	}
	if s.rrFile != nil {
		_ = s.rrFile.Close()
	}
	return nil
}
