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

package cmd

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/user"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbgpcore/dbgpd/engine"
	"github.com/dbgpcore/dbgpd/internal/fixtureruntime"
	"github.com/dbgpcore/dbgpd/internal/rrgdb"
)

const helpText = `
v        toggle verbose gdb/mi command echoing (rrgdb backend only)
#<cmd>   not run here: raw dbgp commands only go through the IDE connection
q        quit
h        this help text
`

var (
	gListen      string
	gBackend     string
	gTraceDir    string
	gIDEKey      string
	gInteractive bool
	gReverse     bool
)

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&gListen, "listen", ":9000", "address to listen on for IDE connections")
	serveCmd.Flags().StringVar(&gBackend, "backend", "fixture", "introspector backend to drive: fixture|rrgdb")
	serveCmd.Flags().StringVar(&gTraceDir, "tracedir", "", "rr trace directory to replay (rrgdb backend only)")
	serveCmd.Flags().StringVar(&gIDEKey, "idekey", "", "DBGp IDE key to report in the init packet")
	serveCmd.Flags().BoolVar(&gInteractive, "interactive", false, "drop into an interactive console alongside the session")
	serveCmd.Flags().BoolVar(&gReverse, "reverse", false, "run step/run commands in reverse (rrgdb backend only)")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("backend", serveCmd.Flags().Lookup("backend"))
	viper.BindPFlag("tracedir", serveCmd.Flags().Lookup("tracedir"))
	viper.BindPFlag("idekey", serveCmd.Flags().Lookup("idekey"))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Listen for a DBGp IDE connection and run the session controller against a backend",
	Run: func(cmd *cobra.Command, args []string) {
		listen := viper.GetString("listen")
		backendName := viper.GetString("backend")
		idekey := viper.GetString("idekey")

		runtime, breakpts, err := buildBackend(backendName)
		if err != nil {
			log.Fatalf("could not start %s backend: %v", backendName, err)
		}

		ln, err := net.Listen("tcp", listen)
		if err != nil {
			log.Fatalf("could not listen on %s: %v", listen, err)
		}
		color.Green("dbgpd: listening for a DBGp IDE connection on %s", listen)

		if gInteractive {
			runInteractive(ln, runtime, breakpts, idekey)
			return
		}

		conn, err := ln.Accept()
		if err != nil {
			log.Fatal(err)
		}
		runSession(conn, runtime, breakpts, idekey)
	},
}

// buildBackend also returns the BreakpointRegistry the backend itself
// consults (rrgdb's Introspector.Resume), so runSession can hand the very
// same registry to the SessionController instead of each side getting its
// own -- otherwise breakpoint_set would populate a registry Resume never
// looks at.
func buildBackend(name string) (engine.RuntimeIntrospector, *engine.BreakpointRegistry, error) {
	switch name {
	case "fixture":
		return fixtureruntime.NewDefault(), engine.NewBreakpointRegistry(), nil
	case "rrgdb":
		if gTraceDir == "" {
			return nil, nil, fmt.Errorf("--tracedir is required for the rrgdb backend")
		}
		extDir := viper.GetString("ext-dir")
		rrPath, err := rrgdb.CheckRRExecutable(viper.GetString("rr-executable"))
		if err != nil {
			return nil, nil, err
		}
		gdbPath, err := rrgdb.CheckGdbExecutable(viper.GetString("gdb-executable"))
		if err != nil {
			return nil, nil, err
		}
		bpMap, levelAr, _, err := rrgdb.ParseBreakpointMap(extDir)
		if err != nil {
			return nil, nil, fmt.Errorf("loading breakpoint map (did you run `dbgpd generate`?): %w", err)
		}
		session, err := rrgdb.Start(rrgdb.Config{
			RRPath:           rrPath,
			GdbPath:          gdbPath,
			TraceDir:         gTraceDir,
			TargetRemotePort: 9999,
		})
		if err != nil {
			return nil, nil, err
		}
		breakpts := engine.NewBreakpointRegistry()
		in := rrgdb.New(session, breakpts, bpMap, levelAr)
		in.SetReverse(gReverse)
		return in, breakpts, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", name)
	}
}

func runSession(conn net.Conn, runtime engine.RuntimeIntrospector, breakpts *engine.BreakpointRegistry, idekey string) {
	defer conn.Close()
	logger := consoleLogger{}
	sess := engine.NewSessionController(conn, runtime, engine.SessionConfig{
		IDEKey:          idekey,
		LanguageName:    "dbgpd",
		LanguageVersion: "1.0",
		Logger:          logger,
		Breakpoints:     breakpts,
		Cookie:          os.Getenv("DBGP_COOKIE"),
	})
	if err := sess.SendInit(); err != nil {
		color.Red("dbgpd: failed to send init packet: %v", err)
		return
	}
	if err := sess.Run(); err != nil && err != io.EOF {
		color.Red("dbgpd: session ended: %v", err)
	}
}

// runInteractive mirrors the teacher's debuggerLoop: the session command
// loop runs in the background while a readline console accepts console-only
// toggles, grounded in engine/replay.go's debuggerLoop/debuggerIdeLoop pair.
func runInteractive(ln net.Listener, runtime engine.RuntimeIntrospector, breakpts *engine.BreakpointRegistry, idekey string) {
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			log.Fatal(err)
		}
		runSession(conn, runtime, breakpts, idekey)
	}()

	historyFile := ""
	if u, err := user.Current(); err == nil {
		historyFile = u.HomeDir + "/.dbgpd.history"
	}

	rdline, err := readline.NewEx(&readline.Config{
		Prompt:      "(dbgpd) ",
		HistoryFile: historyFile,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer rdline.Close()

	color.Yellow("h <enter> for help")
	for {
		line, err := rdline.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			color.Yellow("Exiting.")
			return
		} else if err != nil {
			log.Fatal(err)
		}

		switch {
		case strings.HasPrefix(line, "v"):
			rrgdb.Verbose = !rrgdb.Verbose
			if rrgdb.Verbose {
				color.Red("Verbose mode")
			} else {
				color.Green("Quiet mode")
			}
		case strings.HasPrefix(line, "#"):
			fmt.Println("dbgpd: raw command injection is only available through the IDE connection itself")
		case strings.HasPrefix(line, "q"):
			color.Yellow("Exiting.")
			return
		case strings.HasPrefix(line, "h"):
			fmt.Println(helpText)
		}
	}
}

type consoleLogger struct{}

func (consoleLogger) Logf(format string, args ...interface{}) {
	if viper.GetBool("verbose") {
		fmt.Printf(format+"\n", args...)
	}
}
