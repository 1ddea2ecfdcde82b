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
	"strings"
)

// optionSlot indexes the 26 single-letter options plus the trailing "-"
// data slot, mirroring xdebug's xdebug_dbgp_parse_cmd table.
type optionSlot byte

const dataSlot optionSlot = '-'

// dbgpCmd is one parsed inbound command line: the command name, its
// options keyed by letter (or '-' for the trailing data argument), and the
// raw transaction id for convenience.
type dbgpCmd struct {
	Command string
	Options map[optionSlot]string
	Seq     string
}

// Get returns the value of a single-letter option, or "" if absent.
func (c *dbgpCmd) Get(letter byte) (string, bool) {
	v, ok := c.Options[optionSlot(letter)]
	return v, ok
}

// Data returns the trailing, possibly base64-free, "-" data argument.
func (c *dbgpCmd) Data() (string, bool) {
	v, ok := c.Options[dataSlot]
	return v, ok
}

// parser states, named after xdebug_dbgp_parse_cmd's STATE_* constants.
type parseState int

const (
	stateNormal parseState = iota
	stateOptFollows
	stateSepFollows
	stateValueFollows
	stateQuoted
	stateSkipChar
)

// parseCommand implements the DBGp inbound command-line grammar: a command
// name, followed by whitespace-separated "-x value" or "-x "quoted value""
// pairs, where a quoted value may contain backslash-escaped quotes and
// extends to the next unescaped double quote.
//
// This mirrors xdebug_dbgp_parse_cmd's character-at-a-time state machine
// rather than a naive strings.Fields split, because DBGp values (most
// commonly -- base64 eval sources, but also breakpoint conditions) routinely
// contain embedded spaces inside quotes.
func parseCommand(line string) (*dbgpCmd, error) {
	cmd := &dbgpCmd{Options: make(map[optionSlot]string)}

	state := stateNormal
	var cmdName strings.Builder
	var curOpt optionSlot
	var curVal strings.Builder

	flush := func() error {
		if curOpt == 0 {
			return nil
		}
		if _, dup := cmd.Options[curOpt]; dup {
			return newError(ErrDuplicateArgs)
		}
		cmd.Options[curOpt] = curVal.String()
		curVal.Reset()
		curOpt = 0
		return nil
	}

	for i := 0; i < len(line); i++ {
		ch := line[i]

		switch state {
		case stateNormal:
			if ch == ' ' {
				if cmdName.Len() > 0 {
					state = stateOptFollows
				}
				continue
			}
			cmdName.WriteByte(ch)

		case stateOptFollows:
			if ch == ' ' {
				continue
			}
			if ch == '-' {
				// peek ahead: "--" is the bare data-follows marker
				if i+1 < len(line) && line[i+1] == '-' {
					curOpt = dataSlot
					i++
					state = stateSepFollows
					continue
				}
				state = stateSkipChar
				continue
			}
			return nil, newError(ErrParse)

		case stateSkipChar:
			curOpt = optionSlot(ch)
			state = stateSepFollows

		case stateSepFollows:
			if ch == ' ' {
				continue
			}
			if ch == '"' {
				state = stateQuoted
				continue
			}
			curVal.WriteByte(ch)
			state = stateValueFollows

		case stateValueFollows:
			// The trailing "-" data slot runs to end-of-line even when
			// unquoted: only a real option value terminates on a space.
			if ch == ' ' && curOpt != dataSlot {
				if err := flush(); err != nil {
					return nil, err
				}
				state = stateOptFollows
				continue
			}
			curVal.WriteByte(ch)

		case stateQuoted:
			if ch == '\\' && i+1 < len(line) && line[i+1] == '"' {
				curVal.WriteByte('"')
				i++
				continue
			}
			if ch == '"' {
				if err := flush(); err != nil {
					return nil, err
				}
				state = stateOptFollows
				continue
			}
			curVal.WriteByte(ch)
		}
	}

	switch state {
	case stateValueFollows:
		if err := flush(); err != nil {
			return nil, err
		}
	case stateQuoted:
		return nil, newError(ErrParse)
	case stateSkipChar, stateSepFollows:
		return nil, newError(ErrInvalidOptions)
	}

	cmd.Command = cmdName.String()
	if cmd.Command == "" {
		return nil, newError(ErrParse)
	}
	if seq, ok := cmd.Get('i'); ok {
		cmd.Seq = seq
	}
	return cmd, nil
}
