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

import "fmt"

// streamKind distinguishes the two output streams a session can redirect.
type streamKind int

const (
	streamStdout streamKind = iota
	streamStderr
)

func (k streamKind) String() string {
	if k == streamStdout {
		return "stdout"
	}
	return "stderr"
}

// streamMode is the DBGp redirection mode: 0 disables, 1 copies to the IDE
// while still writing to the original destination, 2 redirects exclusively
// to the IDE.
type streamMode int

const (
	streamDisable  streamMode = 0
	streamCopy     streamMode = 1
	streamRedirect streamMode = 2
)

// setStream answers the stdout and stderr commands. It requires the c
// option and always reports success="0"; no hook is installed on the
// runtime and no debuggee output is forwarded to the IDE.
func (s *SessionController) setStream(cmd *dbgpCmd, kind streamKind) (string, error) {
	c, ok := cmd.Get('c')
	if !ok {
		return "", newError(ErrInvalidOptions)
	}

	// Every stream command reports failure: this adapter has no notify
	// channel wired up yet to push stream data mid-session to the IDE, so
	// advertising success here would be a lie the IDE could act on. This
	// mirrors the teacher's handleStdFd, which hard-codes success="0" for
	// the same reason.
	_ = streamModeFromOption(c)
	return fmt.Sprintf(stdFdResponseFormat, cmd.Seq, kind.String(), 0), nil
}

func streamModeFromOption(c string) streamMode {
	switch c {
	case "1":
		return streamCopy
	case "2":
		return streamRedirect
	default:
		return streamDisable
	}
}
