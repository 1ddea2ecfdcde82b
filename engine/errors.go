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

// ErrorCode is one of the DBGp protocol's fixed numeric error codes.
type ErrorCode int

const (
	ErrNone                     ErrorCode = 0
	ErrParse                    ErrorCode = 1
	ErrDuplicateArgs            ErrorCode = 2
	ErrInvalidOptions           ErrorCode = 3
	ErrUnimplemented            ErrorCode = 4
	ErrCommandUnavailable       ErrorCode = 5
	ErrCantOpenFile             ErrorCode = 100
	ErrStreamRedirectFailed     ErrorCode = 101
	ErrBreakpointCouldNotBeSet  ErrorCode = 200
	ErrBreakpointTypeNotSupport ErrorCode = 201
	ErrInvalidBreakpointLine    ErrorCode = 202
	ErrNoCodeOnLine             ErrorCode = 203
	ErrInvalidBreakpointState   ErrorCode = 204
	ErrNoSuchBreakpoint         ErrorCode = 205
	ErrEvaluatingCode           ErrorCode = 206
	ErrInvalidExpression        ErrorCode = 207
	ErrCantGetProperty          ErrorCode = 300
	ErrStackDepthInvalid        ErrorCode = 301
	ErrContextInvalid           ErrorCode = 302
	ErrProfilerNotStarted       ErrorCode = 800
	ErrEncodingNotSupported     ErrorCode = 900
	ErrInternalException        ErrorCode = 998
	ErrUnknown                  ErrorCode = 999
)

// canonicalMessages is the complete error taxonomy from spec.md §4.10.
var canonicalMessages = map[ErrorCode]string{
	ErrNone:                     "no error",
	ErrParse:                    "parse error in command",
	ErrDuplicateArgs:            "duplicate arguments in command",
	ErrInvalidOptions:           "invalid or missing options",
	ErrUnimplemented:            "unimplemented command",
	ErrCommandUnavailable:       "command is not available",
	ErrCantOpenFile:             "cannot open file",
	ErrStreamRedirectFailed:     "stream redirect failed",
	ErrBreakpointCouldNotBeSet:  "breakpoint could not be set",
	ErrBreakpointTypeNotSupport: "breakpoint type is not supported",
	ErrInvalidBreakpointLine:    "invalid line",
	ErrNoCodeOnLine:             "no code on line",
	ErrInvalidBreakpointState:   "invalid state",
	ErrNoSuchBreakpoint:         "no such breakpoint",
	ErrEvaluatingCode:           "error evaluating code",
	ErrInvalidExpression:        "invalid expression",
	ErrCantGetProperty:          "can not get property",
	ErrStackDepthInvalid:        "stack depth invalid",
	ErrContextInvalid:           "context invalid",
	ErrProfilerNotStarted:       "profiler not started",
	ErrEncodingNotSupported:     "encoding not supported",
	ErrInternalException:        "internal exception",
	ErrUnknown:                  "unknown error",
}

// Message returns the canonical message for code, falling back to the
// "unknown error" text for anything not in the fixed table.
func (code ErrorCode) Message() string {
	if msg, ok := canonicalMessages[code]; ok {
		return msg
	}
	return canonicalMessages[ErrUnknown]
}

// dbgpError pairs a protocol error code with the message actually sent on
// the wire, which is occasionally more specific than the canonical text
// (e.g. "could not find <file> to add a breakpoint").
type dbgpError struct {
	code    ErrorCode
	message string
}

func newError(code ErrorCode) *dbgpError {
	return &dbgpError{code: code, message: code.Message()}
}

func newErrorf(code ErrorCode, message string) *dbgpError {
	return &dbgpError{code: code, message: message}
}

func (e *dbgpError) Error() string {
	return e.message
}
