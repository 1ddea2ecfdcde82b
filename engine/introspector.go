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

import "io"

// ValueKind classifies a Value the way DBGp's property "type" attribute
// does.
type ValueKind int

const (
	KindScalar ValueKind = iota
	KindArray
	KindObject
	KindNull
	KindResource
)

// Frame is one entry of the runtime's call stack.
type Frame struct {
	Filename     string
	FunctionName string
	ClassName    string
	Lineno       int
	Self         Value // nil if no $this / no receiver
	Locals       Value // object-like Value exposing the locals table
}

// Value is the seam between the symbol path evaluator and whatever runtime
// backs a session: a read-only handle onto a scalar, array, or object.
type Value interface {
	Kind() ValueKind
	ClassName() string
	Len() int
	// Member looks up a child by key. numeric selects an array's
	// zero-based numeric index instead of a string key.
	Member(key string, numeric bool) (Value, bool)
	// Scalar returns the textual form of a scalar value and whether the
	// underlying type is string-like (as opposed to e.g. numeric).
	Scalar() (text string, isString bool)
}

// ExportOptions bounds how much of a Value a ValueRenderer should walk,
// mirroring the feature registry's max_children/max_data/max_depth knobs.
type ExportOptions struct {
	MaxChildren int
	MaxData     int
	MaxDepth    int
	ShowHidden  bool
}

// ValueRenderer turns a Value into the property/eval XML fragment sent back
// to the IDE.
type ValueRenderer interface {
	Render(name string, v Value, opts ExportOptions) string
}

// RuntimeIntrospector is the out-of-scope collaborator that knows how to
// talk to the actual debuggee: its call stack, its source, and its
// stdout/stderr streams. engine never assumes anything about what is on the
// other side of this interface.
type RuntimeIntrospector interface {
	CurrentFrame() (Frame, bool)
	Frame(depth int) (Frame, bool)
	StackDepth() int
	ExecutedFile() string
	ExecutedLine() int
	Evaluate(source string) (Value, error)
	OpenSource(url string) (io.ReadCloser, error)
	InstallStdoutHook(fn func([]byte)) (restore func())
	InstallStderrHook(fn func([]byte)) (restore func())
	// Resume lets the debuggee run under the given ExecMode until it either
	// hits a breakpoint/step boundary (ended=false) or the program finishes
	// (ended=true). The Session Controller is responsible for checking
	// RecordHit against the Breakpoint Registry; Resume only reports that
	// execution stopped somewhere and the stack/source accessors above now
	// reflect that new position.
	Resume(mode ExecMode) (ended bool, err error)
}

// BreakpointInstaller is an optional capability a RuntimeIntrospector backend
// implements when it needs to arrange, ahead of time, for Resume to actually
// be able to stop at a given breakpoint (e.g. a backend whose control flow
// is driven by a separate debugger process, rather than one that can just
// consult the Breakpoint Registry directly on every step). The Session
// Controller calls InstallBreakpoint after a breakpoint_set succeeds; a
// backend that has no need for it (like fixtureruntime, which stops at every
// scripted position and leaves the registry check to the Session
// Controller) simply doesn't implement this.
type BreakpointInstaller interface {
	InstallBreakpoint(bp Breakpoint) error
}

// defaultValueRenderer implements ValueRenderer directly against the Value
// interface, with no dependency on any particular backend.
type defaultValueRenderer struct{}

// NewValueRenderer returns the engine's built-in property renderer.
func NewValueRenderer() ValueRenderer {
	return defaultValueRenderer{}
}

func (defaultValueRenderer) Render(name string, v Value, opts ExportOptions) string {
	return renderProperty(name, v)
}
