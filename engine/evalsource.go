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
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
)

// decodeEvalData base64-decodes the "-- <data>" argument an eval command
// carries its source in, per the DBGp wire format.
func decodeEvalData(data string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// EvalInfo is one eval()'d source registered against a running session, so
// later stack/source lookups naming "<file>(<n>) : eval()'d code" can be
// resolved back to the text that was actually evaluated.
type EvalInfo struct {
	ID     string
	Source string // the original, unsplit source as passed to eval
}

// syntheticFilename is the "<file>(<lineno>) : eval()'d code" key format
// xdebug uses for eval'd code appearing in a stack trace.
func syntheticFilename(file string, lineno int) string {
	return fmt.Sprintf("%s(%d) : eval()'d code", file, lineno)
}

// EvalSourceRegistry is double-keyed: by the synthetic filename a stack
// frame reports, and by a compact 4-hex-digit id used in eval-source URLs.
// Both keys resolve to the same EvalInfo.
type EvalSourceRegistry struct {
	mu       sync.Mutex
	counter  int
	byName   map[string]*EvalInfo
	byID     map[string]*EvalInfo
}

func NewEvalSourceRegistry() *EvalSourceRegistry {
	return &EvalSourceRegistry{
		byName: make(map[string]*EvalInfo),
		byID:   make(map[string]*EvalInfo),
	}
}

// Register records source evaluated at file:lineno and returns the
// synthetic filename a stack frame should report for it.
func (r *EvalSourceRegistry) Register(file string, lineno int, source string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counter++
	id := fmt.Sprintf("%04x", r.counter)
	name := syntheticFilename(file, lineno)

	info := &EvalInfo{ID: id, Source: source}
	r.byName[name] = info
	r.byID[id] = info
	return name
}

// ByName resolves a synthetic "... eval()'d code" filename.
func (r *EvalSourceRegistry) ByName(name string) (*EvalInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.byName[name]
	return info, ok
}

// ByID resolves the compact hex id.
func (r *EvalSourceRegistry) ByID(id string) (*EvalInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.byID[id]
	return info, ok
}

// Lines splits the eval'd source into one string per line. Deliberately
// splits only on "\n": xdebug's own
// return_eval_source never normalizes "\r\n", and IDEs that eval with CRLF
// source have always gotten a trailing "\r" on every split line back. That
// quirk is preserved here rather than "fixed".
func (info *EvalInfo) Lines() []string {
	return strings.Split(info.Source, "\n")
}
