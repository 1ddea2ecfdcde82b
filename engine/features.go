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
	"fmt"
	"strconv"
	"strings"
)

// featureValue is a negotiable DBGp feature: either a fixed, read-only
// capability advertisement or a mutable tuning knob the IDE can feature_set.
type featureValue interface {
	Set(value string) error
	String() string
}

type featureBool struct {
	Value    bool
	ReadOnly bool
}

type featureInt struct {
	Value    int
	ReadOnly bool
}

type featureString struct {
	Value    string
	ReadOnly bool
}

func (f *featureBool) Set(value string) error {
	if f.ReadOnly {
		return newErrorf(ErrInvalidOptions, "feature is read-only")
	}
	switch value {
	case "0":
		f.Value = false
	case "1":
		f.Value = true
	default:
		return newErrorf(ErrInvalidOptions, "expected 0 or 1")
	}
	return nil
}

func (f featureBool) String() string {
	if f.Value {
		return "1"
	}
	return "0"
}

func (f *featureInt) Set(value string) error {
	if f.ReadOnly {
		return newErrorf(ErrInvalidOptions, "feature is read-only")
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return newErrorf(ErrInvalidOptions, "expected an integer")
	}
	f.Value = n
	return nil
}

func (f featureInt) String() string {
	return strconv.Itoa(f.Value)
}

func (f *featureString) Set(value string) error {
	if f.ReadOnly {
		return newErrorf(ErrInvalidOptions, "feature is read-only")
	}
	f.Value = value
	return nil
}

func (f featureString) String() string {
	return f.Value
}

// featureEncoding models the "encoding" feature's peculiar set semantics:
// spec.md §4.7 has the IDE propose an encoding and the engine either accept
// it (already the only one it speaks) or reject it with error 900, rather
// than the generic "read-only" rejection every other fixed feature gives.
type featureEncoding struct {
	Value string
}

func (f *featureEncoding) Set(value string) error {
	if !strings.EqualFold(value, f.Value) {
		return newError(ErrEncodingNotSupported)
	}
	return nil
}

func (f featureEncoding) String() string {
	return f.Value
}

// featureRegistry is the command target for feature_get/feature_set,
// initialized with the fixed set of names a DBGp adapter must recognize.
type featureRegistry struct {
	values map[string]featureValue
}

func newFeatureRegistry(languageName, languageVersion string) *featureRegistry {
	return &featureRegistry{values: map[string]featureValue{
		"language_supports_threads": &featureBool{false, true},
		"language_name":             &featureString{languageName, true},
		"language_version":          &featureString{languageVersion, true},
		"encoding":                  &featureEncoding{"iso-8859-1"},
		"protocol_version":          &featureInt{1, true},
		"supports_async":            &featureBool{false, true},
		"supports_postmortem":       &featureBool{true, true},
		"breakpoint_types":          &featureString{"line conditional call return exception", true},
		"breakpoint_languages":      &featureString{"0", true},
		"multiple_sessions":         &featureBool{false, false},
		"max_children":              &featureInt{64, false},
		"max_data":                  &featureInt{2048, false},
		"max_depth":                 &featureInt{1, false},
		"extended_properties":       &featureBool{false, false},
		"show_hidden":               &featureBool{false, false},
		"notify_ok":                 &featureBool{false, false},
		"resolved_breakpoints":      &featureBool{false, true},
		"supported_encodings":       &featureString{"iso-8859-1", true},
		"data_encoding":             &featureString{"0", true},
	}}
}

// Get returns the string form of a feature and whether it is recognized.
// A name outside the fixed feature set still counts as "supported" (with
// no value) when it names a command this adapter's dispatch table
// actually implements, per spec.md §4.7's command-name fallback.
func (r *featureRegistry) Get(name string) (string, bool) {
	if v, ok := r.values[name]; ok {
		return v.String(), true
	}
	if _, ok := lookupCommand(name); ok {
		return "", true
	}
	return "", false
}

// Set assigns a feature by name, returning an error if unrecognized,
// read-only, or malformed.
func (r *featureRegistry) Set(name, value string) error {
	v, ok := r.values[name]
	if !ok {
		return newErrorf(ErrInvalidOptions, fmt.Sprintf("unknown feature %q", name))
	}
	return v.Set(value)
}

// Bool reads a boolean feature's current value, defaulting to false for
// anything not registered or not a bool feature.
func (r *featureRegistry) Bool(name string) bool {
	if v, ok := r.values[name].(*featureBool); ok {
		return v.Value
	}
	return false
}

// Int reads an integer feature's current value, defaulting to 0.
func (r *featureRegistry) Int(name string) int {
	if v, ok := r.values[name].(*featureInt); ok {
		return v.Value
	}
	return 0
}
