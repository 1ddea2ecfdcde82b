// Package fixtureruntime is a small, in-memory stand-in for a live
// scripting runtime: a fixed call stack and object graph, used by engine's
// own tests and by "dbgpd serve --backend=fixture".
package fixtureruntime

import (
	"strconv"

	"github.com/dbgpcore/dbgpd/engine"
)

type scalarValue struct {
	text     string
	isString bool
}

func (v scalarValue) Kind() engine.ValueKind        { return engine.KindScalar }
func (v scalarValue) ClassName() string              { return "" }
func (v scalarValue) Len() int                        { return 0 }
func (v scalarValue) Member(string, bool) (engine.Value, bool) { return nil, false }
func (v scalarValue) Scalar() (string, bool)          { return v.text, v.isString }

// NewString builds a scalar string Value.
func NewString(s string) engine.Value { return scalarValue{text: s, isString: true} }

// NewInt builds a scalar integer Value.
func NewInt(n int) engine.Value { return scalarValue{text: strconv.Itoa(n)} }

// arrayValue is a numerically indexed array, the PHP-style "everything is
// a hashtable" collection collapsed to the common case tests need.
type arrayValue struct {
	items []engine.Value
}

func NewArray(items ...engine.Value) engine.Value {
	return &arrayValue{items: items}
}

func (v *arrayValue) Kind() engine.ValueKind { return engine.KindArray }
func (v *arrayValue) ClassName() string      { return "" }
func (v *arrayValue) Len() int               { return len(v.items) }
func (v *arrayValue) Scalar() (string, bool) { return "", false }

func (v *arrayValue) Member(key string, numeric bool) (engine.Value, bool) {
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 || idx >= len(v.items) {
		return nil, false
	}
	return v.items[idx], true
}

// objectValue is a property bag keyed exactly the way the symbol path
// evaluator composes its lookups: a bare name for public properties, a
// "\0*\0name" key for protected, and a "\0ClassName\0name" key for
// private -- so a fixture can expose same-named properties at all three
// visibilities and exercise the probe order end to end.
type objectValue struct {
	className string
	props     map[string]engine.Value
}

// NewObject builds an object Value. props is keyed using the same
// "\0*\0"/"\0Class\0" prefix convention the symbol path evaluator composes,
// so callers building fixtures construct keys with PublicKey/ProtectedKey/
// PrivateKey below rather than raw NUL bytes.
func NewObject(className string, props map[string]engine.Value) engine.Value {
	return &objectValue{className: className, props: props}
}

func (v *objectValue) Kind() engine.ValueKind { return engine.KindObject }
func (v *objectValue) ClassName() string      { return v.className }
func (v *objectValue) Len() int               { return len(v.props) }
func (v *objectValue) Scalar() (string, bool) { return "", false }

func (v *objectValue) Member(key string, numeric bool) (engine.Value, bool) {
	val, ok := v.props[key]
	return val, ok
}

// PublicKey, ProtectedKey and PrivateKey build the three property-bag keys
// the symbol path evaluator probes, in that order.
func PublicKey(name string) string { return name }

func ProtectedKey(name string) string { return "\x00*\x00" + name }

func PrivateKey(className, name string) string { return "\x00" + className + "\x00" + name }

// localsValue is a flat name -> Value table used as a frame's Locals.
type localsValue struct {
	names []string
	props map[string]engine.Value
}

func NewLocals(vars map[string]engine.Value) engine.Value {
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	return &localsValue{names: names, props: vars}
}

func (v *localsValue) Kind() engine.ValueKind { return engine.KindObject }
func (v *localsValue) ClassName() string      { return "" }
func (v *localsValue) Len() int               { return len(v.props) }
func (v *localsValue) Scalar() (string, bool) { return "", false }

func (v *localsValue) Member(key string, numeric bool) (engine.Value, bool) {
	if numeric {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(v.names) {
			return nil, false
		}
		return v.props[v.names[idx]], true
	}
	val, ok := v.props[key]
	return val, ok
}
