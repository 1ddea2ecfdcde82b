package engine

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakpointRegistryIDsAreUniqueAndMonotonic(t *testing.T) {
	r := NewBreakpointRegistry()

	id1, err := r.Add(Breakpoint{Type: BreakpointLine, Filename: "file:///a.php", Lineno: 10, Enabled: true})
	require.NoError(t, err)
	id2, err := r.Add(Breakpoint{Type: BreakpointLine, Filename: "file:///a.php", Lineno: 11, Enabled: true})
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)

	bp1, ok := r.Get(id1)
	require.True(t, ok)
	bp2, ok := r.Get(id2)
	require.True(t, ok)
	assert.Less(t, bp1.ID, bp2.ID) // decimal string compare works here: same pid prefix, counter increments
}

func TestBreakpointRegistryAddGetRemove(t *testing.T) {
	r := NewBreakpointRegistry()

	id, err := r.Add(Breakpoint{Type: BreakpointLine, Filename: "file:///a.php", Lineno: 42, Enabled: true})
	require.NoError(t, err)

	got := r.LineBreakpoints("file:///a.php", 42)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)

	require.NoError(t, r.Remove(id))
	_, ok := r.Get(id)
	assert.False(t, ok)
	assert.Empty(t, r.LineBreakpoints("file:///a.php", 42))
}

func TestBreakpointRegistryRemoveUnknownIsError(t *testing.T) {
	r := NewBreakpointRegistry()
	err := r.Remove("no-such-id")
	require.Error(t, err)
	de, ok := err.(*dbgpError)
	require.True(t, ok)
	assert.Equal(t, ErrNoSuchBreakpoint, de.code)
}

func TestBreakpointWatchTypeUnsupported(t *testing.T) {
	r := NewBreakpointRegistry()
	_, err := r.Add(Breakpoint{Type: BreakpointWatch})
	require.Error(t, err)
}

func TestHitConditionSemantics(t *testing.T) {
	cases := []struct {
		name      string
		cond      HitCondition
		hitCount  int
		hitValue  int
		satisfied bool
	}{
		{"disabled always satisfied", HitConditionDisabled, 1, 0, true},
		{"gteq below threshold", HitConditionGtEq, 2, 5, false},
		{"gteq at threshold", HitConditionGtEq, 5, 5, true},
		{"gteq above threshold", HitConditionGtEq, 6, 5, true},
		{"eq mismatch", HitConditionEq, 4, 5, false},
		{"eq match", HitConditionEq, 5, 5, true},
		{"mod not divisible", HitConditionMod, 4, 3, false},
		{"mod divisible", HitConditionMod, 6, 3, true},
		{"mod zero value never satisfied", HitConditionMod, 0, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.satisfied, c.cond.satisfied(c.hitCount, c.hitValue))
		})
	}
}

func TestRecordHitRemovesSatisfiedTemporaryBreakpoint(t *testing.T) {
	r := NewBreakpointRegistry()
	id, err := r.Add(Breakpoint{
		Type: BreakpointLine, Filename: "file:///a.php", Lineno: 1,
		Enabled: true, Temporary: true,
	})
	require.NoError(t, err)

	shouldBreak, err := r.RecordHit(id)
	require.NoError(t, err)
	assert.True(t, shouldBreak)

	_, ok := r.Get(id)
	assert.False(t, ok, "satisfied temporary breakpoint should be auto-removed")
}

func TestRecordHitHonorsHitConditionBeforeRemoval(t *testing.T) {
	r := NewBreakpointRegistry()
	id, err := r.Add(Breakpoint{
		Type: BreakpointLine, Filename: "file:///a.php", Lineno: 1,
		Enabled: true, Temporary: true,
		HitCondition: HitConditionEq, HitValue: 3,
	})
	require.NoError(t, err)

	shouldBreak, err := r.RecordHit(id)
	require.NoError(t, err)
	assert.False(t, shouldBreak)
	_, ok := r.Get(id)
	assert.True(t, ok, "breakpoint shouldn't be removed until hit_condition is satisfied")

	r.RecordHit(id)
	shouldBreak, err = r.RecordHit(id)
	require.NoError(t, err)
	assert.True(t, shouldBreak)
	_, ok = r.Get(id)
	assert.False(t, ok)
}

func TestRecordHitDisabledBreakpointNeverBreaks(t *testing.T) {
	r := NewBreakpointRegistry()
	id, err := r.Add(Breakpoint{Type: BreakpointLine, Filename: "file:///a.php", Lineno: 1, Enabled: false})
	require.NoError(t, err)

	shouldBreak, err := r.RecordHit(id)
	require.NoError(t, err)
	assert.False(t, shouldBreak)
}

func TestRecordHitIncrementsCountEvenWhenDisabled(t *testing.T) {
	r := NewBreakpointRegistry()
	id, err := r.Add(Breakpoint{Type: BreakpointLine, Filename: "file:///a.php", Lineno: 1, Enabled: false})
	require.NoError(t, err)

	r.RecordHit(id)
	r.RecordHit(id)

	bp, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, 2, bp.HitCount, "hit count should advance on every candidate hit, disabled or not")
}

func TestAddDuplicateFunctionBreakpointIsRejected(t *testing.T) {
	r := NewBreakpointRegistry()
	_, err := r.Add(Breakpoint{Type: BreakpointCall, FunctionName: "foo", Enabled: true})
	require.NoError(t, err)

	_, err = r.Add(Breakpoint{Type: BreakpointCall, FunctionName: "foo", Enabled: true})
	require.Error(t, err)
	de, ok := err.(*dbgpError)
	require.True(t, ok)
	assert.Equal(t, ErrBreakpointCouldNotBeSet, de.code)
}

func TestAddDuplicateExceptionBreakpointIsRejected(t *testing.T) {
	r := NewBreakpointRegistry()
	_, err := r.Add(Breakpoint{Type: BreakpointException, Exception: "RuntimeException", Enabled: true})
	require.NoError(t, err)

	_, err = r.Add(Breakpoint{Type: BreakpointException, Exception: "RuntimeException", Enabled: true})
	require.Error(t, err)
	de, ok := err.(*dbgpError)
	require.True(t, ok)
	assert.Equal(t, ErrBreakpointCouldNotBeSet, de.code)
}

func TestConditionSatisfiedFalsyAndTruthy(t *testing.T) {
	rt := &fakeConditionRuntime{}

	rt.value = scalarTestValue{text: "0"}
	assert.False(t, ConditionSatisfied(rt, Breakpoint{Expression: "$count == 0"}))

	rt.value = scalarTestValue{text: "1"}
	assert.True(t, ConditionSatisfied(rt, Breakpoint{Expression: "$count == 0"}))

	assert.True(t, ConditionSatisfied(rt, Breakpoint{}), "no expression is always satisfied")
}

// scalarTestValue is the smallest possible Value implementation: a bare
// scalar with no children, enough to drive truthy's checks in isolation.
type scalarTestValue struct {
	text     string
	isString bool
}

func (scalarTestValue) Kind() ValueKind           { return KindScalar }
func (scalarTestValue) ClassName() string         { return "" }
func (scalarTestValue) Len() int                  { return 0 }
func (scalarTestValue) Member(string, bool) (Value, bool) {
	return nil, false
}
func (v scalarTestValue) Scalar() (string, bool) { return v.text, v.isString }

// fakeConditionRuntime is a minimal RuntimeIntrospector stub exercising only
// Evaluate, enough to test ConditionSatisfied in isolation.
type fakeConditionRuntime struct {
	value Value
}

func (f *fakeConditionRuntime) CurrentFrame() (Frame, bool)       { return Frame{}, false }
func (f *fakeConditionRuntime) Frame(int) (Frame, bool)           { return Frame{}, false }
func (f *fakeConditionRuntime) StackDepth() int                   { return 0 }
func (f *fakeConditionRuntime) ExecutedFile() string              { return "" }
func (f *fakeConditionRuntime) ExecutedLine() int                 { return 0 }
func (f *fakeConditionRuntime) Evaluate(string) (Value, error)    { return f.value, nil }
func (f *fakeConditionRuntime) OpenSource(string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeConditionRuntime) InstallStdoutHook(func([]byte)) func() { return func() {} }
func (f *fakeConditionRuntime) InstallStderrHook(func([]byte)) func() { return func() {} }
func (f *fakeConditionRuntime) Resume(ExecMode) (bool, error)     { return true, nil }
