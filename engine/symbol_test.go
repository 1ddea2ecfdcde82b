package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbgpcore/dbgpd/engine"
	"github.com/dbgpcore/dbgpd/internal/fixtureruntime"
)

func TestEvaluateSymbolPathThisResolvesSelf(t *testing.T) {
	self := fixtureruntime.NewObject("Greeter", map[string]engine.Value{
		fixtureruntime.PublicKey("name"): fixtureruntime.NewString("public"),
	})
	locals := fixtureruntime.NewLocals(map[string]engine.Value{"this": self})

	v, err := engine.EvaluateSymbolPath(locals, self, "$this")
	require.NoError(t, err)
	assert.Equal(t, "Greeter", v.ClassName())
}

func TestEvaluateSymbolPathPropertyVisibilityProbeOrder(t *testing.T) {
	self := fixtureruntime.NewObject("Greeter", map[string]engine.Value{
		fixtureruntime.PublicKey("name"):             fixtureruntime.NewString("public"),
		fixtureruntime.ProtectedKey("name"):          fixtureruntime.NewString("protected"),
		fixtureruntime.PrivateKey("Greeter", "name"): fixtureruntime.NewString("private"),
	})
	locals := fixtureruntime.NewLocals(map[string]engine.Value{"this": self})

	v, err := engine.EvaluateSymbolPath(locals, self, "$this->name")
	require.NoError(t, err)
	text, _ := v.Scalar()
	assert.Equal(t, "public", text, "public must be probed before protected/private")
}

func TestEvaluateSymbolPathFallsBackToProtected(t *testing.T) {
	self := fixtureruntime.NewObject("Greeter", map[string]engine.Value{
		fixtureruntime.ProtectedKey("name"):          fixtureruntime.NewString("protected"),
		fixtureruntime.PrivateKey("Greeter", "name"): fixtureruntime.NewString("private"),
	})
	locals := fixtureruntime.NewLocals(map[string]engine.Value{"this": self})

	v, err := engine.EvaluateSymbolPath(locals, self, "$this->name")
	require.NoError(t, err)
	text, _ := v.Scalar()
	assert.Equal(t, "protected", text, "protected must be probed before private once public is absent")
}

func TestEvaluateSymbolPathFallsBackToPrivate(t *testing.T) {
	self := fixtureruntime.NewObject("Greeter", map[string]engine.Value{
		fixtureruntime.PrivateKey("Greeter", "name"): fixtureruntime.NewString("private"),
	})
	locals := fixtureruntime.NewLocals(map[string]engine.Value{"this": self})

	v, err := engine.EvaluateSymbolPath(locals, self, "$this->name")
	require.NoError(t, err)
	text, _ := v.Scalar()
	assert.Equal(t, "private", text)
}

func TestEvaluateSymbolPathNumericArrayIndex(t *testing.T) {
	arr := fixtureruntime.NewArray(fixtureruntime.NewInt(1), fixtureruntime.NewInt(2), fixtureruntime.NewInt(3))
	locals := fixtureruntime.NewLocals(map[string]engine.Value{"arr": arr})

	v, err := engine.EvaluateSymbolPath(locals, nil, "$arr[1]")
	require.NoError(t, err)
	text, _ := v.Scalar()
	assert.Equal(t, "2", text)
}

func TestEvaluateSymbolPathMissingMemberIsError(t *testing.T) {
	locals := fixtureruntime.NewLocals(map[string]engine.Value{})
	_, err := engine.EvaluateSymbolPath(locals, nil, "$nope")
	require.Error(t, err)
}

func TestEvaluateSymbolPathEmptyPathIsError(t *testing.T) {
	locals := fixtureruntime.NewLocals(map[string]engine.Value{})
	_, err := engine.EvaluateSymbolPath(locals, nil, "")
	require.Error(t, err)
}
