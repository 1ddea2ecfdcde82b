package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalSourceRegistryDoubleKeyed(t *testing.T) {
	r := NewEvalSourceRegistry()
	name := r.Register("file:///foo.php", 10, "echo 1;\necho 2;")

	assert.Equal(t, `file:///foo.php(10) : eval()'d code`, name)

	byName, ok := r.ByName(name)
	require.True(t, ok)
	byID, ok := r.ByID(byName.ID)
	require.True(t, ok)
	assert.Same(t, byName, byID)
}

func TestEvalSourceRegistryIDsDontCollide(t *testing.T) {
	r := NewEvalSourceRegistry()
	// Same file:lineno evaluated twice in a row overwrites the synthetic
	// filename key, but each gets a distinct ID.
	name1 := r.Register("file:///foo.php", 10, "a")
	info1, _ := r.ByName(name1)
	name2 := r.Register("file:///foo.php", 10, "b")
	info2, _ := r.ByName(name2)
	assert.NotEqual(t, info1.ID, info2.ID)
	assert.Equal(t, "b", info2.Source)
}

func TestEvalInfoLinesPreservesCRLFQuirk(t *testing.T) {
	info := &EvalInfo{Source: "one\r\ntwo\r\nthree"}
	lines := info.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "one\r", lines[0])
	assert.Equal(t, "two\r", lines[1])
	assert.Equal(t, "three", lines[2])
}

func TestDecodeEvalDataBase64(t *testing.T) {
	decoded, err := decodeEvalData("ZWNobyAxOw==")
	require.NoError(t, err)
	assert.Equal(t, "echo 1;", decoded)
}

func TestDecodeEvalDataInvalidBase64IsError(t *testing.T) {
	_, err := decodeEvalData("not base64!!")
	require.Error(t, err)
}
