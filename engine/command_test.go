package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandSimple(t *testing.T) {
	cmd, err := parseCommand(`breakpoint_set -i 3 -t line -f file:///foo.php -n 10`)
	require.NoError(t, err)
	assert.Equal(t, "breakpoint_set", cmd.Command)
	assert.Equal(t, "3", cmd.Seq)

	v, ok := cmd.Get('t')
	require.True(t, ok)
	assert.Equal(t, "line", v)

	v, ok = cmd.Get('f')
	require.True(t, ok)
	assert.Equal(t, "file:///foo.php", v)
}

func TestParseCommandQuotedValueWithSpaces(t *testing.T) {
	cmd, err := parseCommand(`breakpoint_set -i 1 -t conditional -f file:///foo.php -n 10 -- "$x >= 5"`)
	require.NoError(t, err)

	v, ok := cmd.Get('-')
	require.True(t, ok)
	assert.Equal(t, "$x >= 5", v)
}

func TestParseCommandQuotedValueWithEscapedQuote(t *testing.T) {
	cmd, err := parseCommand(`eval -i 1 -- "say \"hi\""`)
	require.NoError(t, err)

	v, ok := cmd.Data()
	require.True(t, ok)
	assert.Equal(t, `say "hi"`, v)
}

func TestParseCommandDuplicateOptionIsError(t *testing.T) {
	_, err := parseCommand(`status -i 1 -i 2`)
	require.Error(t, err)
	de, ok := err.(*dbgpError)
	require.True(t, ok)
	assert.Equal(t, ErrDuplicateArgs, de.code)
}

func TestParseCommandEmptyIsParseError(t *testing.T) {
	_, err := parseCommand(``)
	require.Error(t, err)
	de, ok := err.(*dbgpError)
	require.True(t, ok)
	assert.Equal(t, ErrParse, de.code)
}

func TestParseCommandUnterminatedQuoteIsParseError(t *testing.T) {
	_, err := parseCommand(`eval -i 1 -- "unterminated`)
	require.Error(t, err)
}
