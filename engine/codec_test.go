package engine

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructDbgpPacketFraming(t *testing.T) {
	packet := constructDbgpPacket("<foo/>")

	nul := strings.IndexByte(packet, 0)
	require.NotEqual(t, -1, nul)

	length, err := strconv.Atoi(packet[:nul])
	require.NoError(t, err)

	body := packet[nul+1 : len(packet)-1]
	assert.Equal(t, length, len(body))
	assert.True(t, strings.HasSuffix(packet, "\x00"))
	assert.Equal(t, xmlProlog+"<foo/>", body)
}

func TestPacketWriterAndCommandReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := newPacketWriter(&buf, nil)
	require.NoError(t, w.WritePacket("<init/>"))

	// A write produces exactly one length-prefixed, NUL-terminated frame.
	data := buf.String()
	assert.True(t, strings.HasSuffix(data, "\x00"))
	assert.Equal(t, 2, strings.Count(data, "\x00"))

	var cmdBuf bytes.Buffer
	cmdBuf.WriteString("status -i 1\x00")
	r := newCommandReader(bufio.NewReader(&cmdBuf), nil)

	cmd, err := r.ReadCommand()
	require.NoError(t, err)
	assert.Equal(t, "status", cmd.Command)
	assert.Equal(t, "1", cmd.Seq)
}
