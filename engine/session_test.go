package engine_test

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbgpcore/dbgpd/engine"
	"github.com/dbgpcore/dbgpd/internal/fixtureruntime"
)

// testSession wires a SessionController over an in-memory net.Pipe and hands
// back the IDE-side connection, so tests can write raw DBGp command lines
// and read back framed XML responses the same way a real IDE would.
func newTestSession(t *testing.T) (ideConn net.Conn, done chan error) {
	t.Helper()
	serverConn, client := net.Pipe()
	runtime := fixtureruntime.NewDefault()
	sess := engine.NewSessionController(serverConn, runtime, engine.SessionConfig{
		IDEKey:          "testide",
		LanguageName:    "dbgpd",
		LanguageVersion: "1.0",
	})
	// net.Pipe is unbuffered, so the init packet is sent from the session
	// goroutine: its write only completes once the test reads it.
	done = make(chan error, 1)
	go func() {
		if err := sess.SendInit(); err != nil {
			done <- err
			return
		}
		done <- sess.Run()
	}()
	return client, done
}

// readPacket reads one length-prefixed, NUL-delimited DBGp frame off r.
func readPacket(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	lengthStr, err := r.ReadString(0)
	require.NoError(t, err)
	lengthStr = strings.TrimSuffix(lengthStr, "\x00")
	length, err := strconv.Atoi(lengthStr)
	require.NoError(t, err)

	body := make([]byte, length)
	_, err = io_ReadFull(r, body)
	require.NoError(t, err)

	nul, err := r.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(0), nul)

	return string(body)
}

func io_ReadFull(r *bufio.Reader, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := r.Read(buf[read:])
		read += n
		if err != nil {
			return read, err
		}
	}
	return read, nil
}

func sendCommand(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	_, err := conn.Write([]byte(line + "\x00"))
	require.NoError(t, err)
}

func TestSessionInitPacket(t *testing.T) {
	conn, _ := newTestSession(t)
	defer conn.Close()
	r := bufio.NewReader(conn)

	xmlDoc := readPacket(t, r)
	assert.Contains(t, xmlDoc, `<init`)
	assert.Contains(t, xmlDoc, `appid`)
}

func TestSessionStatusCommand(t *testing.T) {
	conn, _ := newTestSession(t)
	defer conn.Close()
	r := bufio.NewReader(conn)
	readPacket(t, r) // init

	sendCommand(t, conn, "status -i 1")
	xmlDoc := readPacket(t, r)
	assert.Contains(t, xmlDoc, `status="starting"`)
}

func TestSessionBreakpointSetGetRoundTrip(t *testing.T) {
	conn, _ := newTestSession(t)
	defer conn.Close()
	r := bufio.NewReader(conn)
	readPacket(t, r) // init

	sendCommand(t, conn, `breakpoint_set -i 1 -t line -f file:///fixture/greeter.php -n 11`)
	setResp := readPacket(t, r)
	assert.Contains(t, setResp, `<response`)
	assert.Contains(t, setResp, `id="`)

	idStart := strings.Index(setResp, ` id="`) + len(` id="`)
	idEnd := strings.Index(setResp[idStart:], `"`)
	id := setResp[idStart : idStart+idEnd]
	require.NotEmpty(t, id)

	sendCommand(t, conn, "breakpoint_get -i 2 -d "+id)
	getResp := readPacket(t, r)
	assert.Contains(t, getResp, `type="line"`)
	assert.Contains(t, getResp, `lineno="11"`)
}

func TestSessionFeatureGetSetRoundTrip(t *testing.T) {
	conn, _ := newTestSession(t)
	defer conn.Close()
	r := bufio.NewReader(conn)
	readPacket(t, r) // init

	sendCommand(t, conn, "feature_set -i 1 -n max_children -v 128")
	setResp := readPacket(t, r)
	assert.Contains(t, setResp, `success="1"`)

	sendCommand(t, conn, "feature_get -i 2 -n max_children")
	getResp := readPacket(t, r)
	assert.Contains(t, getResp, `feature_name="max_children"`)
	assert.Contains(t, getResp, "128")
}

func TestSessionStepIntoReportsBreak(t *testing.T) {
	conn, _ := newTestSession(t)
	defer conn.Close()
	r := bufio.NewReader(conn)
	readPacket(t, r) // init

	sendCommand(t, conn, "step_into -i 1")
	resp := readPacket(t, r)
	assert.Contains(t, resp, `status="break"`)
	assert.Contains(t, resp, `filename="file:///fixture/greeter.php"`)
}

func TestSessionStopEndsTheLoop(t *testing.T) {
	conn, done := newTestSession(t)
	defer conn.Close()
	r := bufio.NewReader(conn)
	readPacket(t, r) // init

	sendCommand(t, conn, "stop -i 1")
	resp := readPacket(t, r)
	assert.Contains(t, resp, `status="stopped"`)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session loop did not terminate after stop")
	}
}
