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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const xmlProlog = `<?xml version="1.0" encoding="iso-8859-1"?>` + "\n"

// constructDbgpPacket wraps an XML document body in the length-prefixed,
// NUL-delimited DBGp response frame: "<decimal length>\0<prolog+doc>\0".
func constructDbgpPacket(xmlDoc string) string {
	full := xmlProlog + xmlDoc
	return fmt.Sprintf("%d\x00%s\x00", len(full), full)
}

// packetWriter serializes outbound DBGp packets on a single connection and
// optionally mirrors them to a log sink with the "-> " prefix convention.
type packetWriter struct {
	w      io.Writer
	logger RemoteLogger
}

func newPacketWriter(w io.Writer, logger RemoteLogger) *packetWriter {
	return &packetWriter{w: w, logger: logger}
}

func (p *packetWriter) WritePacket(xmlDoc string) error {
	packet := constructDbgpPacket(xmlDoc)
	if p.logger != nil {
		p.logger.Logf("-> %s", xmlDoc)
	}
	_, err := io.WriteString(p.w, packet)
	return err
}

// commandReader reads inbound NUL-delimited command lines off a
// bufio.Reader, mirroring each to the log sink with the "<- " prefix.
type commandReader struct {
	r      *bufio.Reader
	logger RemoteLogger
}

func newCommandReader(r *bufio.Reader, logger RemoteLogger) *commandReader {
	return &commandReader{r: r, logger: logger}
}

// ReadCommand reads one NUL-terminated line and parses it into a dbgpCmd.
func (c *commandReader) ReadCommand() (*dbgpCmd, error) {
	line, err := c.r.ReadString(0)
	if err != nil {
		return nil, err
	}
	line = strings.TrimSuffix(line, "\x00")
	if c.logger != nil {
		c.logger.Logf("<- %s", line)
	}
	return parseCommand(line)
}

// RemoteLogger receives a formatted line for every packet exchanged with
// the IDE, used for the interactive console's verbose echo.
type RemoteLogger interface {
	Logf(format string, args ...interface{})
}

// quoteForLog renders values for human-facing diagnostic output the way
// the teacher's Verbosef helper does: plain strconv.Quote, no extra escaping.
func quoteForLog(s string) string {
	return strconv.Quote(s)
}
