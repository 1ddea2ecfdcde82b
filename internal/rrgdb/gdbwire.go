package rrgdb

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/cyrus-and/gdb"
	"github.com/fatih/color"
)

// Verbose, when true, echoes every gdb/mi command and response, mirroring
// the teacher's package-level VerboseFlag.
var Verbose bool

func sendGdbCommand(session *gdb.Gdb, command string, arguments ...string) (map[string]interface{}, error) {
	if Verbose {
		color.Green("dbgpd -> gdb: %v %v", command, strings.Join(arguments, " "))
	}
	result, err := session.Send(command, arguments...)
	if err != nil {
		return nil, err
	}
	if Verbose {
		continued := ""
		if len(result) > 300 {
			continued = "..."
		}
		color.Cyan("gdb -> dbgpd: %.300v%v", result, continued)
	}
	return result, nil
}

// parseGdbStringResponse extracts the quoted text out of a gdb
// data-evaluate-expression string reply, e.g. `0x7f261d8624e8 "some string"`.
func parseGdbStringResponse(gdbResponse string) (string, error) {
	first := strings.Index(gdbResponse, "\"")
	last := strings.LastIndex(gdbResponse, "\"")
	if first == last || first == -1 || last == -1 {
		return "", errors.New("improper gdb data-evaluate-expression string response: " + gdbResponse)
	}
	return unquoteGdbStringResult(gdbResponse[first+1 : last]), nil
}

func unquoteGdbStringResult(input string) string {
	var buf bytes.Buffer
	skip := false
	runes := []rune(input)
	for i, c := range runes {
		if skip {
			skip = false
			continue
		}
		if c == '\\' && i+1 < len(runes) && runes[i+1] == '"' {
			buf.WriteRune('"')
			skip = true
		} else {
			buf.WriteRune(c)
		}
	}
	return buf.String()
}

func xGdbCmdValue(session *gdb.Gdb, expression string) (string, error) {
	result, err := sendGdbCommand(session, "data-evaluate-expression", expression)
	if err != nil {
		return "", err
	}
	if result["class"] != "done" {
		return "", errors.New("data-evaluate-expression did not complete: " + expression)
	}
	payload, ok := result["payload"].(map[string]interface{})
	if !ok {
		return "", errors.New("unexpected gdb/mi payload shape")
	}
	value, ok := payload["value"].(string)
	if !ok {
		return "", errors.New("data-evaluate-expression payload had no value")
	}
	return value, nil
}

// xSlashS evaluates expression and unquotes the resulting gdb string.
func xSlashS(session *gdb.Gdb, expression string) (string, error) {
	raw, err := xGdbCmdValue(session, expression)
	if err != nil {
		return "", err
	}
	return parseGdbStringResponse(raw)
}

// xSlashD evaluates expression as an integer.
func xSlashD(session *gdb.Gdb, expression string) (int, error) {
	raw, err := xGdbCmdValue(session, expression)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}

// breakInsertResult pulls the gdb-assigned breakpoint number out of a
// break-insert reply.
func breakInsertResult(result map[string]interface{}) (string, error) {
	if result["class"] != "done" {
		return "", errors.New("break-insert did not complete")
	}
	payload, ok := result["payload"].(map[string]interface{})
	if !ok {
		return "", errors.New("unexpected gdb/mi payload shape")
	}
	bkpt, ok := payload["bkpt"].(map[string]interface{})
	if !ok {
		return "", errors.New("break-insert payload had no bkpt")
	}
	id, ok := bkpt["number"].(string)
	if !ok {
		return "", errors.New("break-insert bkpt had no number")
	}
	return id, nil
}
