package rrgdb

import "github.com/dbgpcore/dbgpd/engine"

// diversionValue is an engine.Value whose contents live inside the
// debuggee rather than in this process: every read round-trips through
// gdb/mi as a `dontbug_*` helper call, the same "diversion session"
// indirection other_commands.go's diversionSessionCmd uses.
type diversionValue struct {
	in   *Introspector
	expr string
}

func (v *diversionValue) Kind() engine.ValueKind {
	return engine.KindScalar
}

func (v *diversionValue) ClassName() string {
	name, err := xSlashS(v.in.session.gdb, v.expr+".classname")
	if err != nil {
		return ""
	}
	return name
}

func (v *diversionValue) Len() int {
	n, err := xSlashD(v.in.session.gdb, v.expr+".count")
	if err != nil {
		return 0
	}
	return n
}

func (v *diversionValue) Member(key string, numeric bool) (engine.Value, bool) {
	child := v.expr + ".member(" + quoteGdbArg(key) + ")"
	text, err := xSlashS(v.in.session.gdb, child+".exists")
	if err != nil || text == "" {
		return nil, false
	}
	return &diversionValue{in: v.in, expr: child}, true
}

func (v *diversionValue) Scalar() (string, bool) {
	text, err := xSlashS(v.in.session.gdb, v.expr+".text")
	if err != nil {
		return "", false
	}
	isString, _ := xSlashD(v.in.session.gdb, v.expr+".is_string")
	return text, isString != 0
}

func quoteGdbArg(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	out = append(out, '"')
	return string(out)
}
