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
	"encoding/base64"
	"fmt"
	"strings"
)

// Response XML is hand-built with fmt.Sprintf templates rather than
// encoding/xml, matching the wire attribute ordering DBGp tooling expects
// and the teacher's own response_formats.go approach.

const initResponseFormat = `<init xmlns="urn:debugger_protocol_v1" language="%s" protocol_version="1.0"
		fileuri="%s"
		appid="%d" idekey="%s" session="%s">
		<engine version="%s"><![CDATA[%s]]></engine>
	</init>`

const featureSetResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="feature_set"
		transaction_id="%s" feature="%s" success="%d">
	</response>`

const featureGetResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="feature_get"
		transaction_id="%s" feature_name="%s" supported="%d">
		%s
	</response>`

const statusResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="status"
		transaction_id="%s" status="%s" reason="%s">
	</response>`

const breakpointSetResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="breakpoint_set" transaction_id="%s" state="%s" id="%s">
	</response>`

const breakpointRemoveOrUpdateResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="%s" transaction_id="%s">
	</response>`

const errorResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="%s" transaction_id="%s">
	 	<error code="%d">
        		<message>%s</message>
    		</error>
	</response>`

const breakpointElementFormat = `<breakpoint id="%s" type="%s" filename="%s" lineno="%d" state="%s" temporary="%d" hit_count="%d" hit_value="%d" hit_condition="%s"></breakpoint>`

const breakpointGetResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="breakpoint_get" transaction_id="%s">
		%s
	</response>`

const breakpointListResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="breakpoint_list" transaction_id="%s">
		%s
	</response>`

const runOrStepBreakResponseFormat = `<response xmlns="urn:debugger_protocol_v1" xmlns:xdebug="http://xdebug.org/dbgp/xdebug" command="%s"
		transaction_id="%s" status="break" reason="ok">
		<xdebug:message filename="%s" lineno="%d"></xdebug:message>
	</response>`

const runOrStepEndResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="%s"
		transaction_id="%s" status="%s" reason="%s">
	</response>`

const stdFdResponseFormat = `<response xmlns="urn:debugger_protocol_v1" transaction_id="%s" command="%s" success="%d"></response>`

const propertySetResponseFormat = `<response xmlns="urn:debugger_protocol_v1" transaction_id="%s" command="property_set" success="%d"></response>`

const stackDepthResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="stack_depth" transaction_id="%s" depth="%d">
	</response>`

const stackFrameElementFormat = `<stack level="%d" type="file" filename="%s" lineno="%d" where="%s"></stack>`

const stackGetResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="stack_get" transaction_id="%s">
		%s
	</response>`

const contextNamesResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="context_names" transaction_id="%s">
		<context name="Locals" id="0"/>
	</response>`

const propertyElementFormat = `<property name="%s" fullname="%s" type="%s" children="%d" numchildren="%d" encoding="base64"><![CDATA[%s]]></property>`

const contextGetResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="context_get" transaction_id="%s" context="0">
		%s
	</response>`

const propertyGetResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="property_get" transaction_id="%s">
		%s
	</response>`

const evalResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="eval" transaction_id="%s" success="1">
		%s
	</response>`

const sourceResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="source" transaction_id="%s" success="1" encoding="base64"><![CDATA[%s]]></response>`

const propertyValueResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="property_value" transaction_id="%s" encoding="base64"><![CDATA[%s]]></response>`

const typeMapEntryFormat = `<map name="%s" type="%s"%s/>`

const typeMapGetResponseFormat = `<response xmlns="urn:debugger_protocol_v1" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema" command="typemap_get" transaction_id="%s">
		%s
	</response>`

const profilerNameGetResponseFormat = `<response xmlns="urn:debugger_protocol_v1" command="xcmd_profiler_name_get" transaction_id="%s"><![CDATA[%s]]></response>`

const executableLineElementFormat = `<xdebug:line lineno="%d"></xdebug:line>`

const executableLinesResponseFormat = `<response xmlns="urn:debugger_protocol_v1" xmlns:xdebug="http://xdebug.org/dbgp/xdebug" command="xcmd_get_executable_lines" transaction_id="%s">
		<xdebug:lines>
			%s
		</xdebug:lines>
	</response>`

// xdebugTypeMap is this adapter's analogue of xdebug's static
// xdebug_dbgp_typemap[][3]: the DBGp "common" type name, the language-level
// name this adapter reports it as in property type="..." attributes, and,
// where one applies, the xsi:type schema type.
var xdebugTypeMap = []struct {
	common, lang, xsiType string
}{
	{"bool", "bool", "xsd:boolean"},
	{"int", "int", "xsd:decimal"},
	{"float", "float", "xsd:double"},
	{"string", "string", "xsd:string"},
	{"null", "null", ""},
	{"hash", "array", ""},
	{"object", "object", ""},
	{"resource", "resource", ""},
}

func renderTypeMap() string {
	var b strings.Builder
	for _, t := range xdebugTypeMap {
		xsi := ""
		if t.xsiType != "" {
			xsi = fmt.Sprintf(` xsi:type="%s"`, t.xsiType)
		}
		b.WriteString(fmt.Sprintf(typeMapEntryFormat, t.lang, t.common, xsi))
	}
	return b.String()
}

func renderExecutableLines(lines []int) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(fmt.Sprintf(executableLineElementFormat, l))
	}
	return b.String()
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func boolToBit(b bool) int {
	if b {
		return 1
	}
	return 0
}

func renderBreakpointElement(bp Breakpoint) string {
	state := "disabled"
	if bp.Enabled {
		state = "enabled"
	}
	return fmt.Sprintf(breakpointElementFormat, bp.ID, bp.Type, bp.Filename, bp.Lineno, state, boolToBit(bp.Temporary), bp.HitCount, bp.HitValue, bp.HitCondition)
}

func renderBreakpointList(bps []Breakpoint) string {
	var b strings.Builder
	for _, bp := range bps {
		b.WriteString(renderBreakpointElement(bp))
	}
	return b.String()
}

func renderStackFrame(level int, f Frame) string {
	where := f.FunctionName
	if where == "" {
		where = "{main}"
	}
	return fmt.Sprintf(stackFrameElementFormat, level, f.Filename, f.Lineno, where)
}

func renderProperty(name string, v Value) string {
	kind := valueKindName(v)
	text, _ := v.Scalar()
	return fmt.Sprintf(propertyElementFormat, name, name, kind, boolToBit(v.Len() > 0), v.Len(), b64(text))
}

func valueKindName(v Value) string {
	switch v.Kind() {
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindNull:
		return "null"
	case KindResource:
		return "resource"
	default:
		return "string"
	}
}
