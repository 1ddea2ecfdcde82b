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

import "fmt"

// symbolScanState mirrors get_symbol_contents_zval's state numbering
// exactly (0 through 6) so the two can be read side by side.
type symbolScanState int

const (
	scanRootOrDollar symbolScanState = 0
	scanIdentifier   symbolScanState = 1
	scanArrow        symbolScanState = 2
	scanBracket      symbolScanState = 3
	scanQuotedKey    symbolScanState = 4
	scanCloseBracket symbolScanState = 5
	scanNumericKey   symbolScanState = 6
)

// symbolTableType tags which kind of lookup a pending key resolves through,
// matching xdebug's XF_ST_* constants.
type symbolTableType int

const (
	stRoot symbolTableType = iota
	stArrayIndexAssoc
	stArrayIndexNum
	stObjProperty
)

// fetchMember resolves name against cur using the probe order appropriate
// to tableType: a bare lookup for root/array accesses, and a
// public -> protected -> private probe sequence for object properties,
// matching prepare_search_key's "", "*", "<classname>" prefixes.
func fetchMember(cur Value, name string, tableType symbolTableType, currentClass string, self Value) (Value, bool) {
	switch tableType {
	case stRoot, stArrayIndexAssoc:
		if tableType == stRoot && name == "this" {
			return self, self != nil
		}
		return cur.Member(name, false)
	case stArrayIndexNum:
		return cur.Member(name, true)
	case stObjProperty:
		if v, ok := cur.Member(name, false); ok {
			return v, true
		}
		if v, ok := cur.Member("\x00*\x00"+name, false); ok {
			return v, true
		}
		if currentClass != "" {
			if v, ok := cur.Member("\x00"+currentClass+"\x00"+name, false); ok {
				return v, true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

// EvaluateSymbolPath resolves a DBGp symbol path ("$foo", "foo->bar",
// "foo['bar']", "foo[0]", any mix of the three) against root (the active
// locals table) and self (the frame's $this, or nil), walking each
// accessor exactly the way get_symbol_contents_zval's character state
// machine does.
func EvaluateSymbolPath(root Value, self Value, path string) (Value, error) {
	if path == "" {
		return nil, newError(ErrInvalidExpression)
	}

	state := scanRootOrDollar
	tableType := stRoot
	var cur Value = root
	var currentClass string
	var keyword []byte
	var quoteChar byte

	flush := func(next Value) {
		if next != nil {
			currentClass = next.ClassName()
			cur = next
		} else {
			cur = nil
			currentClass = ""
		}
		keyword = nil
	}

	i := 0
	for i <= len(path) {
		var ch byte
		atEnd := i == len(path)
		if !atEnd {
			ch = path[i]
		}

		if atEnd {
			break
		}

		switch state {
		case scanRootOrDollar:
			if ch == '$' {
				i++
				state = scanIdentifier
				continue
			}
			state = scanIdentifier
			continue

		case scanIdentifier:
			if ch == '[' {
				if len(keyword) > 0 {
					name := string(keyword)
					v, ok := fetchMember(cur, name, tableType, currentClass, self)
					if !ok {
						return nil, newError(ErrCantGetProperty)
					}
					flush(v)
				}
				state = scanBracket
				i++
				continue
			}
			if ch == '-' && i+1 < len(path) && path[i+1] == '>' {
				if len(keyword) > 0 {
					name := string(keyword)
					v, ok := fetchMember(cur, name, tableType, currentClass, self)
					if !ok {
						return nil, newError(ErrCantGetProperty)
					}
					flush(v)
				}
				tableType = stObjProperty
				state = scanArrow
				i += 2
				continue
			}
			keyword = append(keyword, ch)
			i++
			continue

		case scanArrow:
			state = scanIdentifier
			continue

		case scanBracket:
			switch {
			case ch == '\'' || ch == '"':
				quoteChar = ch
				tableType = stArrayIndexAssoc
				state = scanQuotedKey
				i++
				continue
			case ch >= '0' && ch <= '9':
				tableType = stArrayIndexNum
				state = scanNumericKey
				continue
			default:
				return nil, newError(ErrInvalidExpression)
			}

		case scanQuotedKey:
			if ch == quoteChar {
				name := string(keyword)
				v, ok := fetchMember(cur, name, tableType, currentClass, self)
				if !ok {
					return nil, newError(ErrCantGetProperty)
				}
				flush(v)
				state = scanCloseBracket
				i++
				continue
			}
			keyword = append(keyword, ch)
			i++
			continue

		case scanCloseBracket:
			if ch == ']' {
				state = scanIdentifier
			}
			i++
			continue

		case scanNumericKey:
			if ch == ']' {
				name := string(keyword)
				v, ok := fetchMember(cur, name, tableType, currentClass, self)
				if !ok {
					return nil, newError(ErrCantGetProperty)
				}
				flush(v)
				state = scanIdentifier
				i++
				continue
			}
			keyword = append(keyword, ch)
			i++
			continue
		}
	}

	if len(keyword) > 0 {
		name := string(keyword)
		v, ok := fetchMember(cur, name, tableType, currentClass, self)
		if !ok {
			return nil, newError(ErrCantGetProperty)
		}
		return v, nil
	}

	if cur == nil {
		return nil, newErrorf(ErrCantGetProperty, fmt.Sprintf("no such symbol: %s", path))
	}
	return cur, nil
}
