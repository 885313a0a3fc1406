// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package frontend

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// tokenKind is the kind of an SCL token. Keywords are identifiers; the parser compares their text.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokMember // .Field following an index
	tokNumber
	tokString
	tokComment // a comment carrying an annotation or a suppression
	tokAssign  // :=
	tokOutput  // =>
	tokColon
	tokSemicolon
	tokComma
	tokRange // ..
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokPlus
	tokMinus
	tokStar
	tokPower // **
	tokSlash
	tokEq
	tokNeq
	tokLt
	tokLe
	tokGt
	tokGe
	tokAmp
)

var tokenNames = [...]string{
	tokEOF:       "end of file",
	tokIdent:     "identifier",
	tokMember:    "member selection",
	tokNumber:    "number",
	tokString:    "string",
	tokComment:   "comment",
	tokAssign:    "':='",
	tokOutput:    "'=>'",
	tokColon:     "':'",
	tokSemicolon: "';'",
	tokComma:     "','",
	tokRange:     "'..'",
	tokLParen:    "'('",
	tokRParen:    "')'",
	tokLBracket:  "'['",
	tokRBracket:  "']'",
	tokPlus:      "'+'",
	tokMinus:     "'-'",
	tokStar:      "'*'",
	tokPower:     "'**'",
	tokSlash:     "'/'",
	tokEq:        "'='",
	tokNeq:       "'<>'",
	tokLt:        "'<'",
	tokLe:        "'<='",
	tokGt:        "'>'",
	tokGe:        "'>='",
	tokAmp:       "'&'",
}

func (k tokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return "?"
}

// token is a lexical token. For numbers, Value holds the normalized integer value (time literals in
// milliseconds); for booleans written as typed literals (BOOL#TRUE) Text is TRUE or FALSE.
type token struct {
	Kind  tokenKind
	Text  string
	Value int64
	Line  int
}

// lexer scans SCL source text. Comments are dropped unless they carry an annotation marker (@) or a
// suppression (plcheck), in which case they are returned as tokComment tokens. Pragmas in braces are dropped.
type lexer struct {
	src  string
	cur  int
	line int
}

func newLexer(src string, line int) *lexer {
	if line <= 0 {
		line = 1
	}
	return &lexer{src: src, line: line}
}

// tokenize scans the whole source. The last token is always tokEOF.
func tokenize(src string, line int) ([]token, error) {
	l := newLexer(src, line)
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) peekByte(n int) byte {
	if l.cur+n >= len(l.src) {
		return 0
	}
	return l.src[l.cur+n]
}

func (l *lexer) errorf(format string, args ...any) error {
	return &ParseError{Line: l.line, Msg: fmt.Sprintf(format, args...)}
}

//gocyclo:ignore
func (l *lexer) next() (token, error) {
	for {
		l.skipSpace()
		if l.cur >= len(l.src) {
			return token{Kind: tokEOF, Line: l.line}, nil
		}
		line := l.line
		c := l.src[l.cur]
		switch {
		case c == '/' && l.peekByte(1) == '/':
			end := strings.IndexByte(l.src[l.cur:], '\n')
			if end < 0 {
				end = len(l.src) - l.cur
			}
			text := l.src[l.cur+2 : l.cur+end]
			l.cur += end
			if isAnnotationComment(text) {
				return token{Kind: tokComment, Text: strings.TrimSpace(text), Line: line}, nil
			}
			continue
		case c == '(' && l.peekByte(1) == '*', c == '/' && l.peekByte(1) == '*':
			closer := "*)"
			if c == '/' {
				closer = "*/"
			}
			end := strings.Index(l.src[l.cur+2:], closer)
			if end < 0 {
				return token{}, l.errorf("unterminated comment")
			}
			text := l.src[l.cur+2 : l.cur+2+end]
			l.line += strings.Count(text, "\n")
			l.cur += 2 + end + 2
			if isAnnotationComment(text) {
				return token{Kind: tokComment, Text: strings.TrimSpace(text), Line: line}, nil
			}
			continue
		case c == '{':
			end := strings.IndexByte(l.src[l.cur:], '}')
			if end < 0 {
				return token{}, l.errorf("unterminated pragma")
			}
			l.line += strings.Count(l.src[l.cur:l.cur+end], "\n")
			l.cur += end + 1
			continue
		case c == '\'':
			return l.stringLiteral()
		case c == '"':
			return l.quotedIdent()
		case c == '#' && (isIdentStart(l.peekByte(1)) || l.peekByte(1) == '"'):
			// #Local is the local variable Local
			l.cur++
			continue
		case c == '%':
			return l.address(), nil
		case c == '.' && isIdentStart(l.peekByte(1)):
			l.cur++
			return token{Kind: tokMember, Text: l.dottedName(), Line: line}, nil
		case isDigit(c):
			return l.number(line, "")
		case isIdentStart(c):
			return l.identOrTyped()
		}
		return l.operator()
	}
}

func (l *lexer) skipSpace() {
	for l.cur < len(l.src) {
		switch l.src[l.cur] {
		case '\n':
			l.line++
		case ' ', '\t', '\r', '\f', '\v':
		default:
			return
		}
		l.cur++
	}
}

func isAnnotationComment(text string) bool {
	return strings.Contains(text, "@") || strings.Contains(strings.ToLower(text), "plcheck")
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func (l *lexer) operator() (token, error) {
	two := ""
	if l.cur+1 < len(l.src) {
		two = l.src[l.cur : l.cur+2]
	}
	tok := token{Line: l.line}
	switch two {
	case ":=":
		tok.Kind = tokAssign
	case "=>":
		tok.Kind = tokOutput
	case "..":
		tok.Kind = tokRange
	case "<>":
		tok.Kind = tokNeq
	case "<=":
		tok.Kind = tokLe
	case ">=":
		tok.Kind = tokGe
	case "**":
		tok.Kind = tokPower
	}
	if tok.Kind != tokEOF {
		tok.Text = two
		l.cur += 2
		return tok, nil
	}
	switch c := l.src[l.cur]; c {
	case ':':
		tok.Kind = tokColon
	case ';':
		tok.Kind = tokSemicolon
	case ',':
		tok.Kind = tokComma
	case '(':
		tok.Kind = tokLParen
	case ')':
		tok.Kind = tokRParen
	case '[':
		tok.Kind = tokLBracket
	case ']':
		tok.Kind = tokRBracket
	case '+':
		tok.Kind = tokPlus
	case '-':
		tok.Kind = tokMinus
	case '*':
		tok.Kind = tokStar
	case '/':
		tok.Kind = tokSlash
	case '=':
		tok.Kind = tokEq
	case '<':
		tok.Kind = tokLt
	case '>':
		tok.Kind = tokGt
	case '&':
		tok.Kind = tokAmp
	default:
		return token{}, l.errorf("unexpected character %q", c)
	}
	tok.Text = l.src[l.cur : l.cur+1]
	l.cur++
	return tok, nil
}

// stringLiteral scans 'text'. $' and $$ are the escaped quote and dollar.
func (l *lexer) stringLiteral() (token, error) {
	line := l.line
	var b strings.Builder
	for i := l.cur + 1; i < len(l.src); i++ {
		switch c := l.src[i]; c {
		case '\'':
			l.cur = i + 1
			return token{Kind: tokString, Text: b.String(), Line: line}, nil
		case '$':
			if i+1 < len(l.src) {
				i++
				b.WriteByte(l.src[i])
			}
		case '\n':
			return token{}, l.errorf("unterminated string")
		default:
			b.WriteByte(c)
		}
	}
	return token{}, l.errorf("unterminated string")
}

// quotedIdent scans "Name" and the dotted path that may follow it ("DB".Field), without the quotes.
func (l *lexer) quotedIdent() (token, error) {
	line := l.line
	var b strings.Builder
	for {
		end := strings.IndexByte(l.src[l.cur+1:], '"')
		if end < 0 || strings.Contains(l.src[l.cur+1:l.cur+1+end], "\n") {
			return token{}, l.errorf("unterminated quoted identifier")
		}
		b.WriteString(l.src[l.cur+1 : l.cur+1+end])
		l.cur += end + 2
		if l.peekByte(0) != '.' || l.peekByte(1) == '.' {
			break
		}
		b.WriteByte('.')
		l.cur++
		if l.peekByte(0) == '"' {
			continue
		}
		b.WriteString(l.dottedName())
		break
	}
	return token{Kind: tokIdent, Text: b.String(), Line: line}, nil
}

// dottedName scans Name(.Name)* where segments may be quoted or start with a digit (Struct.Field, "DB".x.1)
func (l *lexer) dottedName() string {
	start := l.cur
	for l.cur < len(l.src) {
		c := l.src[l.cur]
		switch {
		case isIdentPart(c):
			l.cur++
		case c == '.' && l.peekByte(1) != '.' && (isIdentPart(l.peekByte(1)) || l.peekByte(1) == '"'):
			l.cur++
		default:
			return strings.ReplaceAll(l.src[start:l.cur], `"`, "")
		}
	}
	return strings.ReplaceAll(l.src[start:l.cur], `"`, "")
}

// address scans a direct address such as %MW100, %I0.1 or %DB1.DBX2.0
func (l *lexer) address() token {
	line := l.line
	start := l.cur
	l.cur++
	for l.cur < len(l.src) {
		c := l.src[l.cur]
		if isIdentPart(c) || (c == '.' && isIdentPart(l.peekByte(1))) {
			l.cur++
			continue
		}
		break
	}
	return token{Kind: tokIdent, Text: l.src[start:l.cur], Line: line}
}

// typePrefixes are the type names that may prefix a literal with '#'
var typePrefixes = map[string]bool{
	"BOOL": true, "BYTE": true, "WORD": true, "DWORD": true, "LWORD": true,
	"SINT": true, "INT": true, "DINT": true, "LINT": true,
	"USINT": true, "UINT": true, "UDINT": true, "ULINT": true,
	"REAL": true, "LREAL": true, "CHAR": true,
}

var timePrefixes = map[string]bool{"T": true, "TIME": true, "LT": true, "LTIME": true, "S5T": true, "S5TIME": true}

func (l *lexer) identOrTyped() (token, error) {
	line := l.line
	name := l.dottedName()
	u := strings.ToUpper(name)
	if l.peekByte(0) != '#' {
		return token{Kind: tokIdent, Text: name, Line: line}, nil
	}
	switch {
	case timePrefixes[u]:
		l.cur++
		return l.duration(line)
	case u == "BOOL":
		l.cur++
		v := l.dottedName()
		switch strings.ToUpper(v) {
		case "TRUE", "1":
			return token{Kind: tokIdent, Text: "TRUE", Line: line}, nil
		case "FALSE", "0":
			return token{Kind: tokIdent, Text: "FALSE", Line: line}, nil
		}
		return token{}, l.errorf("malformed boolean literal BOOL#%s", v)
	case typePrefixes[u]:
		l.cur++
		neg := false
		if l.peekByte(0) == '-' {
			neg = true
			l.cur++
		}
		if !isDigit(l.peekByte(0)) {
			return token{}, l.errorf("malformed typed literal %s#", name)
		}
		t, err := l.number(line, name+"#")
		if neg {
			t.Value = -t.Value
		}
		return t, err
	}
	// Enumeration values (State#Idle) are names
	l.cur++
	rest := l.dottedName()
	return token{Kind: tokIdent, Text: name + "#" + rest, Line: line}, nil
}

// number scans a decimal, based (16#FF, 2#1010) or real literal. Reals are truncated toward zero.
func (l *lexer) number(line int, prefix string) (token, error) {
	start := l.cur
	for l.cur < len(l.src) && (isDigit(l.src[l.cur]) || l.src[l.cur] == '_') {
		l.cur++
	}
	digits := strings.ReplaceAll(l.src[start:l.cur], "_", "")
	if l.peekByte(0) == '#' {
		base, err := strconv.Atoi(digits)
		if err != nil || (base != 2 && base != 8 && base != 16) {
			return token{}, l.errorf("unsupported number base %s", digits)
		}
		l.cur++
		ds := l.cur
		for l.cur < len(l.src) && (isHexDigit(l.src[l.cur]) || l.src[l.cur] == '_') {
			l.cur++
		}
		v, err := strconv.ParseUint(strings.ReplaceAll(l.src[ds:l.cur], "_", ""), base, 64)
		if err != nil {
			return token{}, l.errorf("malformed number %s", l.src[start:l.cur])
		}
		return token{Kind: tokNumber, Text: prefix + l.src[start:l.cur], Value: int64(v), Line: line}, nil
	}
	real := false
	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		real = true
		l.cur++
		for l.cur < len(l.src) && (isDigit(l.src[l.cur]) || l.src[l.cur] == '_') {
			l.cur++
		}
	}
	if c := l.peekByte(0); (c == 'e' || c == 'E') &&
		(isDigit(l.peekByte(1)) || ((l.peekByte(1) == '-' || l.peekByte(1) == '+') && isDigit(l.peekByte(2)))) {
		real = true
		l.cur += 2
		for l.cur < len(l.src) && isDigit(l.src[l.cur]) {
			l.cur++
		}
	}
	text := strings.ReplaceAll(l.src[start:l.cur], "_", "")
	if real {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsInf(f, 0) {
			return token{}, l.errorf("malformed number %s", text)
		}
		return token{Kind: tokNumber, Text: prefix + text, Value: int64(f), Line: line}, nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return token{}, l.errorf("malformed number %s", text)
	}
	return token{Kind: tokNumber, Text: prefix + text, Value: v, Line: line}, nil
}

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// durationUnits are the time literal units in milliseconds, longest first so that ms is not read as m
var durationUnits = []struct {
	unit string
	ms   float64
}{
	{"MS", 1},
	{"US", 0.001},
	{"NS", 0.000001},
	{"D", 86400000},
	{"H", 3600000},
	{"M", 60000},
	{"S", 1000},
}

// duration scans the value of a time literal (after T#) and returns it in milliseconds: 5s, 1h_30m, 2.5s, 500ms
func (l *lexer) duration(line int) (token, error) {
	start := l.cur
	if l.peekByte(0) == '-' {
		l.cur++
	}
	for l.cur < len(l.src) && (isIdentPart(l.src[l.cur]) || l.src[l.cur] == '.') {
		l.cur++
	}
	text := l.src[start:l.cur]
	rest := strings.ToUpper(strings.ReplaceAll(text, "_", ""))
	neg := strings.HasPrefix(rest, "-")
	rest = strings.TrimPrefix(rest, "-")
	if rest == "" {
		return token{}, l.errorf("malformed time literal T#%s", text)
	}
	total := 0.0
	for rest != "" {
		i := 0
		for i < len(rest) && (isDigit(rest[i]) || rest[i] == '.') {
			i++
		}
		if i == 0 {
			return token{}, l.errorf("malformed time literal T#%s", text)
		}
		n, err := strconv.ParseFloat(rest[:i], 64)
		if err != nil {
			return token{}, l.errorf("malformed time literal T#%s", text)
		}
		rest = rest[i:]
		matched := false
		for _, u := range durationUnits {
			if strings.HasPrefix(rest, u.unit) {
				total += n * u.ms
				rest = rest[len(u.unit):]
				matched = true
				break
			}
		}
		if !matched {
			return token{}, l.errorf("malformed time literal T#%s", text)
		}
	}
	if neg {
		total = -total
	}
	return token{Kind: tokNumber, Text: "T#" + text, Value: int64(total), Line: line}, nil
}
