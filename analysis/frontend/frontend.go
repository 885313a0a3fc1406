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

// Package frontend turns control logic source text into a [lang.Program].
//
// Two dialects are supported: Structured Control Language (SCL, IEC 61131-3 Structured Text) and Instruction
// List (IL). Both front ends are deliberately small: they accept the subset of each dialect the analyses model
// and reject the rest (loops, backward jumps) with a [ParseError] rather than guessing.
package frontend

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/awslabs/ar-plc-tools/analysis/lang"
)

// Dialect is a source language.
type Dialect int

const (
	// Auto detects the dialect from the source text
	Auto Dialect = iota
	SCL
	IL
)

func (d Dialect) String() string {
	switch d {
	case SCL:
		return "scl"
	case IL:
		return "il"
	}
	return "auto"
}

// ErrUnsupportedDialect is returned for dialect names the front ends do not know.
var ErrUnsupportedDialect = errors.New("unsupported dialect")

// ParseDialect reads a dialect name (scl, st, il, awl, or auto). Names are case-insensitive.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Auto, nil
	case "scl", "st":
		return SCL, nil
	case "il", "awl":
		return IL, nil
	}
	return Auto, fmt.Errorf("%q: %w", name, ErrUnsupportedDialect)
}

// ParseError is a syntax error at a source line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line <= 0 {
		return e.Msg
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

var dialectExtensions = map[string]Dialect{
	".scl": SCL,
	".st":  SCL,
	".db":  SCL,
	".il":  IL,
	".awl": IL,
	".stl": IL,
}

// ilOpcodeRegex matches a line starting with an IL load, the first instruction of nearly every IL network
var ilOpcodeRegex = regexp.MustCompile(`(?im)^\s*(?:[A-Za-z_]\w*:\s*)?LDN?\s+\S+\s*(?:(?://|\(\*).*)?$`)

// sclStatementEndRegex matches a line ending with a semicolon, possibly followed by a comment
var sclStatementEndRegex = regexp.MustCompile(`(?m);[ \t]*(?://.*|\(\*.*\*\))?[ \t\r]*$`)

// DetectDialect returns the dialect of a file: by extension when it is known, otherwise from the text. Text
// with IL load instructions and no line ending with a semicolon is IL; everything else is SCL.
func DetectDialect(fileName string, src string) Dialect {
	if d, ok := dialectExtensions[strings.ToLower(filepath.Ext(fileName))]; ok {
		return d
	}
	if ilOpcodeRegex.MatchString(src) && !sclStatementEndRegex.MatchString(src) {
		return IL
	}
	return SCL
}

// Parse parses src in the given dialect. With Auto, the dialect is detected from the text alone.
// A syntax error is returned as a *ParseError.
func Parse(src string, dialect Dialect) (*lang.Program, error) {
	if dialect == Auto {
		dialect = DetectDialect("", src)
	}
	switch dialect {
	case SCL:
		return ParseSCL(src)
	case IL:
		return ParseIL(src)
	}
	return nil, fmt.Errorf("dialect %d: %w", dialect, ErrUnsupportedDialect)
}
