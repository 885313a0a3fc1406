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

// Package policy contains the site policy read alongside a control program: pairs of mutually exclusive
// outputs, access rights of memory regions and the target platform.
//
// The wire format is strict JSON:
//
//	{
//	  "pairs": [["Motor_Fwd", "Motor_Rev"]],
//	  "memory_areas": [{"address": "%MW100-%MW200", "access": "ReadOnly"}],
//	  "platform": "S7-1500"
//	}
//
// Unknown fields are rejected. Absent fields mean "no constraint".
package policy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy is the validated site policy. The zero value constrains nothing.
type Policy struct {
	// Pairs lists outputs that must never be active together
	Pairs [][2]string

	// MemoryAreas lists address ranges with their access rights, in declaration order
	MemoryAreas []MemoryArea

	// Platform is informative only
	Platform string
}

// MemoryArea is a range of direct addresses and the access allowed to it.
type MemoryArea struct {
	Address string
	Access  Access
	Range   Range
}

// Access is the access right of a memory area.
type Access int

const (
	// ReadWrite areas can be read and written
	ReadWrite Access = iota
	// ReadOnly areas must not be written by the program
	ReadOnly
)

func (a Access) String() string {
	if a == ReadOnly {
		return "ReadOnly"
	}
	return "ReadWrite"
}

// ParseAccess reads an access right. Only ReadOnly and ReadWrite are accepted.
func ParseAccess(s string) (Access, error) {
	switch s {
	case "ReadOnly":
		return ReadOnly, nil
	case "ReadWrite":
		return ReadWrite, nil
	}
	return ReadWrite, fmt.Errorf("unknown access %q (expected ReadOnly or ReadWrite)", s)
}

// Error is returned when a policy cannot be read or validated.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wirePolicy is the decoded form of the policy before validation
type wirePolicy struct {
	Pairs       [][]string   `json:"pairs" yaml:"pairs"`
	MemoryAreas []wireMemory `json:"memory_areas" yaml:"memory_areas"`
	Platform    string       `json:"platform" yaml:"platform"`
}

type wireMemory struct {
	Address string `json:"address" yaml:"address"`
	Access  string `json:"access" yaml:"access"`
}

// Parse decodes and validates a JSON policy. Blank text is the empty policy.
func Parse(text string) (Policy, error) {
	if strings.TrimSpace(text) == "" {
		return Policy{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	var w wirePolicy
	if err := dec.Decode(&w); err != nil {
		return Policy{}, &Error{Err: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Policy{}, &Error{Err: fmt.Errorf("unexpected data after the policy object")}
	}
	return w.validate()
}

// ParseYAML decodes and validates a policy written in yaml, with the same fields as the JSON form.
func ParseYAML(b []byte) (Policy, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	var w wirePolicy
	if err := dec.Decode(&w); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, &Error{Err: err}
	}
	return w.validate()
}

// Load reads the policy file at path. Files ending in .yaml or .yml are read as yaml, everything else as JSON.
func Load(path string) (Policy, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("could not read policy file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(b)
	default:
		return Parse(string(b))
	}
}

func (w wirePolicy) validate() (Policy, error) {
	p := Policy{Platform: w.Platform}
	for i, pair := range w.Pairs {
		if len(pair) != 2 {
			return Policy{}, &Error{Err: fmt.Errorf("pairs[%d]: expected 2 names, got %d", i, len(pair))}
		}
		if strings.TrimSpace(pair[0]) == "" || strings.TrimSpace(pair[1]) == "" {
			return Policy{}, &Error{Err: fmt.Errorf("pairs[%d]: empty name", i)}
		}
		p.Pairs = append(p.Pairs, [2]string{pair[0], pair[1]})
	}
	for i, m := range w.MemoryAreas {
		access, err := ParseAccess(m.Access)
		if err != nil {
			return Policy{}, &Error{Err: fmt.Errorf("memory_areas[%d]: %w", i, err)}
		}
		r, err := ParseRange(m.Address)
		if err != nil {
			return Policy{}, &Error{Err: fmt.Errorf("memory_areas[%d]: %w", i, err)}
		}
		p.MemoryAreas = append(p.MemoryAreas, MemoryArea{Address: m.Address, Access: access, Range: r})
	}
	return p, nil
}

// AccessAt returns the access right of the first memory area containing addr, and false if no area does.
func (p Policy) AccessAt(addr Address) (MemoryArea, bool) {
	for _, m := range p.MemoryAreas {
		if m.Range.Contains(addr) {
			return m, true
		}
	}
	return MemoryArea{}, false
}

// ReadOnlyAreaAt returns a ReadOnly memory area containing addr, and false if none does. Areas may overlap: a
// read-only range declared inside a read-write one still protects its addresses.
func (p Policy) ReadOnlyAreaAt(addr Address) (MemoryArea, bool) {
	for _, m := range p.MemoryAreas {
		if m.Access == ReadOnly && m.Range.Contains(addr) {
			return m, true
		}
	}
	return MemoryArea{}, false
}
