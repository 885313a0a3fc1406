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

package policy

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	p, err := Parse(`{
		"pairs": [["Motor_Fwd", "Motor_Rev"]],
		"memory_areas": [
			{"address": "%MW100-%MW200", "access": "ReadOnly"},
			{"address": "%MW300", "access": "ReadWrite"}
		],
		"platform": "S7-1500"
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(p.Pairs, [][2]string{{"Motor_Fwd", "Motor_Rev"}}) {
		t.Errorf("pairs = %v", p.Pairs)
	}
	if len(p.MemoryAreas) != 2 || p.MemoryAreas[0].Access != ReadOnly || p.MemoryAreas[1].Access != ReadWrite {
		t.Fatalf("memory areas = %+v", p.MemoryAreas)
	}
	if want := (Range{Area: "%MW", Start: 100, End: 200}); p.MemoryAreas[0].Range != want {
		t.Errorf("range = %+v, want %+v", p.MemoryAreas[0].Range, want)
	}
	if p.Platform != "S7-1500" {
		t.Errorf("platform = %q", p.Platform)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, text := range []string{"", "  \n", "{}"} {
		p, err := Parse(text)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", text, err)
		}
		if len(p.Pairs) != 0 || len(p.MemoryAreas) != 0 {
			t.Errorf("Parse(%q) should be the empty policy", text)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"unknown field":    `{"pairs": [], "extra": 1}`,
		"malformed json":   `{"pairs": [["a", "b"]`,
		"pair of three":    `{"pairs": [["a", "b", "c"]]}`,
		"pair of one":      `{"pairs": [["a"]]}`,
		"bad access":       `{"memory_areas": [{"address": "%MW1", "access": "WriteOnly"}]}`,
		"bad address":      `{"memory_areas": [{"address": "MW1", "access": "ReadOnly"}]}`,
		"mixed areas":      `{"memory_areas": [{"address": "%MW1-%MD4", "access": "ReadOnly"}]}`,
		"reversed range":   `{"memory_areas": [{"address": "%MW9-%MW4", "access": "ReadOnly"}]}`,
		"trailing garbage": `{} {}`,
		"wrong type":       `{"platform": 3}`,
	}
	for name, text := range tests {
		_, err := Parse(text)
		var perr *Error
		if !errors.As(err, &perr) {
			t.Errorf("%s: expected a policy error, got %v", name, err)
		}
	}
}

func TestRangeContains(t *testing.T) {
	r, err := ParseRange("%mw100-%MW200")
	if err != nil {
		t.Fatal(err)
	}
	tests := map[string]bool{
		"%MW100":      true,
		"%MW150":      true,
		"%MW200":      true,
		"%MW201":      false,
		"%MW99":       false,
		"%MD150":      false,
		"%M150":       false,
		"%mw150":      true,
		"%DB1.DBX2.0": false,
	}
	for s, want := range tests {
		addr, ok := ParseAddress(s)
		if !ok {
			t.Errorf("ParseAddress(%q) failed", s)
			continue
		}
		if got := r.Contains(addr); got != want {
			t.Errorf("Contains(%s) = %v, want %v", s, got, want)
		}
	}
	if _, ok := ParseAddress("Motor_Speed"); ok {
		t.Errorf("a variable name is not an address")
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	content := "pairs:\n  - [Valve_Open, Valve_Close]\nmemory_areas:\n  - address: \"%MW10-%MW20\"\n    access: ReadOnly\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Pairs) != 1 || p.Pairs[0][1] != "Valve_Close" {
		t.Errorf("pairs = %v", p.Pairs)
	}
	m, ok := p.AccessAt(Address{Area: "%MW", Offset: 15})
	if !ok || m.Access != ReadOnly {
		t.Errorf("%%MW15 should be read-only, got %+v %v", m, ok)
	}
}

func TestReadOnlyAreaAt(t *testing.T) {
	p, err := Parse(`{"memory_areas": [` +
		`{"address": "%MW0-%MW500", "access": "ReadWrite"}, {"address": "%MW100-%MW200", "access": "ReadOnly"}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m, ok := p.AccessAt(Address{Area: "%MW", Offset: 150}); !ok || m.Access != ReadWrite {
		t.Errorf("AccessAt should return the first area, got %+v %v", m, ok)
	}
	m, ok := p.ReadOnlyAreaAt(Address{Area: "%MW", Offset: 150})
	if !ok || m.Access != ReadOnly {
		t.Errorf("%%MW150 is in a read-only area, got %+v %v", m, ok)
	}
	for _, off := range []int64{50, 300} {
		if _, ok := p.ReadOnlyAreaAt(Address{Area: "%MW", Offset: off}); ok {
			t.Errorf("%%MW%d is only in a read-write area", off)
		}
	}
	if _, ok := p.ReadOnlyAreaAt(Address{Area: "%MD", Offset: 150}); ok {
		t.Errorf("%%MD150 is in no area")
	}
}
