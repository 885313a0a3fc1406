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


// Package analysistest loads the test fixtures of the analyses: txtar archives holding a source file, and
// optionally a policy and a config. The violations a fixture should produce are written in its source as
// comments on the offending line: `// @Violation(8)` or `(* @Violation(8, 10) *)`. Violations reported at line 0
// (missing routines) are written anywhere as `@Violation(18@0)`.
package analysistest

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/rules"
	"golang.org/x/tools/txtar"
)

// Fixture is one test case read from an archive
type Fixture struct {
	// Name is the name of the archive, without extension
	Name string
	// FileName is the name of the source file in the archive
	FileName string
	Source   string
	// Policy is the text of policy.json, empty if there is none
	Policy string
	// Config is the config.yaml of the archive, or the default config
	Config *config.Config
}

// sourceExtensions are the extensions of the source files in an archive
var sourceExtensions = map[string]bool{".scl": true, ".st": true, ".il": true, ".awl": true, ".txt": true}

// LoadFixture reads the txtar archive at name in fsys. The archive must contain exactly one source file.
func LoadFixture(fsys fs.FS, name string) (Fixture, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Fixture{}, fmt.Errorf("could not read fixture: %w", err)
	}
	ar := txtar.Parse(b)
	fx := Fixture{Name: strings.TrimSuffix(path.Base(name), path.Ext(name)), Config: config.NewDefault()}
	for _, f := range ar.Files {
		switch {
		case f.Name == "policy.json":
			fx.Policy = string(f.Data)
		case f.Name == "config.yaml":
			cfg, err := config.LoadFromBytes(f.Name, f.Data)
			if err != nil {
				return Fixture{}, fmt.Errorf("%s: %w", name, err)
			}
			fx.Config = cfg
		case sourceExtensions[strings.ToLower(path.Ext(f.Name))]:
			if fx.FileName != "" {
				return Fixture{}, fmt.Errorf("%s: more than one source file (%s and %s)", name, fx.FileName, f.Name)
			}
			fx.FileName = f.Name
			fx.Source = string(f.Data)
		default:
			return Fixture{}, fmt.Errorf("%s: unexpected file %s", name, f.Name)
		}
	}
	if fx.FileName == "" {
		return Fixture{}, fmt.Errorf("%s: no source file", name)
	}
	return fx, nil
}

// LoadFixtures reads all the archives matching pattern in fsys, in name order
func LoadFixtures(t *testing.T, fsys fs.FS, pattern string) []Fixture {
	t.Helper()
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		t.Fatalf("bad fixture pattern %q: %v", pattern, err)
	}
	if len(names) == 0 {
		t.Fatalf("no fixture matches %q", pattern)
	}
	sort.Strings(names)
	var fixtures []Fixture
	for _, name := range names {
		fx, err := LoadFixture(fsys, name)
		if err != nil {
			t.Fatalf("%v", err)
		}
		fixtures = append(fixtures, fx)
	}
	return fixtures
}

// RuleLine is a violation of rule Rule at line Line
type RuleLine struct {
	Rule int
	Line int
}

func (r RuleLine) String() string {
	return fmt.Sprintf("rule %d at line %d", r.Rule, r.Line)
}

// ViolationRegex matches annotations of the form "@Violation(8, 18@0)"
var ViolationRegex = regexp.MustCompile(`@Violation\(((?:\s*\d+(?:@\d+)?\s*,?)+)\)`)

// ExpectedViolations returns the violations announced by the @Violation annotations of src, with their count
func ExpectedViolations(src string) (map[RuleLine]int, error) {
	expected := map[RuleLine]int{}
	for i, line := range strings.Split(src, "\n") {
		for _, m := range ViolationRegex.FindAllStringSubmatch(line, -1) {
			for _, item := range strings.Split(m[1], ",") {
				item = strings.TrimSpace(item)
				if item == "" {
					continue
				}
				rl := RuleLine{Line: i + 1}
				ruleText, lineText, explicit := strings.Cut(item, "@")
				rule, err := strconv.Atoi(ruleText)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad rule number %q", i+1, ruleText)
				}
				rl.Rule = rule
				if explicit {
					if rl.Line, err = strconv.Atoi(lineText); err != nil {
						return nil, fmt.Errorf("line %d: bad line number %q", i+1, lineText)
					}
				}
				expected[rl]++
			}
		}
	}
	return expected, nil
}

// ActualViolations returns the violations of the outcomes, with their count. The sentinel outcomes (rule 0)
// are not violations of a rule and are left out.
func ActualViolations(outcomes []rules.Outcome) map[RuleLine]int {
	actual := map[RuleLine]int{}
	for _, o := range outcomes {
		if o.RuleNo == 0 {
			continue
		}
		for _, v := range o.Violations {
			actual[RuleLine{Rule: v.RuleNo, Line: v.Line}]++
		}
	}
	return actual
}

// CheckViolations reports an error for every violation that is expected but missing, or reported but not
// expected. It also fails on outcomes with an Error status, unless allowErrors is set.
func CheckViolations(t *testing.T, fx Fixture, outcomes []rules.Outcome, allowErrors bool) {
	t.Helper()
	expected, err := ExpectedViolations(fx.Source)
	if err != nil {
		t.Fatalf("%s: %v", fx.FileName, err)
	}
	actual := ActualViolations(outcomes)
	for _, rl := range sortedKeys(expected) {
		if actual[rl] < expected[rl] {
			t.Errorf("%s: missing %s", fx.FileName, rl)
		}
	}
	for _, rl := range sortedKeys(actual) {
		if actual[rl] > expected[rl] {
			t.Errorf("%s: unexpected %s: %s", fx.FileName, rl, reasonOf(outcomes, rl))
		}
	}
	if allowErrors {
		return
	}
	for _, o := range outcomes {
		if o.Status == rules.Error {
			t.Errorf("%s: rule %d (%s) failed: %s", fx.FileName, o.RuleNo, o.RuleName, o.Error)
		}
	}
}

func reasonOf(outcomes []rules.Outcome, rl RuleLine) string {
	for _, o := range outcomes {
		for _, v := range o.Violations {
			if v.RuleNo == rl.Rule && v.Line == rl.Line {
				return v.Reason
			}
		}
	}
	return ""
}

func sortedKeys(m map[RuleLine]int) []RuleLine {
	keys := make([]RuleLine, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Line != keys[j].Line {
			return keys[i].Line < keys[j].Line
		}
		return keys[i].Rule < keys[j].Rule
	})
	return keys
}
