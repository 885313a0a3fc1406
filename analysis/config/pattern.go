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

package config

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// NamePattern identifies variables by name. The string is used as a case-insensitive regex if it compiles to
// one, otherwise as a case-insensitive substring.
type NamePattern struct {
	Text string
	// This will not be part of the yaml config
	computedRegex *regexp.Regexp
}

// NewNamePattern returns the pattern for text, with its regex compiled if possible.
func NewNamePattern(text string) NamePattern {
	return compileRegex(NamePattern{Text: text})
}

func compileRegex(p NamePattern) NamePattern {
	r, err := regexp.Compile("(?i)" + p.Text)
	if err != nil {
		return p
	}
	p.computedRegex = r
	return p
}

// UnmarshalYAML reads the pattern from a yaml scalar.
func (p *NamePattern) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	*p = NewNamePattern(s)
	return nil
}

// MarshalYAML writes the pattern as a yaml scalar.
func (p NamePattern) MarshalYAML() (interface{}, error) {
	return p.Text, nil
}

// Match returns true if name matches the pattern. An empty pattern matches nothing.
func (p NamePattern) Match(name string) bool {
	if p.Text == "" {
		return false
	}
	if p.computedRegex != nil {
		return p.computedRegex.MatchString(name)
	}
	return strings.Contains(strings.ToUpper(name), strings.ToUpper(p.Text))
}

func (p NamePattern) String() string {
	return p.Text
}
