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

// Package annotations indexes the comments of a control logic source file that carry meaning for the analyses:
// validation markers (e.g. "// @PlausibilityCheck") and positional suppressions ("// plcheck:ignore 8").
package annotations

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/lang"
	"github.com/awslabs/ar-plc-tools/internal/funcutil"
	"golang.org/x/exp/slices"
)

// DefaultMarkers are the validation markers recognized when the configuration does not set any.
var DefaultMarkers = []string{"@PlausibilityCheck", "@Validation"}

// AnyTag is the ignore tag that suppresses every rule.
const AnyTag = "_"

const ignorePrefix = "plcheck:ignore"

// ignoreRegex matches a suppression of the form plcheck:ignore 4, 8 or plcheck:ignore _
var ignoreRegex = regexp.MustCompile(`(?i)plcheck:ignore[ \t]*([^\s,]+(?:[ \t]*,[ \t]*[^\s,]+)*)?`)

// Index records, per line, the validation markers and suppressions found in comments. It is built once per
// file and only read afterwards. A nil *Index has no annotations.
type Index struct {
	markers []string

	// marked is the set of lines carrying a validation marker
	marked map[int]bool

	// ignored maps lines to the rule tags suppressed from that line
	ignored map[int][]string
}

// NewIndex returns an empty index recognizing the given markers, or DefaultMarkers if markers is empty.
func NewIndex(markers []string) *Index {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	return &Index{
		markers: funcutil.Map(markers, strings.ToUpper),
		marked:  map[int]bool{},
		ignored: map[int][]string{},
	}
}

// FromSource builds the index of the comments in src. Line comments (//) and block comments ((* *) and /* */)
// are recognized, including block comments spanning several lines. Text inside single-quoted strings is not
// a comment.
func FromSource(logger *config.LogGroup, src string, markers []string) *Index {
	idx := NewIndex(markers)
	for _, c := range ScanComments(src) {
		idx.AddComment(logger, c.Line, c.Text)
	}
	return idx
}

// FromProgram builds the index from the Comment statements retained in the program.
func FromProgram(logger *config.LogGroup, p *lang.Program, markers []string) *Index {
	idx := NewIndex(markers)
	idx.AddProgram(logger, p)
	return idx
}

// AddProgram adds the Comment statements of p to the index.
func (idx *Index) AddProgram(logger *config.LogGroup, p *lang.Program) {
	if p == nil {
		return
	}
	for _, f := range p.Functions {
		_ = lang.WalkStatements(f.Body, 0, func(s lang.Statement, _ int) error {
			if c, ok := s.(*lang.Comment); ok {
				idx.AddComment(logger, c.Line, c.Text)
			}
			return nil
		})
	}
}

// AddComment records the annotations found in one comment on the given line.
func (idx *Index) AddComment(logger *config.LogGroup, line int, text string) {
	upper := strings.ToUpper(text)
	for _, m := range idx.markers {
		if strings.Contains(upper, m) {
			idx.marked[line] = true
			break
		}
	}
	if !strings.Contains(upper, strings.ToUpper(ignorePrefix)) {
		return
	}
	tags := parseIgnoreTags(text)
	for _, tag := range tags {
		if tag != AnyTag {
			if _, err := strconv.Atoi(tag); err != nil {
				if logger != nil {
					logger.Warnf("line %d: ignoring malformed suppression tag %q (expected a rule number or _)",
						line, tag)
				}
				continue
			}
		}
		idx.ignored[line] = append(idx.ignored[line], tag)
	}
}

func parseIgnoreTags(text string) []string {
	m := ignoreRegex.FindStringSubmatch(text)
	if len(m) < 2 || strings.TrimSpace(m[1]) == "" {
		return []string{AnyTag}
	}
	var tags []string
	for _, t := range strings.Split(m[1], ",") {
		tags = append(tags, strings.TrimSpace(t))
	}
	return tags
}

// HasAnnotationAbove returns true if a validation marker sits on one of the maxGap lines strictly above line,
// i.e. on a line l with line-maxGap <= l < line.
func (idx *Index) HasAnnotationAbove(line int, maxGap int) bool {
	if idx == nil || line <= 0 || maxGap <= 0 {
		return false
	}
	for l := line - maxGap; l < line; l++ {
		if idx.marked[l] {
			return true
		}
	}
	return false
}

// IsIgnored returns true when a violation of rule reported on line is suppressed by a plcheck:ignore comment on
// the same line or on the line directly above.
func (idx *Index) IsIgnored(line int, rule int) bool {
	if idx == nil {
		return false
	}
	tag := strconv.Itoa(rule)
	for _, l := range []int{line, line - 1} {
		tags := idx.ignored[l]
		if slices.Contains(tags, AnyTag) || slices.Contains(tags, tag) {
			return true
		}
	}
	return false
}

// MarkedLines returns the lines carrying a validation marker, in increasing order.
func (idx *Index) MarkedLines() []int {
	if idx == nil {
		return nil
	}
	return funcutil.SetToOrderedSlice(idx.marked)
}

// Count returns the number of annotated lines (markers and suppressions).
func (idx *Index) Count() int {
	if idx == nil {
		return 0
	}
	c := len(idx.marked)
	for l := range idx.ignored {
		if !idx.marked[l] {
			c++
		}
	}
	return c
}
