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

package annotations_test

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/awslabs/ar-plc-tools/analysis/annotations"
	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/lang"
)

const source = `FUNCTION_BLOCK FB_Motor
// @PlausibilityCheck speed is bounded by the drive
Motor_Speed := HMI_Speed;
(* multi-line block
   with @validation inside *)
x := 1;
y := 'not // a comment';
z := 2; // plcheck:ignore 8, 11
w := 3; (* plcheck:ignore *)
END_FUNCTION_BLOCK`

func TestFromSource(t *testing.T) {
	idx := annotations.FromSource(nil, source, nil)
	if got, want := idx.MarkedLines(), []int{2, 5}; !reflect.DeepEqual(got, want) {
		t.Errorf("marked lines = %v, want %v", got, want)
	}
	if !idx.HasAnnotationAbove(3, 3) {
		t.Errorf("line 3 should have an annotation above")
	}
	if idx.HasAnnotationAbove(2, 3) {
		t.Errorf("an annotation on the same line is not above")
	}
	if !idx.HasAnnotationAbove(6, 1) {
		t.Errorf("line 6 should see the block comment ending on line 5")
	}
	if idx.HasAnnotationAbove(9, 3) {
		t.Errorf("line 9 is more than 3 lines below the last marker")
	}
}

func TestHasAnnotationAboveEdgeCases(t *testing.T) {
	idx := annotations.FromSource(nil, "// @Validation\nx := 1;", nil)
	if idx.HasAnnotationAbove(0, 3) {
		t.Errorf("line 0 never has an annotation above")
	}
	if idx.HasAnnotationAbove(2, 0) {
		t.Errorf("a zero gap never finds an annotation")
	}
	var none *annotations.Index
	if none.HasAnnotationAbove(2, 3) {
		t.Errorf("a nil index has no annotations")
	}
}

func TestIsIgnored(t *testing.T) {
	idx := annotations.FromSource(nil, source, nil)
	if !idx.IsIgnored(8, 8) || !idx.IsIgnored(8, 11) {
		t.Errorf("line 8 should suppress rules 8 and 11")
	}
	if idx.IsIgnored(8, 4) {
		t.Errorf("line 8 should not suppress rule 4")
	}
	if !idx.IsIgnored(9, 4) {
		t.Errorf("line 9 suppresses every rule and line 8 rules are also checked from the line below")
	}
	if !idx.IsIgnored(10, 1) {
		t.Errorf("a suppression also applies to the line below it")
	}
	if idx.IsIgnored(3, 8) {
		t.Errorf("line 3 has no suppression")
	}
}

func TestMalformedIgnoreTagWarns(t *testing.T) {
	cfg := config.NewDefault()
	logger := config.NewLogGroup(cfg)
	var buf bytes.Buffer
	logger.SetAllOutput(&buf)
	idx := annotations.FromSource(logger, "x := 1; // plcheck:ignore rule8", nil)
	if idx.IsIgnored(1, 8) {
		t.Errorf("malformed tags must not suppress anything")
	}
	if !strings.Contains(buf.String(), "malformed suppression tag") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestFromProgram(t *testing.T) {
	p := &lang.Program{Functions: []*lang.Function{{
		Name: "IL_Program",
		Kind: lang.Prog,
		Body: []lang.Statement{
			&lang.Comment{Text: "// @PlausibilityCheck", Line: 4},
			&lang.If{Cond: &lang.VariableRef{Name: "c"}, Then: []lang.Statement{
				&lang.Comment{Text: "(* @Validation *)", Line: 7},
			}},
		},
	}}}
	idx := annotations.FromProgram(nil, p, nil)
	if got, want := idx.MarkedLines(), []int{4, 7}; !reflect.DeepEqual(got, want) {
		t.Errorf("marked lines = %v, want %v", got, want)
	}
}

func TestCustomMarkers(t *testing.T) {
	idx := annotations.FromSource(nil, "// @RangeChecked\nx := 1;", []string{"@RangeChecked"})
	if !idx.HasAnnotationAbove(2, 3) {
		t.Errorf("custom marker should be recognized")
	}
	idx = annotations.FromSource(nil, "// @PlausibilityCheck\nx := 1;", []string{"@RangeChecked"})
	if idx.HasAnnotationAbove(2, 3) {
		t.Errorf("default markers are replaced by custom markers")
	}
}
