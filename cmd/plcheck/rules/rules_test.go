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

package rules

import (
	"bytes"
	"strings"
	"testing"

	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/rules"
	"github.com/awslabs/ar-plc-tools/internal/formatutil"
)

func TestList(t *testing.T) {
	formatutil.SetColors(false)
	cfg := config.NewDefault()
	cfg.DisabledRules = []int{5}
	var b bytes.Buffer
	if err := List(&b, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	if len(lines) != len(rules.Catalog()) {
		t.Fatalf("expected one line per rule, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "1 ") || !strings.Contains(lines[0], "Modularize PLC Code") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[2], "(disabled)") || strings.Contains(lines[1], "(disabled)") {
		t.Errorf("expected only rule 5 to be disabled:\n%s", b.String())
	}
}
