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

package callgraph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awslabs/ar-plc-tools/internal/formatutil"
)

const plant = `ORGANIZATION_BLOCK "Main_OB1"
  Conveyor(Speed := Scale(Setpoint));
  IF Check_Limits(Level) THEN
    Alarm := TRUE;
  END_IF;
END_ORGANIZATION_BLOCK

FUNCTION_BLOCK Conveyor
  Timer1(IN := Run, PT := T#2s);
  Motor := Scale(Speed);
END_FUNCTION_BLOCK

FUNCTION Scale : INT
  Scale := x * 2;
END_FUNCTION

FUNCTION Check_Limits : BOOL
  Check_Limits := Retry(x);
END_FUNCTION

FUNCTION Retry : BOOL
  Retry := check_limits(x - 1);
END_FUNCTION

FUNCTION Legacy_Calibration : VOID
  Legacy_Calibration(x := 1);
END_FUNCTION
`

func runCallgraph(t *testing.T, args ...string) (string, error) {
	t.Helper()
	formatutil.SetColors(false)
	dir := t.TempDir()
	src := filepath.Join(dir, "plant.scl")
	if err := os.WriteFile(src, []byte(plant), 0o600); err != nil {
		t.Fatal(err)
	}
	flags, err := NewFlags(append(args, src))
	if err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	var stdout, stderr bytes.Buffer
	err = Run(flags, &stdout, &stderr)
	return stdout.String(), err
}

func TestCallgraph(t *testing.T) {
	out, err := runCallgraph(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"  Main_OB1\n    Conveyor\n      Scale\n    Scale\n    Check_Limits\n      Retry\n        Check_Limits\n",
		"Unreachable routines (1)",
		"  Legacy_Calibration\n",
		"  Check_Limits -> Retry -> Check_Limits\n",
		"  Legacy_Calibration -> Legacy_Calibration\n",
		"  Conveyor: Timer1\n",
		"6 routines,",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in the output:\n%s", want, out)
		}
	}
}

func TestCallgraphRoot(t *testing.T) {
	out, err := runCallgraph(t, "-root", "check_limits")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "  Check_Limits\n    Retry\n      Check_Limits\n") {
		t.Errorf("unexpected call tree:\n%s", out)
	}
	if strings.Contains(out, "Unreachable") {
		t.Errorf("-root prints the call tree only:\n%s", out)
	}

	if _, err := runCallgraph(t, "-root", "Nowhere"); err == nil {
		t.Errorf("expected an error for an unknown root")
	}
}

func TestCallgraphFlags(t *testing.T) {
	if _, err := NewFlags([]string{"a.scl", "b.scl"}); err == nil {
		t.Errorf("expected an error for two files")
	}
}
