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
	"strings"

	"github.com/awslabs/ar-plc-tools/analysis/lang"
)

// Naming conventions. Every name comparison is on the upper-cased name.
var (
	untrustedKeywords = []string{"HMI", "RECIPE", "PARAM", "SETPOINT"}
	actuatorKeywords  = []string{"MOTOR", "SPEED", "SETPOINT", "POSITION", "CMD", "COMMAND", "OUTPUT"}
	criticalKeywords  = []string{"CRITICAL", "SAFE", "MOTOR", "OUTPUT"}
	diagnosticTargets = []string{"ALARM", "DIAG", "FAULT"}
	diagnosticCalls   = []string{"ALARM", "DIAG", "FAULT", "LOG"}
	reportTargets     = []string{"HMI", "DB", "LOG"}
)

// isUntrusted returns true for variables holding operator, HMI, recipe or parameter data
func (c *Context) isUntrusted(name string) bool {
	return lang.ContainsAny(name, untrustedKeywords...) || c.Config.IsExtraSource(name)
}

// isActuator returns true for variables that command a physical process
func (c *Context) isActuator(name string) bool {
	return lang.ContainsAny(name, actuatorKeywords...) || c.Config.IsExtraActuator(name)
}

func isCriticalOutput(name string) bool {
	return lang.ContainsAny(name, criticalKeywords...) || lang.HasSuffixAny(name, "_OUT")
}

// timerPresets maps the function block types of timers and counters to the position of their preset input
var timerPresets = []struct {
	kind   string
	preset string
	index  int
}{
	{"CTUD", "PV", 4},
	{"CTU", "PV", 2},
	{"CTD", "PV", 2},
	{"TON", "PT", 1},
	{"TOF", "PT", 1},
	{"TP", "PT", 1},
}

// timerPreset returns the preset input name and position of a call to a timer or counter. The instance or type
// name decides: Timer1.TON, TON_Delay, DelayTON, StartTP, or IEC_TIMER and IEC_COUNTER instances.
func timerPreset(call string) (name string, index int, ok bool) {
	seg := strings.ToUpper(call)
	if i := strings.LastIndexByte(seg, '.'); i >= 0 {
		seg = seg[i+1:]
	}
	for _, t := range timerPresets {
		if strings.HasSuffix(seg, t.kind) || strings.HasPrefix(seg, t.kind+"_") {
			return t.preset, t.index, true
		}
	}
	switch {
	case strings.Contains(seg, "TIMER"):
		return "PT", 1, true
	case strings.Contains(seg, "COUNTER"):
		return "PV", 2, true
	}
	return "", 0, false
}

// isTimerPresetTarget returns true for assignments to the preset of a timer, e.g. Timer1.PT or Timer_Preset
func isTimerPresetTarget(target string) bool {
	u := strings.ToUpper(target)
	if strings.HasSuffix(u, ".PT") || strings.HasSuffix(u, ".PV") {
		return true
	}
	return strings.Contains(u, "TIMER") && (strings.Contains(u, "PRESET") || strings.HasSuffix(u, "_PT"))
}

// isReportTarget returns true for variables that expose a value to operators or logs
func isReportTarget(name string, extra ...string) bool {
	return lang.ContainsAny(name, reportTargets...) || lang.ContainsAny(name, extra...)
}
