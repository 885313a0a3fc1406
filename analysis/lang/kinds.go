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

package lang

import (
	"regexp"
	"strconv"
)

// FunctionKind classifies a routine. Organization blocks with a well-known role get their own kind.
type FunctionKind int

const (
	FC FunctionKind = iota
	FB
	Prog
	OB
	OB1
	OB100
	OB82
	OB86
	OB121
)

var kindNames = [...]string{
	FC:    "FC",
	FB:    "FB",
	Prog:  "PROGRAM",
	OB:    "OB",
	OB1:   "OB1",
	OB100: "OB100",
	OB82:  "OB82",
	OB86:  "OB86",
	OB121: "OB121",
}

func (k FunctionKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "?"
}

// IsOB returns true for every organization block kind.
func (k FunctionKind) IsOB() bool {
	return k >= OB
}

// IsCodeUnit returns true for the routines that hold user logic: FC, FB and PROGRAM.
func (k FunctionKind) IsCodeUnit() bool {
	return k == FC || k == FB || k == Prog
}

// obNumberRegex matches the declared organization block number in names like OB100, OB_82 or Startup_OB100.
var obNumberRegex = regexp.MustCompile(`(?i)(?:^|[^A-Z0-9])OB_?(\d+)`)

var obKinds = map[int]FunctionKind{
	1:   OB1,
	100: OB100,
	82:  OB82,
	86:  OB86,
	121: OB121,
}

// KindForOB returns the kind of an organization block named name. The number following "OB" decides; names
// without a recognized number are plain OB.
func KindForOB(name string) FunctionKind {
	m := obNumberRegex.FindStringSubmatch(name)
	if len(m) < 2 {
		return OB
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return OB
	}
	if k, ok := obKinds[n]; ok {
		return k
	}
	return OB
}
