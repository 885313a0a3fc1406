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
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Address is a direct memory address such as %MW150: an area (%MW) and an offset (150).
type Address struct {
	Area   string
	Offset int64
}

func (a Address) String() string {
	return a.Area + strconv.FormatInt(a.Offset, 10)
}

// addressRegex matches the area letters and the first number of a direct address, e.g. %MW150 or %DB1.DBX2.0
var addressRegex = regexp.MustCompile(`^%([A-Za-z]+)(\d+)`)

// ParseAddress extracts the address written in s. The area is upper-cased.
func ParseAddress(s string) (Address, bool) {
	m := addressRegex.FindStringSubmatch(strings.TrimSpace(s))
	if len(m) < 3 {
		return Address{}, false
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Address{}, false
	}
	return Address{Area: "%" + strings.ToUpper(m[1]), Offset: n}, true
}

// Range is an inclusive range of offsets in one area.
type Range struct {
	Area  string
	Start int64
	End   int64
}

// ParseRange reads "%MW100-%MW200" or a single address "%MW100". Both ends must be in the same area and in
// increasing order.
func ParseRange(s string) (Range, error) {
	parts := strings.Split(s, "-")
	if len(parts) > 2 {
		return Range{}, fmt.Errorf("malformed address range %q", s)
	}
	start, ok := ParseAddress(parts[0])
	if !ok {
		return Range{}, fmt.Errorf("malformed address %q", parts[0])
	}
	end := start
	if len(parts) == 2 {
		end, ok = ParseAddress(parts[1])
		if !ok {
			return Range{}, fmt.Errorf("malformed address %q", parts[1])
		}
	}
	if start.Area != end.Area {
		return Range{}, fmt.Errorf("address range %q spans areas %s and %s", s, start.Area, end.Area)
	}
	if start.Offset > end.Offset {
		return Range{}, fmt.Errorf("address range %q is reversed", s)
	}
	return Range{Area: start.Area, Start: start.Offset, End: end.Offset}, nil
}

// Contains returns true if addr is in the same area and within the bounds of r.
func (r Range) Contains(addr Address) bool {
	return r.Area == addr.Area && r.Start <= addr.Offset && addr.Offset <= r.End
}
