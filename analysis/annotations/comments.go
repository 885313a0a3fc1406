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

package annotations

import "strings"

// SourceComment is the text of a comment on one source line, without its delimiters. A block comment spanning
// several lines yields one SourceComment per line.
type SourceComment struct {
	Line int
	Text string
}

// ScanComments returns the comments of src in order. Lines are numbered from 1.
func ScanComments(src string) []SourceComment {
	var res []SourceComment
	closer := "" // closing delimiter of the block comment we are in, if any
	for i, line := range strings.Split(src, "\n") {
		lineNo := i + 1
		rest := strings.TrimRight(line, "\r")
		for rest != "" {
			if closer != "" {
				end := strings.Index(rest, closer)
				if end < 0 {
					res = append(res, SourceComment{Line: lineNo, Text: rest})
					rest = ""
					break
				}
				res = append(res, SourceComment{Line: lineNo, Text: rest[:end]})
				rest = rest[end+len(closer):]
				closer = ""
				continue
			}
			pos, opener := findOpener(rest)
			if pos < 0 {
				break
			}
			switch opener {
			case "//":
				res = append(res, SourceComment{Line: lineNo, Text: rest[pos+2:]})
				rest = ""
			case "(*":
				closer = "*)"
				rest = rest[pos+2:]
			case "/*":
				closer = "*/"
				rest = rest[pos+2:]
			}
		}
	}
	return res
}

// findOpener returns the position and text of the first comment opener in s that is not inside a single-quoted
// string, or -1.
func findOpener(s string) (int, string) {
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\'' {
			inString = !inString
			continue
		}
		if inString || i+1 >= len(s) {
			continue
		}
		switch s[i : i+2] {
		case "//", "(*", "/*":
			return i, s[i : i+2]
		}
	}
	return -1, ""
}
