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

package tools

import "regexp"

// Captures the kind of error that happens when you put a flag at the end instead of the files
var flagAsFile = regexp.MustCompile(`could not read source file: open -(\w)`)

// Captures the errors of source files that do not exist
var missingSource = regexp.MustCompile(`could not read source file: .*no such file or directory`)

// Captures unknown -dialect values
var unknownDialect = regexp.MustCompile("unsupported dialect")

// Captures misspelled config file options
var unknownConfigField = regexp.MustCompile(`field \S+ not found in type config\.`)

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	if flagAsFile.MatchString(errMsg) {
		return "all command line flags should be before the paths to the files to check"
	}
	if missingSource.MatchString(errMsg) {
		return "make sure the paths to the SCL or IL files are relative to the current directory"
	}
	if unknownDialect.MatchString(errMsg) {
		return "the dialects are scl (or st), il (or awl) and auto"
	}
	if unknownConfigField.MatchString(errMsg) {
		return "check the spelling of the config file options; unknown options are rejected"
	}
	return ""
}
