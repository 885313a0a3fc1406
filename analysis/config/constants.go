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

const (
	// DefaultMaxDepth is the default statement nesting depth past which recursive walks stop
	DefaultMaxDepth = 100
	// DefaultAnnotationGap is the default number of lines above a statement searched for a validation marker
	DefaultAnnotationGap = 3
)

// DefaultAnnotationMarkers are the comment markers that declare a validation
var DefaultAnnotationMarkers = []string{"@PlausibilityCheck", "@Validation"}

// DefaultGuardHelpers are the helper predicates recognized as range constraints on their arguments
var DefaultGuardHelpers = []string{"IN_RANGE", "INRANGE", "CHECK_RANGE", "RANGE_OK", "WITHIN", "LIMIT_OK"}
