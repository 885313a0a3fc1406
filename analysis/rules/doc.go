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

/*
Package rules contains the catalog of secure coding rules and the aggregator running them on a program.

Most rules are configurations of the taint engine of the taint package: a source predicate (HMI, recipe and
parameter data), a sink predicate (actuator variables, timer presets) and an optional extra sanitizer. The
others are structural passes over the program: size thresholds, required organization blocks, read-compare-emit
monitoring pipelines, and the two rules driven by the site policy (mutually exclusive outputs, read-only memory
areas).

All the rules read a single [Context], built once per file. RunRules turns every rule into an [Outcome]:
violations are sorted by line, violations suppressed by a plcheck:ignore comment are dropped, and a rule that
returns an error or panics reports an Error outcome without affecting the other rules.
*/
package rules
