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
Package config provides a simple way to manage configuration files.

Use [Load](filename) to load a configuration from a specific filename, or [NewDefault] when no file is given.

A config file should be in yaml format. The top-level fields can be any of the fields defined in the Config
struct type. The other fields are defined by the types of the fields of [Config] and nested struct types.
For example, a valid config file is as follows:

	options:
	  log-level: 4
	  max-depth: 100
	  annotation-gap: 3
	  parallelism: 4
	annotation-markers: ["@PlausibilityCheck", "@Validation"]
	guard-helpers: ["IN_RANGE"]
	disabled-rules: [5, 20]
	taint:
	  sources: ["^OPC_"]
	  actuators: ["VALVE", "PUMP"]

# Name patterns

The taint section uses [NamePattern] to identify variables. A pattern is seen as a case-insensitive regex if it
can be compiled to a regex, otherwise it is a case-insensitive substring.

# Logging

[NewLogGroup] returns the leveled loggers used throughout the tool. The level is the log-level option: 1 prints
errors only, 5 traces the analyses statement by statement.
*/
package config
