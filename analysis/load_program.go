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


package analysis

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-plc-tools/analysis/annotations"
	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/frontend"
	"github.com/awslabs/ar-plc-tools/analysis/lang"
)

// LoadedProgram represents a parsed source file.
type LoadedProgram struct {
	// FileName is the name the source was loaded from; it may be empty
	FileName string
	// Dialect is the dialect the source was parsed in
	Dialect frontend.Dialect
	// Program is the parsed program
	Program *lang.Program
	// Annotations indexes the validation markers and suppressions of the source comments
	Annotations *annotations.Index
}

// LoadProgram parses src in the given dialect. With frontend.Auto, the dialect is detected from the file name
// and the text. Syntax errors are returned as a *frontend.ParseError.
func LoadProgram(cfg *config.Config, logger *config.LogGroup, fileName string, src string,
	dialect frontend.Dialect) (LoadedProgram, error) {
	if dialect == frontend.Auto {
		dialect = frontend.DetectDialect(fileName, src)
		logger.Debugf("%s: detected dialect %s", displayName(fileName), dialect)
	}
	prog, err := frontend.Parse(src, dialect)
	if err != nil {
		return LoadedProgram{}, err
	}
	// comments dropped by the front end are still in the source text; the annotation comments it kept give
	// the same lines again, which the index absorbs
	idx := annotations.FromSource(logger, src, cfg.AnnotationMarkers)
	idx.AddProgram(logger, prog)
	logger.Debugf("%s: %d routines, %d annotated lines", displayName(fileName), len(prog.Functions), idx.Count())
	return LoadedProgram{FileName: fileName, Dialect: dialect, Program: prog, Annotations: idx}, nil
}

// LoadFile reads and parses the file at path
func LoadFile(cfg *config.Config, logger *config.LogGroup, path string, dialect frontend.Dialect) (LoadedProgram,
	error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return LoadedProgram{}, fmt.Errorf("could not read source file: %w", err)
	}
	return LoadProgram(cfg, logger, path, string(b), dialect)
}

func displayName(fileName string) string {
	if fileName == "" {
		return "<input>"
	}
	return fileName
}
