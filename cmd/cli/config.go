// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// runConfig is the optional YAML sidecar file a run can supply alongside its CQL directory,
// naming the fixture data a run needs beyond the CQL itself: retriever documents, terminology
// documents, and parameter overrides. Every field is optional; a run with no external data or
// parameter overrides needs no config file at all.
type runConfig struct {
	// DataDocuments lists paths (relative to the config file's directory unless absolute) to JSON
	// documents the retriever loads as retrievable data.
	DataDocuments []string `yaml:"dataDocuments"`
	// TerminologyDocuments lists paths to JSON ValueSet/CodeSystem documents the terminology
	// provider loads.
	TerminologyDocuments []string `yaml:"terminologyDocuments"`
	// Parameters maps a CQL parameter name to a literal CQL expression text overriding that
	// parameter's declared default.
	Parameters map[string]string `yaml:"parameters"`
	// EvaluationTimestamp, if set, overrides the instant Now()/Today()/TimeOfDay() resolve to. It
	// must be a CQL DateTime literal, e.g. "@2024-01-01T00:00:00Z".
	EvaluationTimestamp string `yaml:"evaluationTimestamp"`
}

// loadRunConfig reads and parses the YAML run-config at path. An empty path returns a zero-value
// runConfig (no fixture data, no overrides).
func loadRunConfig(path string) (*runConfig, error) {
	if path == "" {
		return &runConfig{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg runConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	cfg.DataDocuments = resolvePaths(dir, cfg.DataDocuments)
	cfg.TerminologyDocuments = resolvePaths(dir, cfg.TerminologyDocuments)
	return &cfg, nil
}

func resolvePaths(dir string, paths []string) []string {
	resolved := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			resolved[i] = p
			continue
		}
		resolved[i] = filepath.Join(dir, p)
	}
	return resolved
}

// readCQLFiles reads every *.cql file directly inside dir (no recursion), in lexical filename
// order so library parse order (and hence `include` resolution) is deterministic.
func readCQLFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading CQL directory %s: %w", dir, err)
	}
	var libs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".cql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading CQL file %s: %w", entry.Name(), err)
		}
		libs = append(libs, string(b))
	}
	if len(libs) == 0 {
		return nil, fmt.Errorf("no .cql files found in %s", dir)
	}
	return libs, nil
}

// readJSONDocuments reads every path in paths and returns its raw contents as a string, the shape
// retriever/local and terminology's in-memory constructors both expect.
func readJSONDocuments(paths []string) ([]string, error) {
	docs := make([]string, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading document %s: %w", p, err)
		}
		docs = append(docs, string(b))
	}
	return docs, nil
}
