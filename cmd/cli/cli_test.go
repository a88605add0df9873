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
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeCQLFile(t *testing.T, dir, name, cql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(cql), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) returned an unexpected error: %v", name, err)
	}
}

func TestRunEvalSimple(t *testing.T) {
	dir := t.TempDir()
	writeCQLFile(t, dir, "test.cql", `
library TESTLIB
define TESTRESULT: true`)

	var out bytes.Buffer
	if err := runEval(&out, dir, "", false); err != nil {
		t.Fatalf("runEval() returned an unexpected error: %v", err)
	}

	var got any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output was not valid JSON: %v\noutput: %s", err, out.String())
	}

	wantJSON := `[
		{
			"libName": "TESTLIB",
			"libVersion": "",
			"expressionDefinitions": {
				"TESTRESULT": true
			}
		}
	]`
	var want any
	if err := json.Unmarshal([]byte(wantJSON), &want); err != nil {
		t.Fatalf("bad test want JSON: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("runEval() output diff (-want +got):\n%s", diff)
	}
}

func TestRunEvalReturnPrivateDefs(t *testing.T) {
	dir := t.TempDir()
	writeCQLFile(t, dir, "test.cql", `
library TESTLIB
define private TESTRESULT: true`)

	var withoutPrivate bytes.Buffer
	if err := runEval(&withoutPrivate, dir, "", false); err != nil {
		t.Fatalf("runEval() returned an unexpected error: %v", err)
	}
	if strings.Contains(withoutPrivate.String(), "TESTRESULT") {
		t.Errorf("runEval() with returnPrivateDefs=false included a private definition: %s", withoutPrivate.String())
	}

	var withPrivate bytes.Buffer
	if err := runEval(&withPrivate, dir, "", true); err != nil {
		t.Fatalf("runEval() returned an unexpected error: %v", err)
	}
	if !strings.Contains(withPrivate.String(), "TESTRESULT") {
		t.Errorf("runEval() with returnPrivateDefs=true omitted a private definition: %s", withPrivate.String())
	}
}

func TestRunEvalWithRunConfig(t *testing.T) {
	dir := t.TempDir()
	writeCQLFile(t, dir, "test.cql", `
library TESTLIB
parameter Threshold Integer default 1
define TESTRESULT: Threshold`)

	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(`
parameters:
  Threshold: "42"
evaluationTimestamp: "@2018-02-02T15:02:03.000-04:00"
`), 0o644); err != nil {
		t.Fatalf("WriteFile(config.yaml) returned an unexpected error: %v", err)
	}

	var out bytes.Buffer
	if err := runEval(&out, dir, configPath, false); err != nil {
		t.Fatalf("runEval() returned an unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "42") {
		t.Errorf("runEval() with a Threshold=42 override did not reflect it in the output: %s", out.String())
	}
}

func TestRunParse(t *testing.T) {
	dir := t.TempDir()
	writeCQLFile(t, dir, "test.cql", `
library TESTLIB
define TESTRESULT: true`)

	var out bytes.Buffer
	if err := runParse(&out, dir, false); err != nil {
		t.Fatalf("runParse() returned an unexpected error: %v", err)
	}
	if strings.TrimSpace(out.String()) != "parsed OK" {
		t.Errorf("runParse() output = %q, want %q", out.String(), "parsed OK")
	}
}

func TestRunParsePrintTree(t *testing.T) {
	dir := t.TempDir()
	writeCQLFile(t, dir, "test.cql", `
library TESTLIB
define TESTRESULT: true`)

	var out bytes.Buffer
	if err := runParse(&out, dir, true); err != nil {
		t.Fatalf("runParse() returned an unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "TESTRESULT") {
		t.Errorf("runParse() with printTree=true did not print the library tree: %s", out.String())
	}
}

func TestRunParseReportsSyntaxErrors(t *testing.T) {
	dir := t.TempDir()
	writeCQLFile(t, dir, "test.cql", `library TESTLIB this is not valid CQL +++`)

	var out bytes.Buffer
	if err := runParse(&out, dir, false); err == nil {
		t.Fatal("runParse() on invalid CQL returned nil error, want a parse error")
	}
}

func TestRunELM(t *testing.T) {
	dir := t.TempDir()
	writeCQLFile(t, dir, "test.cql", `
library TESTLIB
define TESTRESULT: true`)

	var out bytes.Buffer
	if err := runELM(&out, dir); err != nil {
		t.Fatalf("runELM() returned an unexpected error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("runELM() output was not valid JSON: %v\noutput: %s", err, out.String())
	}
	lib, ok := got["library"].(map[string]any)
	if !ok {
		t.Fatalf("runELM() output missing top-level \"library\" key: %v", got)
	}
	ident, ok := lib["identifier"].(map[string]any)
	if !ok || ident["id"] != "TESTLIB" {
		t.Errorf("runELM() library identifier = %v, want id TESTLIB", lib["identifier"])
	}
}

func TestReadCQLFilesNoFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := readCQLFiles(dir); err == nil {
		t.Error("readCQLFiles() on an empty directory returned nil error, want an error")
	}
}

func TestLoadRunConfigEmptyPath(t *testing.T) {
	cfg, err := loadRunConfig("")
	if err != nil {
		t.Fatalf("loadRunConfig(\"\") returned an unexpected error: %v", err)
	}
	if len(cfg.Parameters) != 0 || len(cfg.DataDocuments) != 0 {
		t.Errorf("loadRunConfig(\"\") = %+v, want a zero-value config", cfg)
	}
}

func TestLoadRunConfigResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	writeCQLFile(t, dir, "patient.json", `{"resourceType": "Patient"}`)
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("dataDocuments:\n  - patient.json\n"), 0o644); err != nil {
		t.Fatalf("WriteFile(config.yaml) returned an unexpected error: %v", err)
	}

	cfg, err := loadRunConfig(configPath)
	if err != nil {
		t.Fatalf("loadRunConfig() returned an unexpected error: %v", err)
	}
	want := filepath.Join(dir, "patient.json")
	if len(cfg.DataDocuments) != 1 || cfg.DataDocuments[0] != want {
		t.Errorf("loadRunConfig().DataDocuments = %v, want [%s]", cfg.DataDocuments, want)
	}
}

func TestNewRootCmdHasSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"parse", "eval", "elm"} {
		if !names[want] {
			t.Errorf("newRootCmd() is missing the %q subcommand", want)
		}
	}
}
