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
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lattice-health/cqlcore/cql"
	"github.com/lattice-health/cqlcore/internal/datehelpers"
	"github.com/lattice-health/cqlcore/result"
	"github.com/lattice-health/cqlcore/retriever/local"
	"github.com/lattice-health/cqlcore/terminology"
)

func newEvalCmd() *cobra.Command {
	var (
		cqlDir            string
		configPath        string
		returnPrivateDefs bool
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Parse and evaluate CQL files, printing results as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEval(cmd.OutOrStdout(), cqlDir, configPath, returnPrivateDefs)
		},
	}
	cmd.Flags().StringVar(&cqlDir, "cql-dir", "", "directory holding one or more .cql files (required)")
	cmd.Flags().StringVar(&configPath, "config", "", "optional YAML run-config naming fixture data and parameter overrides")
	cmd.Flags().BoolVar(&returnPrivateDefs, "return-private-defs", false, "include private expression definitions in the output")
	cmd.MarkFlagRequired("cql-dir")
	return cmd
}

func runEval(out io.Writer, cqlDir, configPath string, returnPrivateDefs bool) error {
	ctx := context.Background()
	libs, err := readCQLFiles(cqlDir)
	if err != nil {
		return err
	}
	runCfg, err := loadRunConfig(configPath)
	if err != nil {
		return err
	}

	terms, err := newTerminologyProvider(runCfg.TerminologyDocuments)
	if err != nil {
		return fmt.Errorf("loading terminology: %w", err)
	}

	params, err := resolveParameterKeys(ctx, libs, terms, runCfg.Parameters)
	if err != nil {
		return fmt.Errorf("resolving parameter overrides: %w", err)
	}

	compiled, err := cql.Parse(ctx, libs, cql.ParseConfig{Terminology: terms, Parameters: params})
	if err != nil {
		return fmt.Errorf("parsing CQL: %w", err)
	}

	dataDocs, err := readJSONDocuments(runCfg.DataDocuments)
	if err != nil {
		return err
	}
	ds, err := local.NewDataSource(dataDocs, terms)
	if err != nil {
		return fmt.Errorf("loading retriever documents: %w", err)
	}

	evalConfig := cql.EvalConfig{Terminology: terms, ReturnPrivateDefs: returnPrivateDefs}
	if runCfg.EvaluationTimestamp != "" {
		t, _, err := datehelpers.ParseDateTime(runCfg.EvaluationTimestamp, time.UTC)
		if err != nil {
			return fmt.Errorf("parsing evaluationTimestamp: %w", err)
		}
		evalConfig.EvaluationTimestamp = t
	}

	results, err := compiled.Eval(ctx, ds, evalConfig)
	if err != nil {
		return fmt.Errorf("evaluating CQL: %w", err)
	}
	return printJSON(out, results)
}

// newTerminologyProvider builds an in-memory terminology provider from docs, or returns nil if
// docs is empty so evaluation proceeds without one (fine unless the CQL uses terminology).
func newTerminologyProvider(docPaths []string) (terminology.Provider, error) {
	if len(docPaths) == 0 {
		return nil, nil
	}
	docs, err := readJSONDocuments(docPaths)
	if err != nil {
		return nil, err
	}
	return terminology.NewInMemoryFHIRProvider(docs)
}

// resolveParameterKeys turns a run-config's flat paramName->value overrides into the fully
// qualified result.DefKey form cql.ParseConfig.Parameters requires (each parameter belongs to a
// specific library identity, not just a name). It does a throwaway compile of libs with no
// parameter overrides purely to read back each library's declared identifier and parameter names,
// then matches overrides against them by name.
func resolveParameterKeys(ctx context.Context, libs []string, terms terminology.Provider, overrides map[string]string) (map[result.DefKey]string, error) {
	if len(overrides) == 0 {
		return nil, nil
	}
	compiled, err := cql.Parse(ctx, libs, cql.ParseConfig{Terminology: terms})
	if err != nil {
		return nil, err
	}
	keyed := make(map[result.DefKey]string, len(overrides))
	for _, lib := range compiled.Libraries() {
		libKey := result.LibKeyFromModel(lib.Identifier)
		for _, param := range lib.Parameters {
			if v, ok := overrides[param.Name]; ok {
				keyed[result.DefKey{Name: param.Name, Library: libKey}] = v
			}
		}
	}
	return keyed, nil
}
