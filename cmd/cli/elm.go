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

	"github.com/spf13/cobra"

	"github.com/lattice-health/cqlcore/cql"
	"github.com/lattice-health/cqlcore/elm"
)

func newELMCmd() *cobra.Command {
	var cqlDir string
	cmd := &cobra.Command{
		Use:   "elm",
		Short: "Parse CQL files and print each library's ELM JSON representation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runELM(cmd.OutOrStdout(), cqlDir)
		},
	}
	cmd.Flags().StringVar(&cqlDir, "cql-dir", "", "directory holding one or more .cql files (required)")
	cmd.MarkFlagRequired("cql-dir")
	return cmd
}

func runELM(w io.Writer, cqlDir string) error {
	libs, err := readCQLFiles(cqlDir)
	if err != nil {
		return err
	}
	compiled, err := cql.Parse(context.Background(), libs, cql.ParseConfig{})
	if err != nil {
		return fmt.Errorf("parsing CQL: %w", err)
	}
	for _, lib := range compiled.Libraries() {
		serialized, err := elm.SerializeLibraryJSON(lib, 2)
		if err != nil {
			return fmt.Errorf("serializing library to ELM: %w", err)
		}
		fmt.Fprintln(w, serialized)
	}
	return nil
}
