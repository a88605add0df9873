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
)

func newParseCmd() *cobra.Command {
	var (
		cqlDir    string
		printTree bool
	)
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse CQL files and report any errors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runParse(cmd.OutOrStdout(), cqlDir, printTree)
		},
	}
	cmd.Flags().StringVar(&cqlDir, "cql-dir", "", "directory holding one or more .cql files (required)")
	cmd.Flags().BoolVar(&printTree, "print-tree", false, "pretty-print the compiled library tree for debugging")
	cmd.MarkFlagRequired("cql-dir")
	return cmd
}

func runParse(out io.Writer, cqlDir string, printTree bool) error {
	libs, err := readCQLFiles(cqlDir)
	if err != nil {
		return err
	}
	compiled, err := cql.Parse(context.Background(), libs, cql.ParseConfig{})
	if err != nil {
		return fmt.Errorf("parsing CQL: %w", err)
	}
	if !printTree {
		fmt.Fprintln(out, "parsed OK")
		return nil
	}
	for _, lib := range compiled.Libraries() {
		fmt.Fprintln(out, lib.String())
	}
	return nil
}
