// Copyright 2024 Google LLC
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

package parser

import (
	"strings"
	"testing"

	"github.com/lithammer/dedent"
)

func TestLibrariesOrdersIncludesRegardlessOfInputOrder(t *testing.T) {
	dependent := dedent.Dedent(`
		library Dependent version '1.0.0'
		include Helper version '1.0.0' called Helper

		define TESTRESULT: Helper.Answer * 2
	`)
	helper := dedent.Dedent(`
		library Helper version '1.0.0'

		define Answer: 21
	`)

	// Dependent is listed before the Helper library it includes; Libraries must still parse Helper
	// first so Dependent's include resolves, while returning results in the order given.
	libs, err := New(nil).Libraries([]string{dependent, helper})
	if err != nil {
		t.Fatalf("Libraries() returned unexpected error: %v", err)
	}
	if len(libs) != 2 {
		t.Fatalf("Libraries() returned %d libraries, want 2", len(libs))
	}
	if libs[0].Identifier.Local != "Dependent" {
		t.Errorf("Libraries()[0].Identifier.Local = %q, want %q", libs[0].Identifier.Local, "Dependent")
	}
	if libs[1].Identifier.Local != "Helper" {
		t.Errorf("Libraries()[1].Identifier.Local = %q, want %q", libs[1].Identifier.Local, "Helper")
	}
}

func TestLibrariesCircularIncludeReturnsError(t *testing.T) {
	a := dedent.Dedent(`
		library A version '1.0.0'
		include B version '1.0.0' called B

		define TESTRESULT: B.TESTRESULT
	`)
	b := dedent.Dedent(`
		library B version '1.0.0'
		include A version '1.0.0' called A

		define TESTRESULT: A.TESTRESULT
	`)

	_, err := New(nil).Libraries([]string{a, b})
	if err == nil {
		t.Fatalf("Libraries() with circular includes returned nil error, want an error")
	}
	if !strings.Contains(err.Error(), "circular") {
		t.Errorf("Libraries() error = %v, want it to mention circular dependencies", err)
	}
}

func TestLibrariesMissingIncludeReturnsError(t *testing.T) {
	dependent := dedent.Dedent(`
		library Dependent version '1.0.0'
		include NeverSupplied version '1.0.0' called NeverSupplied

		define TESTRESULT: NeverSupplied.Answer
	`)

	_, err := New(nil).Libraries([]string{dependent})
	if err == nil {
		t.Fatalf("Libraries() with an unresolvable include returned nil error, want an error")
	}
	if !strings.Contains(err.Error(), "NeverSupplied") {
		t.Errorf("Libraries() error = %v, want it to mention the missing library", err)
	}
}
