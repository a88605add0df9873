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

package terminology

import "testing"

// TestLocalFHIRProviderImplementsProvider fails to compile if LocalFHIRProvider drifts from the
// Provider interface the evaluator depends on.
var _ Provider = (*LocalFHIRProvider)(nil)

func TestCodeKeyIgnoresDisplay(t *testing.T) {
	a := &Code{Code: "123", System: "sys", Display: "alpha"}
	b := &Code{Code: "123", System: "sys", Display: "beta"}
	if a.key() != b.key() {
		t.Errorf("key() differs despite identical Code/System: %v vs %v", a.key(), b.key())
	}
}

func TestCodeKeyDistinguishesSystem(t *testing.T) {
	a := &Code{Code: "123", System: "sys1"}
	b := &Code{Code: "123", System: "sys2"}
	if a.key() == b.key() {
		t.Errorf("key() matched across different systems: %v", a.key())
	}
}
