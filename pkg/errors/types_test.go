// Copyright 2025 The Formic Authors
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

package errors_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	formicerrors "github.com/formic-dev/formic/pkg/errors"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *formicerrors.ValidationError
		wantMsg string
	}{
		{
			name: "with field",
			err: &formicerrors.ValidationError{
				Field:      "fields.consent.visible",
				Message:    "expression must resolve to boolean, got number",
				Suggestion: "Wrap the expression in a comparison",
			},
			wantMsg: "validation failed on fields.consent.visible: expression must resolve to boolean, got number",
		},
		{
			name: "without field",
			err: &formicerrors.ValidationError{
				Message:    "definition carries error-severity issues",
				Suggestion: "Fix the reported issues before evaluating",
			},
			wantMsg: "validation failed: definition carries error-severity issues",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("ValidationError.Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestEvaluationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *formicerrors.EvaluationError
		want []string
	}{
		{
			name: "full error",
			err: &formicerrors.EvaluationError{
				Expression: `fields.name.value + 1`,
				Op:         "+",
				Message:    "left operand is string, want number",
			},
			want: []string{`"+"`, "left operand is string", `fields.name.value + 1`},
		},
		{
			name: "without operator",
			err: &formicerrors.EvaluationError{
				Expression: `isAdult`,
				Message:    `unknown variable "isAdult"`,
			},
			want: []string{"expression evaluation failed:", "unknown variable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("EvaluationError.Error() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestEvaluationError_Unwrap(t *testing.T) {
	cause := errors.New("division by zero")
	err := &formicerrors.EvaluationError{
		Expression: `1 / fields.count.value`,
		Op:         "/",
		Message:    "division by zero",
		Cause:      cause,
	}

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}

	wrapped := fmt.Errorf("evaluating logic key %q: %w", "ratio", err)
	var evalErr *formicerrors.EvaluationError
	if !errors.As(wrapped, &evalErr) {
		t.Fatal("expected errors.As to find *EvaluationError through the wrap")
	}
	if evalErr.Op != "/" {
		t.Errorf("expected Op %q, got %q", "/", evalErr.Op)
	}
}
