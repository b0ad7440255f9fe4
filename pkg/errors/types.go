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

package errors

import (
	"fmt"
)

// ValidationError represents a definition that failed static validation.
// Use this when an operation is refused because the definition carries
// error-severity logic issues (fail closed), or for malformed input.
type ValidationError struct {
	// Field identifies which part of the definition failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// EvaluationError represents a runtime expression evaluation failure, such
// as arithmetic on incompatible operand types. By the time an expression is
// evaluated its definition has passed static checks, so an EvaluationError
// signals a data-integrity or validation-bypass bug rather than a normal
// user-facing problem.
type EvaluationError struct {
	// Expression is the source text of the failing expression
	Expression string

	// Op is the operator or construct that failed (e.g. "+", "<", "not")
	Op string

	// Message is the human-readable error description
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	msg := "expression evaluation failed"
	if e.Op != "" {
		msg = fmt.Sprintf("%s on %q", msg, e.Op)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Message)
	if e.Expression != "" {
		msg = fmt.Sprintf("%s (in %q)", msg, e.Expression)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *EvaluationError) Unwrap() error {
	return e.Cause
}
