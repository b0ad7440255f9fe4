// Package logic is the conditional-logic engine for artifact definitions:
// a static type checker and a runtime evaluator for the expression language
// in pkg/logic/expression.
//
// At design time, ValidateForm and ValidateBundle lint every boolean
// context (visible, required, disabled, include) in a definition without
// needing any data: expressions are parsed, their result types inferred
// against a type environment derived from the definition, logic-key cross
// references are checked for cycles, and every problem is returned as an
// Issue with a precise path, never panicked or logged away.
//
// At fill time, an Engine evaluates a type-checked definition against an
// immutable data Snapshot, producing a State with the concrete value,
// visibility, required-ness and disabled-ness of every field and annex plus
// every evaluated logic value. States are memoized per (definition
// fingerprint, snapshot identity); a definition with error-severity issues
// fails closed and is never evaluated.
package logic
