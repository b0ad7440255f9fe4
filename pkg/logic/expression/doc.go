// Package expression implements the conditional-logic expression language:
// parsing, referenced-variable collection and runtime evaluation.
//
// It uses the expr-lang/expr parser for the DSL front end and restricts the
// grammar to the supported subset:
//
//   - Literals: booleans, numbers, strings, nil
//   - Variable paths: fields.age.value, forms.main.fields.amount.value, isAdult
//   - Comparisons: ==, !=, <, >, <=, >=
//   - Arithmetic: +, -, *, / and unary minus
//   - Boolean logic: and, or, not (also spelled &&, ||, !)
//   - Parenthesised grouping
//
// Example expressions:
//
//	fields.age.value >= 18
//	isAdult and not fields.waiver.value
//	(fields.price.value + fields.tax.value) * fields.qty.value
//
// Anything else the expr grammar would accept (calls, closures, indexing,
// array and map literals, ternaries) is rejected at parse time with a
// structured syntax error.
//
// Evaluation is a pure tree walk over the parsed AST. Its operator semantics
// deliberately mirror the static type checker in pkg/logic: comparisons
// always produce a boolean, arithmetic always produces a number or fails
// with an EvaluationError, and missing optional values surface as the
// distinct Absent sentinel, never as false, 0 or "".
package expression
