package expression

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr/ast"

	"github.com/formic-dev/formic/pkg/errors"
)

// Resolver resolves a variable path to its concrete runtime value.
// Implementations return the Absent sentinel for values that are declared
// but not filled in, and ok=false for paths that are not declared at all.
type Resolver interface {
	Resolve(path string) (value any, ok bool)
}

// MapResolver adapts a plain path→value map into a Resolver. Useful for
// tests and for callers with pre-flattened data.
type MapResolver map[string]any

// Resolve implements Resolver.
func (m MapResolver) Resolve(path string) (any, bool) {
	v, ok := m[path]
	return v, ok
}

// Evaluate evaluates the expression against the resolver and returns the
// concrete result value. Evaluation is deterministic and side-effect free;
// failures (arithmetic on non-numbers, unknown variables, ordering of
// incomparable values) return an *errors.EvaluationError.
func Evaluate(p *Parsed, r Resolver) (any, error) {
	e := &evaluator{source: p.source, resolver: r}
	return e.eval(p.root)
}

// EvaluateBool evaluates the expression and coerces the result at the
// boolean boundary: booleans pass through, Absent becomes false, and any
// other result type fails with an *errors.EvaluationError.
func EvaluateBool(p *Parsed, r Resolver) (bool, error) {
	v, err := Evaluate(p, r)
	if err != nil {
		return false, err
	}
	b, ok := asBool(v)
	if !ok {
		return false, &errors.EvaluationError{
			Expression: p.source,
			Message:    fmt.Sprintf("expected a boolean result, got %s", typeName(v)),
		}
	}
	return b, nil
}

type evaluator struct {
	source   string
	resolver Resolver
}

func (e *evaluator) eval(n ast.Node) (any, error) {
	switch node := n.(type) {
	case *ast.NilNode:
		return nil, nil
	case *ast.BoolNode:
		return node.Value, nil
	case *ast.IntegerNode:
		return float64(node.Value), nil
	case *ast.FloatNode:
		return node.Value, nil
	case *ast.StringNode:
		return node.Value, nil

	case *ast.IdentifierNode, *ast.MemberNode:
		path, _ := variablePath(node)
		v, ok := e.resolver.Resolve(path)
		if !ok {
			return nil, e.errf("", "unknown variable %q", path)
		}
		return v, nil

	case *ast.UnaryNode:
		return e.unary(node)

	case *ast.BinaryNode:
		return e.binary(node)

	default:
		// Unreachable: Parse rejects everything else.
		return nil, e.errf("", "unsupported construct %T", n)
	}
}

func (e *evaluator) unary(node *ast.UnaryNode) (any, error) {
	v, err := e.eval(node.Node)
	if err != nil {
		return nil, err
	}
	switch node.Operator {
	case "not", "!":
		b, ok := asBool(v)
		if !ok {
			return nil, e.errf(node.Operator, "operand must be a boolean, got %s", typeName(v))
		}
		return !b, nil
	default: // "-"
		n, ok := asNumber(v)
		if !ok {
			return nil, e.errf(node.Operator, "operand must be a number, got %s", typeName(v))
		}
		return -n, nil
	}
}

func (e *evaluator) binary(node *ast.BinaryNode) (any, error) {
	switch node.Operator {
	case "and", "&&":
		return e.logical(node, false)
	case "or", "||":
		return e.logical(node, true)
	}

	left, err := e.eval(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Operator {
	case "==":
		return equal(left, right), nil
	case "!=":
		return !equal(left, right), nil
	case "<", "<=", ">", ">=":
		return e.compare(node.Operator, left, right)
	default: // "+", "-", "*", "/"
		return e.arithmetic(node.Operator, left, right)
	}
}

// logical evaluates and/or with short-circuiting. shortOn is the left-hand
// truth value that decides the result without evaluating the right side.
func (e *evaluator) logical(node *ast.BinaryNode, shortOn bool) (any, error) {
	left, err := e.eval(node.Left)
	if err != nil {
		return nil, err
	}
	lb, ok := asBool(left)
	if !ok {
		return nil, e.errf(node.Operator, "operand must be a boolean, got %s", typeName(left))
	}
	if lb == shortOn {
		return shortOn, nil
	}
	right, err := e.eval(node.Right)
	if err != nil {
		return nil, err
	}
	rb, ok := asBool(right)
	if !ok {
		return nil, e.errf(node.Operator, "operand must be a boolean, got %s", typeName(right))
	}
	return rb, nil
}

// compare implements the ordering operators. Orderable pairs are numbers,
// strings and timestamps. An absent operand makes the comparison false
// rather than failing: an unfilled field never satisfies a threshold.
func (e *evaluator) compare(op string, left, right any) (any, error) {
	if IsAbsent(left) || IsAbsent(right) {
		return false, nil
	}

	if ln, ok := asNumber(left); ok {
		if rn, ok := asNumber(right); ok {
			return orderResult(op, compareFloats(ln, rn)), nil
		}
	}
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			return orderResult(op, strings.Compare(ls, rs)), nil
		}
	}
	if lt, ok := left.(time.Time); ok {
		if rt, ok := right.(time.Time); ok {
			return orderResult(op, lt.Compare(rt)), nil
		}
	}

	return nil, e.errf(op, "cannot order %s and %s", typeName(left), typeName(right))
}

// arithmetic implements + - * /. Operands must both be numbers: there is no
// string concatenation and no implicit coercion, matching the static rule
// that arithmetic always yields a number.
func (e *evaluator) arithmetic(op string, left, right any) (any, error) {
	ln, ok := asNumber(left)
	if !ok {
		return nil, e.errf(op, "left operand must be a number, got %s", typeName(left))
	}
	rn, ok := asNumber(right)
	if !ok {
		return nil, e.errf(op, "right operand must be a number, got %s", typeName(right))
	}
	switch op {
	case "+":
		return ln + rn, nil
	case "-":
		return ln - rn, nil
	case "*":
		return ln * rn, nil
	default: // "/"
		if rn == 0 {
			return nil, e.errf(op, "division by zero")
		}
		return ln / rn, nil
	}
}

func (e *evaluator) errf(op, format string, args ...any) *errors.EvaluationError {
	return &errors.EvaluationError{
		Expression: e.source,
		Op:         op,
		Message:    fmt.Sprintf(format, args...),
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func orderResult(op string, cmp int) bool {
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	default: // ">="
		return cmp >= 0
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case AbsentValue:
		return "absent"
	case bool:
		return "boolean"
	case string:
		return "string"
	case time.Time:
		return "date"
	}
	if _, ok := asNumber(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
