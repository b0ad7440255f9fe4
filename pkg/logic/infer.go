package logic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr/ast"

	"github.com/formic-dev/formic/pkg/logic/expression"
)

// Infer statically infers the result type of a parsed expression against an
// environment, without executing it. The walk is bottom-up:
//
//   - literals carry their own type with certain confidence;
//   - variable references take their environment type, or unknown when the
//     path is not declared;
//   - comparisons are boolean with certain confidence regardless of operand
//     types (structural comparison is always legal);
//   - arithmetic is number with certain confidence — the load-bearing rule:
//     arithmetic can never produce a boolean, which is what lets boolean
//     contexts reject it statically;
//   - logical operators are boolean, certain only when every operand
//     resolved.
//
// A miss in one branch never aborts the walk: every unresolved variable in
// the tree is collected so all diagnosable problems surface together.
func Infer(p *expression.Parsed, env Environment) Inference {
	w := &inferWalk{env: env, missing: map[string]struct{}{}}
	inf := w.node(p.Root())

	if len(w.missing) > 0 {
		inf.Unresolved = make([]string, 0, len(w.missing))
		for path := range w.missing {
			inf.Unresolved = append(inf.Unresolved, path)
		}
		sort.Strings(inf.Unresolved)
	}
	if inf.Confidence == ConfidenceUnknown && inf.Reason == "" && len(inf.Unresolved) > 0 {
		inf.Reason = "unresolved variable " + strings.Join(inf.Unresolved, ", ")
	}
	return inf
}

type inferWalk struct {
	env     Environment
	missing map[string]struct{}
}

func (w *inferWalk) node(n ast.Node) Inference {
	switch node := n.(type) {
	case *ast.NilNode:
		return certain(TypeNull)
	case *ast.BoolNode:
		return certain(TypeBoolean)
	case *ast.IntegerNode, *ast.FloatNode:
		return certain(TypeNumber)
	case *ast.StringNode:
		return certain(TypeString)

	case *ast.IdentifierNode, *ast.MemberNode:
		return w.variable(node)

	case *ast.UnaryNode:
		operand := w.node(node.Node)
		if node.Operator == "-" {
			return certain(TypeNumber)
		}
		// not
		return Inference{Type: TypeBoolean, Confidence: operand.Confidence, Reason: operand.Reason}

	case *ast.BinaryNode:
		left := w.node(node.Left)
		right := w.node(node.Right)
		switch node.Operator {
		case "==", "!=", "<", "<=", ">", ">=":
			return certain(TypeBoolean)
		case "+", "-", "*", "/":
			return certain(TypeNumber)
		default: // and, or and their symbol spellings
			inf := Inference{Type: TypeBoolean, Confidence: ConfidenceCertain}
			for _, op := range []Inference{left, right} {
				if op.Confidence == ConfidenceUnknown {
					inf.Confidence = ConfidenceUnknown
					inf.Reason = op.Reason
					break
				}
			}
			return inf
		}

	default:
		// Unreachable: Parse rejects everything else.
		return Inference{
			Type:       TypeUnknown,
			Confidence: ConfidenceUnknown,
			Reason:     fmt.Sprintf("unsupported construct %T", n),
		}
	}
}

func (w *inferWalk) variable(n ast.Node) Inference {
	path := expression.VariablePath(n)
	if t, ok := w.env.Lookup(path); ok {
		if t == TypeUnknown {
			// Declared but untypable, e.g. an undeclared logic key caught
			// in a reference cycle.
			return Inference{
				Type:       TypeUnknown,
				Confidence: ConfidenceUnknown,
				Reason:     fmt.Sprintf("variable %s has no statically known type", path),
			}
		}
		return certain(t)
	}
	w.missing[path] = struct{}{}
	return Inference{
		Type:       TypeUnknown,
		Confidence: ConfidenceUnknown,
		Reason:     fmt.Sprintf("unresolved variable %s", path),
	}
}

func certain(t InferredType) Inference {
	return Inference{Type: t, Confidence: ConfidenceCertain}
}
