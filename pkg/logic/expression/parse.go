package expression

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/parser"
)

// SyntaxError reports a malformed expression. Offset is the character
// offset of the problem within the source text, or -1 when unknown.
type SyntaxError struct {
	Message string
	Offset  int
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Message)
	}
	return fmt.Sprintf("syntax error: %s", e.Message)
}

// Parsed is an immutable parsed expression. It is safe for concurrent use;
// a single Parsed may be evaluated by any number of goroutines at once.
type Parsed struct {
	source string
	root   ast.Node
	vars   []string
}

// Parse parses an expression string into an AST. Malformed input, and input
// using expr-lang constructs outside the supported subset, returns a
// *SyntaxError.
func Parse(text string) (*Parsed, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &SyntaxError{Message: "empty expression", Offset: 0}
	}

	tree, err := parser.Parse(text)
	if err != nil {
		return nil, asSyntaxError(err)
	}

	if err := restrict(tree.Node); err != nil {
		return nil, err
	}

	vars := map[string]struct{}{}
	collectVariables(tree.Node, vars)
	names := make([]string, 0, len(vars))
	for v := range vars {
		names = append(names, v)
	}
	sort.Strings(names)

	return &Parsed{source: text, root: tree.Node, vars: names}, nil
}

// Source returns the original expression text.
func (p *Parsed) Source() string { return p.source }

// Root returns the root AST node. The AST must be treated as read-only.
func (p *Parsed) Root() ast.Node { return p.root }

// Variables returns the set of variable paths the expression references,
// sorted lexicographically.
func (p *Parsed) Variables() []string {
	out := make([]string, len(p.vars))
	copy(out, p.vars)
	return out
}

// asSyntaxError converts an expr parser error into a *SyntaxError,
// preserving the character offset when the parser reported one.
func asSyntaxError(err error) *SyntaxError {
	var fe *file.Error
	if errors.As(err, &fe) {
		return &SyntaxError{Message: fe.Message, Offset: fe.Location.From}
	}
	return &SyntaxError{Message: err.Error(), Offset: -1}
}

// Operator spellings accepted by the DSL. The expr parser keeps the
// spelling the author used, so keyword and symbol forms both appear.
var (
	binaryOps = map[string]struct{}{
		"and": {}, "&&": {},
		"or": {}, "||": {},
		"==": {}, "!=": {},
		"<": {}, "<=": {}, ">": {}, ">=": {},
		"+": {}, "-": {}, "*": {}, "/": {},
	}
	unaryOps = map[string]struct{}{
		"not": {}, "!": {}, "-": {},
	}
)

// restrict rejects every expr-lang construct outside the DSL subset. The
// parser accepts a much larger grammar (calls, closures, slices, ranges);
// allowing any of it through would let authors write expressions the static
// type checker has no rules for.
func restrict(n ast.Node) error {
	switch node := n.(type) {
	case *ast.NilNode, *ast.BoolNode, *ast.IntegerNode, *ast.FloatNode, *ast.StringNode:
		return nil

	case *ast.IdentifierNode:
		return nil

	case *ast.MemberNode:
		if _, ok := variablePath(node); !ok {
			return &SyntaxError{
				Message: "only dotted variable paths may use '.'",
				Offset:  node.Location().From,
			}
		}
		return nil

	case *ast.UnaryNode:
		if _, ok := unaryOps[node.Operator]; !ok {
			return &SyntaxError{
				Message: fmt.Sprintf("unsupported unary operator %q", node.Operator),
				Offset:  node.Location().From,
			}
		}
		return restrict(node.Node)

	case *ast.BinaryNode:
		if _, ok := binaryOps[node.Operator]; !ok {
			return &SyntaxError{
				Message: fmt.Sprintf("unsupported operator %q", node.Operator),
				Offset:  node.Location().From,
			}
		}
		if err := restrict(node.Left); err != nil {
			return err
		}
		return restrict(node.Right)

	default:
		return &SyntaxError{
			Message: fmt.Sprintf("unsupported expression construct %T", n),
			Offset:  n.Location().From,
		}
	}
}

// VariablePath returns the dotted path of a variable-reference node
// (an identifier or member chain), or "" for any other node. Static
// analyses walking the AST use it to treat a whole chain as one variable.
func VariablePath(n ast.Node) string {
	path, _ := variablePath(n)
	return path
}

// variablePath reconstructs the dotted path of a member chain. It succeeds
// only for chains of plain dot accesses rooted at an identifier.
func variablePath(n ast.Node) (string, bool) {
	switch node := n.(type) {
	case *ast.IdentifierNode:
		return node.Value, true
	case *ast.MemberNode:
		if node.Optional {
			return "", false
		}
		prop, ok := node.Property.(*ast.StringNode)
		if !ok {
			return "", false
		}
		base, ok := variablePath(node.Node)
		if !ok {
			return "", false
		}
		return base + "." + prop.Value, true
	default:
		return "", false
	}
}

// collectVariables records every variable path referenced under n. Member
// chains are recorded as a single dotted path, not as their parts.
func collectVariables(n ast.Node, out map[string]struct{}) {
	switch node := n.(type) {
	case *ast.IdentifierNode, *ast.MemberNode:
		if path, ok := variablePath(node); ok {
			out[path] = struct{}{}
		}
	case *ast.UnaryNode:
		collectVariables(node.Node, out)
	case *ast.BinaryNode:
		collectVariables(node.Left, out)
		collectVariables(node.Right, out)
	}
}
