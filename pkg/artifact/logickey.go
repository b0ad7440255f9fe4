package artifact

// ValueType names the declared result type of a logic key. It shares its
// vocabulary with field types but covers only value shapes, not widgets.
type ValueType string

const (
	ValueBoolean    ValueType = "boolean"
	ValueString     ValueType = "string"
	ValueNumber     ValueType = "number"
	ValueDate       ValueType = "date"
	ValueMoney      ValueType = "money"
	ValueAddress    ValueType = "address"
	ValuePhone      ValueType = "phone"
	ValueCoordinate ValueType = "coordinate"
	ValueDuration   ValueType = "duration"
)

// LogicKey declares a named, reusable expression. A scalar key carries a
// single expression in Expr; a structured key carries one expression per
// member in Object (Expr empty). Type is optional: when empty the key's
// type is inferred from its expression(s).
type LogicKey struct {
	Type ValueType

	// Expr is the value expression of a scalar key.
	Expr string

	// Object holds the member expressions of a structured key, keyed by
	// member name. Mutually exclusive with Expr.
	Object map[string]string
}

// Structured reports whether the key is an object of expressions.
func (k LogicKey) Structured() bool { return len(k.Object) > 0 }
