package logic

import (
	"fmt"
	"strings"

	"github.com/formic-dev/formic/pkg/artifact"
)

// InferredType is the statically inferred result type of an expression.
type InferredType string

const (
	TypeNumber     InferredType = "number"
	TypeString     InferredType = "string"
	TypeBoolean    InferredType = "boolean"
	TypeArray      InferredType = "array"
	TypeObject     InferredType = "object"
	TypeNull       InferredType = "null"
	TypeCoordinate InferredType = "coordinate"
	TypeMoney      InferredType = "money"
	TypeAddress    InferredType = "address"
	TypePhone      InferredType = "phone"
	TypeDuration   InferredType = "duration"
	TypeDate       InferredType = "date"
	TypeUnknown    InferredType = "unknown"
)

// Confidence states how far static inference can guarantee a result type
// without executing the expression.
type Confidence string

const (
	// ConfidenceCertain: the type is provable from the expression shape
	// and the type environment alone.
	ConfidenceCertain Confidence = "certain"
	// ConfidenceUnknown: the type could not be proven, typically because
	// a referenced variable is not declared.
	ConfidenceUnknown Confidence = "unknown"
)

// Inference is the result of statically inferring an expression's type.
type Inference struct {
	Type       InferredType
	Confidence Confidence

	// Reason explains an unknown confidence, empty otherwise.
	Reason string

	// Unresolved lists every referenced variable path that did not
	// resolve in the environment, sorted. Inference keeps walking sibling
	// branches after a miss so all of them surface together.
	Unresolved []string
}

// Severity distinguishes must-fix issues from should-review ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one static-validation finding. Issues are data: the validation
// layer collects and returns them, it never throws.
type Issue struct {
	// Message is the human-readable description.
	Message string

	// Path locates the offending expression slot within the definition,
	// e.g. ["fields", "info", "visible"] or ["contents", 0, "artifact",
	// "fields", "amount", "required"]. Elements are strings and ints.
	Path []any

	// Expression is the offending expression's source text, when the
	// issue concerns one.
	Expression string

	// Severity is error for provable problems, warning for unprovable or
	// degraded ones.
	Severity Severity

	// ExpectedType and ActualType are set on type-mismatch issues.
	ExpectedType InferredType
	ActualType   InferredType

	// Variable is set on unknown-variable issues.
	Variable string
}

// String renders the issue for logs and test failures.
func (i Issue) String() string {
	parts := make([]string, len(i.Path))
	for n, p := range i.Path {
		parts[n] = fmt.Sprint(p)
	}
	return fmt.Sprintf("%s at %s: %s", i.Severity, strings.Join(parts, "."), i.Message)
}

// HasErrors reports whether any issue in the list has error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Options controls validation behavior.
type Options struct {
	// CollectAll aggregates every issue across the definition when true,
	// and short-circuits on the first issue when false.
	CollectAll bool
}

// DefaultOptions returns the default validation options: collect all issues.
func DefaultOptions() *Options {
	return &Options{CollectAll: true}
}

// typeOfField maps a field type tag to the inferred type of the field's
// value path.
func typeOfField(t artifact.FieldType) InferredType {
	switch t {
	case artifact.FieldText, artifact.FieldEmail, artifact.FieldUUID, artifact.FieldURI:
		return TypeString
	case artifact.FieldNumber, artifact.FieldPercentage, artifact.FieldRating:
		return TypeNumber
	case artifact.FieldBoolean:
		return TypeBoolean
	case artifact.FieldDate:
		return TypeDate
	case artifact.FieldMoney:
		return TypeMoney
	case artifact.FieldAddress:
		return TypeAddress
	case artifact.FieldPhone:
		return TypePhone
	case artifact.FieldCoordinate, artifact.FieldBBox:
		return TypeCoordinate
	case artifact.FieldDuration:
		return TypeDuration
	case artifact.FieldPerson, artifact.FieldOrganization, artifact.FieldIdentification:
		return TypeObject
	case artifact.FieldSet:
		return TypeObject
	default:
		return TypeUnknown
	}
}

// typeOfValue maps a logic key's declared type to an inferred type.
func typeOfValue(t artifact.ValueType) InferredType {
	switch t {
	case artifact.ValueBoolean:
		return TypeBoolean
	case artifact.ValueString:
		return TypeString
	case artifact.ValueNumber:
		return TypeNumber
	case artifact.ValueDate:
		return TypeDate
	case artifact.ValueMoney:
		return TypeMoney
	case artifact.ValueAddress:
		return TypeAddress
	case artifact.ValuePhone:
		return TypePhone
	case artifact.ValueCoordinate:
		return TypeCoordinate
	case artifact.ValueDuration:
		return TypeDuration
	default:
		return TypeUnknown
	}
}
