package logic

import (
	"fmt"
	"sort"

	"github.com/formic-dev/formic/pkg/artifact"
	"github.com/formic-dev/formic/pkg/logic/expression"
)

// BooleanCheck is the result of validating one expression against a boolean
// context (a visible/required/disabled/include slot).
type BooleanCheck struct {
	Valid bool

	// Severity, Message and ActualType are set when Valid is false.
	Severity   Severity
	Message    string
	ActualType InferredType

	// ExpectedType is always TypeBoolean; carried for issue reporting.
	ExpectedType InferredType

	// Inference is the underlying inference result, when parsing
	// succeeded.
	Inference Inference
}

// ValidateBooleanExpression checks that an expression provably resolves to
// a boolean. The decision table:
//
//   - inferred boolean with certain confidence → valid;
//   - certain confidence and not boolean → invalid, error (provable
//     mismatch);
//   - unknown confidence → invalid, warning (cannot prove, not provably
//     wrong).
//
// Syntax errors are invalid with error severity.
func ValidateBooleanExpression(text string, env Environment) BooleanCheck {
	parsed, err := expression.Parse(text)
	if err != nil {
		return BooleanCheck{
			Severity:     SeverityError,
			Message:      err.Error(),
			ExpectedType: TypeBoolean,
		}
	}

	inf := Infer(parsed, env)
	check := BooleanCheck{
		ExpectedType: TypeBoolean,
		ActualType:   inf.Type,
		Inference:    inf,
	}
	switch {
	case inf.Type == TypeBoolean && inf.Confidence == ConfidenceCertain:
		check.Valid = true
	case inf.Confidence == ConfidenceCertain:
		check.Severity = SeverityError
		check.Message = fmt.Sprintf("expression must resolve to boolean, got %s", inf.Type)
	default:
		check.Severity = SeverityWarning
		check.Message = "cannot statically prove a boolean result"
		if inf.Reason != "" {
			check.Message += ": " + inf.Reason
		}
	}
	return check
}

// ValidateForm statically validates every expression in a form definition:
// logic-key expressions parse and reference only declared variables, the
// logic dependency graph is acyclic, and every boolean-context slot infers
// to boolean. Issues come back as data in definition order; nil means
// valid. A nil opts means DefaultOptions.
func ValidateForm(f *artifact.Form, opts *Options) []Issue {
	v := newValidator(opts)
	env := NewFormEnvironment(f)
	v.logicSection(nil, f.Logic, env)
	v.fields(nil, f.Fields, env)
	v.annexes(nil, f.Annexes, env)
	return v.issues
}

// ValidateDocument statically validates a document definition.
func ValidateDocument(d *artifact.Document, opts *Options) []Issue {
	v := newValidator(opts)
	env := NewDocumentEnvironment(d)
	v.logicSection(nil, d.Logic, env)
	v.fields(nil, d.Fields, env)
	v.annexes(nil, d.Annexes, env)
	return v.issues
}

// ValidateChecklist statically validates a checklist definition.
func ValidateChecklist(c *artifact.Checklist, opts *Options) []Issue {
	v := newValidator(opts)
	env := NewChecklistEnvironment(c)
	v.logicSection(nil, c.Logic, env)
	v.checklistItems(nil, c.Items, env)
	return v.issues
}

// ValidateBundle statically validates a bundle definition: its own logic
// section and registry include conditions against the merged environment,
// then each inline nested artifact against its own environment, with issue
// paths prefixed by contents[i].artifact.
func ValidateBundle(b *artifact.Bundle, opts *Options) []Issue {
	v := newValidator(opts)
	v.bundle(nil, b)
	return v.issues
}

type validator struct {
	collectAll bool
	done       bool
	issues     []Issue
}

func newValidator(opts *Options) *validator {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &validator{collectAll: opts.CollectAll}
}

// add records an issue and reports whether the walk should stop.
func (v *validator) add(issue Issue) bool {
	if v.done {
		return true
	}
	v.issues = append(v.issues, issue)
	if !v.collectAll {
		v.done = true
	}
	return v.done
}

// path extends a path slice without sharing backing arrays between issues.
func path(base []any, elems ...any) []any {
	out := make([]any, 0, len(base)+len(elems))
	out = append(out, base...)
	return append(out, elems...)
}

func (v *validator) bundle(base []any, b *artifact.Bundle) {
	env := NewBundleEnvironment(b)
	v.logicSection(base, b.Logic, env)

	for i, item := range b.Registry {
		if v.done {
			return
		}
		if item.Include == "" {
			continue
		}
		v.booleanSlot(path(base, "registry", i, "include"), item.Include, env)
	}

	for i, item := range b.Contents {
		if v.done {
			return
		}
		sub := path(base, "contents", i, "artifact")
		switch a := item.Artifact.(type) {
		case *artifact.Form:
			subEnv := NewFormEnvironment(a)
			v.logicSection(sub, a.Logic, subEnv)
			v.fields(sub, a.Fields, subEnv)
			v.annexes(sub, a.Annexes, subEnv)
		case *artifact.Document:
			subEnv := NewDocumentEnvironment(a)
			v.logicSection(sub, a.Logic, subEnv)
			v.fields(sub, a.Fields, subEnv)
			v.annexes(sub, a.Annexes, subEnv)
		case *artifact.Checklist:
			subEnv := NewChecklistEnvironment(a)
			v.logicSection(sub, a.Logic, subEnv)
			v.checklistItems(sub, a.Items, subEnv)
		case *artifact.Bundle:
			v.bundle(sub, a)
		}
	}
}

// logicSection checks every logic-key expression for syntax and unknown
// variables, and reports cycle membership. Logic values may be any type, so
// no boolean check applies here.
func (v *validator) logicSection(base []any, section map[string]artifact.LogicKey, env Environment) {
	if len(section) == 0 {
		return
	}

	order, cyclic := sortLogicSection(section)
	for _, name := range cyclic {
		if v.add(Issue{
			Message:  fmt.Sprintf("circular dependency: logic key %q participates in a reference cycle", name),
			Path:     path(base, "logic", name),
			Severity: SeverityWarning,
			Variable: name,
		}) {
			return
		}
	}

	names := append(append([]string(nil), order...), cyclic...)
	for _, name := range names {
		if v.done {
			return
		}
		key := section[name]
		if key.Structured() {
			for _, member := range sortedKeys(key.Object) {
				v.expressionSlot(path(base, "logic", name, member), key.Object[member], env)
			}
		} else {
			v.expressionSlot(path(base, "logic", name), key.Expr, env)
		}
	}
}

// expressionSlot checks a slot whose value may be any type: syntax and
// unknown-variable diagnostics only.
func (v *validator) expressionSlot(p []any, text string, env Environment) {
	parsed, err := expression.Parse(text)
	if err != nil {
		v.add(Issue{
			Message:    err.Error(),
			Path:       p,
			Expression: text,
			Severity:   SeverityError,
		})
		return
	}
	v.unknownVariables(p, text, parsed, env)
}

// booleanSlot checks a boolean-context slot: syntax, unknown variables,
// then the boolean decision table. At most one issue class per slot, in
// that precedence order, so independently invalid slots count once each.
func (v *validator) booleanSlot(p []any, text string, env Environment) {
	parsed, err := expression.Parse(text)
	if err != nil {
		v.add(Issue{
			Message:    err.Error(),
			Path:       p,
			Expression: text,
			Severity:   SeverityError,
		})
		return
	}

	if v.unknownVariables(p, text, parsed, env) {
		return
	}

	check := ValidateBooleanExpression(text, env)
	if check.Valid {
		return
	}
	v.add(Issue{
		Message:      check.Message,
		Path:         p,
		Expression:   text,
		Severity:     check.Severity,
		ExpectedType: TypeBoolean,
		ActualType:   check.ActualType,
	})
}

// unknownVariables reports one error per undeclared reference and returns
// true when any were found.
func (v *validator) unknownVariables(p []any, text string, parsed *expression.Parsed, env Environment) bool {
	found := false
	for _, ref := range parsed.Variables() {
		if _, ok := env.Lookup(ref); ok {
			continue
		}
		found = true
		if v.add(Issue{
			Message:    fmt.Sprintf("Unknown variable %q", ref),
			Path:       p,
			Expression: text,
			Severity:   SeverityError,
			Variable:   ref,
		}) {
			return true
		}
	}
	return found
}

func (v *validator) fields(base []any, fields []artifact.Field, env Environment) {
	for _, f := range fields {
		if v.done {
			return
		}
		fp := path(base, "fields", f.ID)
		v.conditionalSlots(fp, f.Visible, f.Required, f.Disabled, env)
		if f.Type == artifact.FieldSet {
			v.fields(fp, f.Fields, env)
		}
	}
}

func (v *validator) annexes(base []any, annexes []artifact.Annex, env Environment) {
	for _, a := range annexes {
		if v.done {
			return
		}
		v.conditionalSlots(path(base, "annexes", a.ID), a.Visible, a.Required, "", env)
	}
}

func (v *validator) checklistItems(base []any, items []artifact.ChecklistItem, env Environment) {
	for _, item := range items {
		if v.done {
			return
		}
		v.conditionalSlots(path(base, "items", item.ID), item.Visible, item.Required, "", env)
	}
}

// conditionalSlots checks the visible/required/disabled expressions of one
// definition entry. Empty slots take the defaults and never produce issues.
func (v *validator) conditionalSlots(base []any, visible, required, disabled string, env Environment) {
	if visible != "" {
		v.booleanSlot(path(base, "visible"), visible, env)
	}
	if required != "" && !v.done {
		v.booleanSlot(path(base, "required"), required, env)
	}
	if disabled != "" && !v.done {
		v.booleanSlot(path(base, "disabled"), disabled, env)
	}
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
