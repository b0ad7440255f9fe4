package logic

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/formic-dev/formic/pkg/artifact"
	"github.com/formic-dev/formic/pkg/logic/expression"
)

// The definition validity states form a one-way pipeline:
//
//	unparsed form → CompileForm → *CompiledForm (parsed)
//	*CompiledForm → TypeCheck   → *CheckedForm  (type-checked, evaluable)
//
// Each transition consumes the previous state's type, so evaluating a
// definition that was never type-checked is a compile-time error, not a
// runtime guard. TypeCheck refuses to produce a *CheckedForm for a
// definition with error-severity issues: such a definition fails closed.

// CompiledForm is a parsed form definition: every expression slot parsed
// once, the type environment derived, and the logic dependency graph
// sorted. CompiledForm is immutable and safe for concurrent reads.
type CompiledForm struct {
	form *artifact.Form
	env  Environment

	fields  []compiledField
	annexes []compiledAnnex
	logic   map[string]compiledLogicKey

	logicOrder  []string
	cyclicKeys  []string
	fingerprint uint64

	parseIssues []Issue
}

type compiledField struct {
	field     *artifact.Field
	statePath string // dotted state key, e.g. "age" or "applicant.age"
	valuePath string // environment path, e.g. "fields.age.value"
	issuePath []any

	visible  *expression.Parsed
	required *expression.Parsed
	disabled *expression.Parsed

	children []compiledField
}

type compiledAnnex struct {
	annex     *artifact.Annex
	issuePath []any

	visible  *expression.Parsed
	required *expression.Parsed
}

type compiledLogicKey struct {
	key    artifact.LogicKey
	scalar *expression.Parsed
	object map[string]*expression.Parsed
	cyclic bool
}

// CompileForm parses every expression in the form. Syntax errors are
// collected as error-severity issues; the returned CompiledForm is still
// complete enough for TypeCheck to report everything else wrong with the
// definition at the same time.
func CompileForm(f *artifact.Form) (*CompiledForm, []Issue) {
	c := &CompiledForm{
		form:  f,
		env:   NewFormEnvironment(f),
		logic: make(map[string]compiledLogicKey, len(f.Logic)),
	}

	c.logicOrder, c.cyclicKeys = sortLogicSection(f.Logic)
	cyclic := make(map[string]bool, len(c.cyclicKeys))
	for _, name := range c.cyclicKeys {
		cyclic[name] = true
	}

	for _, name := range sortedLogicNames(f.Logic) {
		key := f.Logic[name]
		ck := compiledLogicKey{key: key, cyclic: cyclic[name]}
		if key.Structured() {
			ck.object = make(map[string]*expression.Parsed, len(key.Object))
			for _, member := range sortedKeys(key.Object) {
				ck.object[member] = c.parseSlot(key.Object[member], "logic", name, member)
			}
		} else {
			ck.scalar = c.parseSlot(key.Expr, "logic", name)
		}
		c.logic[name] = ck
	}

	c.fields = c.compileFields(nil, "", f.Fields)
	for _, a := range f.Annexes {
		annex := a
		c.annexes = append(c.annexes, compiledAnnex{
			annex:     &annex,
			issuePath: []any{"annexes", a.ID},
			visible:   c.parseSlot(a.Visible, "annexes", a.ID, "visible"),
			required:  c.parseSlot(a.Required, "annexes", a.ID, "required"),
		})
	}

	c.fingerprint = fingerprintForm(f)
	return c, c.parseIssues
}

func (c *CompiledForm) compileFields(base []any, statePrefix string, fields []artifact.Field) []compiledField {
	out := make([]compiledField, 0, len(fields))
	for i := range fields {
		f := &fields[i]
		issuePath := path(base, "fields", f.ID)
		cf := compiledField{
			field:     f,
			statePath: joinStatePath(statePrefix, f.ID),
			valuePath: valuePathOf(issuePath),
			issuePath: issuePath,
			visible:   c.parseSlotAt(f.Visible, path(issuePath, "visible")),
			required:  c.parseSlotAt(f.Required, path(issuePath, "required")),
			disabled:  c.parseSlotAt(f.Disabled, path(issuePath, "disabled")),
		}
		if f.Type == artifact.FieldSet {
			cf.children = c.compileFields(issuePath, cf.statePath, f.Fields)
		}
		out = append(out, cf)
	}
	return out
}

// parseSlot parses an expression slot, recording a syntax issue on failure.
// Empty slots return nil: the caller applies the slot's default.
func (c *CompiledForm) parseSlot(text string, pathElems ...any) *expression.Parsed {
	return c.parseSlotAt(text, pathElems)
}

func (c *CompiledForm) parseSlotAt(text string, p []any) *expression.Parsed {
	if text == "" {
		return nil
	}
	parsed, err := expression.Parse(text)
	if err != nil {
		c.parseIssues = append(c.parseIssues, Issue{
			Message:    err.Error(),
			Path:       p,
			Expression: text,
			Severity:   SeverityError,
		})
		return nil
	}
	return parsed
}

// Environment returns the form's derived type environment (read-only).
func (c *CompiledForm) Environment() Environment { return c.env }

// LogicOrder returns the safe linear evaluation order of the acyclic logic
// keys, and the keys excluded from it because they participate in cycles.
func (c *CompiledForm) LogicOrder() (order, cyclic []string) {
	return append([]string(nil), c.logicOrder...), append([]string(nil), c.cyclicKeys...)
}

// Fingerprint is a content hash of the definition's expression set, used
// with the snapshot identity as the runtime-state cache key.
func (c *CompiledForm) Fingerprint() uint64 { return c.fingerprint }

// TypeCheck runs the static lint pass over the parsed definition and moves
// it to the type-checked state. The returned issue list covers everything:
// parse failures, unknown variables, boolean-context mismatches and cycle
// warnings. When any issue has error severity the definition is invalid and
// no *CheckedForm is produced — evaluation fails closed.
func (c *CompiledForm) TypeCheck() (*CheckedForm, []Issue) {
	issues := append([]Issue(nil), c.parseIssues...)
	issues = append(issues, ValidateForm(c.form, DefaultOptions())...)
	issues = dedupeIssues(issues)

	if HasErrors(issues) {
		return nil, issues
	}
	return &CheckedForm{compiled: c, warnings: issues}, issues
}

// CheckedForm is a type-checked form definition in the valid or
// warnings-only state. It is immutable and safe to share across concurrent
// evaluations.
type CheckedForm struct {
	compiled *CompiledForm
	warnings []Issue
}

// Warnings returns the warning-severity issues the check produced.
func (cf *CheckedForm) Warnings() []Issue {
	return append([]Issue(nil), cf.warnings...)
}

// Form returns the underlying definition.
func (cf *CheckedForm) Form() *artifact.Form { return cf.compiled.form }

// dedupeIssues drops repeated findings for the same path and message.
// CompileForm and ValidateForm both parse the definition's expressions, so
// a syntax error would otherwise appear twice.
func dedupeIssues(issues []Issue) []Issue {
	seen := map[string]struct{}{}
	out := issues[:0]
	for _, issue := range issues {
		sig := fmt.Sprintf("%v|%s|%s", issue.Path, issue.Message, issue.Severity)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, issue)
	}
	return out
}

// fingerprintForm hashes the definition identity: every expression slot and
// every declared path/type, in a canonical order. Two structurally equal
// definitions share a fingerprint even when built as distinct values.
func fingerprintForm(f *artifact.Form) uint64 {
	h := xxhash.New()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = h.WriteString(p)
			_, _ = h.WriteString("\x1f")
		}
	}

	write("form", f.ID)
	var walkFields func(prefix string, fields []artifact.Field)
	walkFields = func(prefix string, fields []artifact.Field) {
		for _, fld := range fields {
			write("field", prefix+fld.ID, string(fld.Type), fld.Visible, fld.Required, fld.Disabled)
			if fld.Type == artifact.FieldSet {
				walkFields(prefix+fld.ID+".", fld.Fields)
			}
		}
	}
	walkFields("", f.Fields)

	for _, a := range f.Annexes {
		write("annex", a.ID, a.Visible, a.Required)
	}
	for _, p := range f.Parties {
		write("party", p.ID, p.Role)
	}
	for _, name := range sortedLogicNames(f.Logic) {
		key := f.Logic[name]
		write("logic", name, string(key.Type), key.Expr)
		for _, member := range sortedKeys(key.Object) {
			write("member", member, key.Object[member])
		}
	}
	return h.Sum64()
}

func sortedLogicNames(section map[string]artifact.LogicKey) []string {
	out := make([]string, 0, len(section))
	for name := range section {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func joinStatePath(prefix, id string) string {
	if prefix == "" {
		return id
	}
	return prefix + "." + id
}

// valuePathOf converts a field issue path into its environment value path
// (fields.<id>.value, fields.<set>.fields.<id>.value).
func valuePathOf(issuePath []any) string {
	s := ""
	for _, elem := range issuePath {
		if s != "" {
			s += "."
		}
		s += fmt.Sprint(elem)
	}
	return s + ".value"
}
