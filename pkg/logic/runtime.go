package logic

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/formic-dev/formic/internal/log"
	"github.com/formic-dev/formic/pkg/artifact"
	"github.com/formic-dev/formic/pkg/errors"
	"github.com/formic-dev/formic/pkg/logic/expression"
)

// FieldState is the evaluated runtime state of one field.
type FieldState struct {
	// Value is the concrete filled-in value, or nil when absent.
	Value    any
	Visible  bool
	Required bool
	Disabled bool
}

// AnnexState is the evaluated runtime state of one annex slot.
type AnnexState struct {
	Visible  bool
	Required bool
}

// State is the runtime state of a form for one data snapshot: per-field and
// per-annex conditions plus every evaluated logic value. It is pure data —
// recomputing it from the same (definition, snapshot) pair yields a
// deep-equal result — and must not be mutated.
type State struct {
	// Fields is keyed by field path within the form ("age", or
	// "applicant.age" for a fieldset child).
	Fields map[string]FieldState

	// Annexes is keyed by annex ID.
	Annexes map[string]AnnexState

	// LogicValues holds each evaluated logic key by name. Keys excluded
	// from evaluation by a dependency cycle are not present.
	LogicValues map[string]any
}

// Engine evaluates type-checked forms against snapshots. It memoizes
// compiled definitions by fingerprint and runtime states by (definition
// fingerprint, snapshot identity), so repeated evaluation of an unchanged
// pair is a cache read. The zero value is not usable; construct with
// NewEngine. All methods are safe for concurrent use.
type Engine struct {
	logger *slog.Logger

	mu      sync.RWMutex
	checked map[uint64]*CheckedForm
	states  map[stateKey]*State
}

type stateKey struct {
	definition uint64
	snapshot   string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine's structured logger. The default drops all
// records.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a new evaluation engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:  log.Discard(),
		checked: make(map[uint64]*CheckedForm),
		states:  make(map[stateKey]*State),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateForm computes the runtime state of the form under the snapshot.
// The form is compiled and type-checked first (memoized by fingerprint);
// a definition with error-severity issues fails closed: the issues are
// returned with a nil state and an *errors.ValidationError. Warning-only
// definitions evaluate normally and their warnings are returned alongside
// the state.
//
// Any other returned error is an *errors.EvaluationError (or a wrap of
// one): a runtime type clash that static checking could not rule out,
// signalling a data-integrity bug rather than a user-facing condition.
func (e *Engine) EvaluateForm(f *artifact.Form, snap *Snapshot) (*State, []Issue, error) {
	checked, issues := e.check(f)
	if checked == nil {
		return nil, issues, &errors.ValidationError{
			Field:      f.ID,
			Message:    "definition has error-severity logic issues",
			Suggestion: "Fix the reported issues and re-validate the definition",
		}
	}
	state, err := e.evaluate(checked, snap)
	if err != nil {
		return nil, issues, err
	}
	return state, issues, nil
}

// ClearCache drops every memoized definition and state. Mainly useful for
// tests.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	e.checked = make(map[uint64]*CheckedForm)
	e.states = make(map[stateKey]*State)
	e.mu.Unlock()
}

// CacheSize returns the number of memoized runtime states.
func (e *Engine) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.states)
}

// check compiles and type-checks the form, memoizing by fingerprint.
func (e *Engine) check(f *artifact.Form) (*CheckedForm, []Issue) {
	fp := fingerprintForm(f)

	e.mu.RLock()
	cached, ok := e.checked[fp]
	e.mu.RUnlock()
	if ok {
		return cached, cached.warnings
	}

	compiled, _ := CompileForm(f)
	checked, issues := compiled.TypeCheck()
	if checked == nil {
		e.logger.Debug("form failed closed: error-severity logic issues",
			log.ArtifactKey, f.ID, log.IssueCountKey, len(issues))
		return nil, issues
	}

	e.mu.Lock()
	e.checked[fp] = checked
	e.mu.Unlock()
	return checked, issues
}

// evaluate computes or recalls the state for (definition, snapshot).
func (e *Engine) evaluate(checked *CheckedForm, snap *Snapshot) (*State, error) {
	key := stateKey{definition: checked.compiled.fingerprint, snapshot: snap.ID()}

	e.mu.RLock()
	cached, ok := e.states[key]
	e.mu.RUnlock()
	if ok {
		e.logger.Log(context.Background(), log.LevelTrace, "runtime state cache hit",
			log.ArtifactKey, checked.compiled.form.ID, log.SnapshotKey, snap.ID())
		return cached, nil
	}

	started := time.Now()
	state, err := checked.Evaluate(snap)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("runtime state computed",
		log.ArtifactKey, checked.compiled.form.ID,
		log.SnapshotKey, snap.ID(),
		log.DurationKey, time.Since(started).Milliseconds())

	e.mu.Lock()
	e.states[key] = state
	e.mu.Unlock()
	return state, nil
}

// Evaluate computes the form's runtime state under the snapshot: logic
// keys first, in dependency order with per-pass memoization, then every
// field's value/visible/required/disabled and every annex's
// visible/required. Missing expressions take the defaults — visible true,
// required false, disabled false.
func (cf *CheckedForm) Evaluate(snap *Snapshot) (*State, error) {
	c := cf.compiled
	ctx := &evalContext{compiled: c, snap: snap, logic: map[string]any{}}

	// Cyclic keys never evaluate; within this pass they resolve as
	// absent so the acyclic remainder still produces a state.
	for _, name := range c.logicOrder {
		if err := ctx.evaluateKey(name); err != nil {
			return nil, errors.Wrapf(err, "evaluating logic key %q", name)
		}
	}

	state := &State{
		Fields:      make(map[string]FieldState),
		Annexes:     make(map[string]AnnexState, len(c.annexes)),
		LogicValues: make(map[string]any, len(ctx.logic)),
	}
	for name, value := range ctx.logic {
		if expression.IsAbsent(value) {
			value = nil
		}
		state.LogicValues[name] = value
	}

	if err := evaluateFields(ctx, c.fields, state); err != nil {
		return nil, err
	}
	for _, ca := range c.annexes {
		visible, err := ctx.boolSlot(ca.visible, true)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluating annex %q", ca.annex.ID)
		}
		required, err := ctx.boolSlot(ca.required, false)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluating annex %q", ca.annex.ID)
		}
		state.Annexes[ca.annex.ID] = AnnexState{Visible: visible, Required: required}
	}
	return state, nil
}

func evaluateFields(ctx *evalContext, fields []compiledField, state *State) error {
	for _, cf := range fields {
		visible, err := ctx.boolSlot(cf.visible, true)
		if err != nil {
			return errors.Wrapf(err, "evaluating field %q", cf.statePath)
		}
		required, err := ctx.boolSlot(cf.required, false)
		if err != nil {
			return errors.Wrapf(err, "evaluating field %q", cf.statePath)
		}
		disabled, err := ctx.boolSlot(cf.disabled, false)
		if err != nil {
			return errors.Wrapf(err, "evaluating field %q", cf.statePath)
		}

		value, _ := ctx.snap.lookup(cf.valuePath)
		if expression.IsAbsent(value) {
			value = nil
		}
		state.Fields[cf.statePath] = FieldState{
			Value:    value,
			Visible:  visible,
			Required: required,
			Disabled: disabled,
		}

		if err := evaluateFields(ctx, cf.children, state); err != nil {
			return err
		}
	}
	return nil
}

// evalContext resolves variable paths during one evaluation pass. Logic
// keys are memoized for the pass; everything else reads the snapshot.
type evalContext struct {
	compiled *CompiledForm
	snap     *Snapshot
	logic    map[string]any
}

// Resolve implements expression.Resolver. Only paths declared in the
// definition's environment resolve; declared paths with no value in the
// snapshot resolve to the absent sentinel.
func (ctx *evalContext) Resolve(p string) (any, bool) {
	if ck, ok := ctx.compiled.logic[p]; ok {
		if ck.cyclic {
			return expression.Absent, true
		}
		if value, done := ctx.logic[p]; done {
			return value, true
		}
		// Reachable only through an expression evaluated before its
		// dependency's turn in the pass; the order pre-computed at
		// compile time prevents it for acyclic keys.
		return expression.Absent, true
	}

	if _, declared := ctx.compiled.env.Lookup(p); !declared {
		return nil, false
	}
	value, ok := ctx.snap.lookup(p)
	if !ok || value == nil {
		return expression.Absent, true
	}
	return value, true
}

// evaluateKey evaluates one logic key into the pass memo.
func (ctx *evalContext) evaluateKey(name string) error {
	ck := ctx.compiled.logic[name]
	if ck.cyclic {
		return nil
	}
	if ck.scalar != nil {
		value, err := expression.Evaluate(ck.scalar, ctx)
		if err != nil {
			return err
		}
		ctx.logic[name] = value
		return nil
	}
	if ck.object != nil {
		obj := make(map[string]any, len(ck.object))
		for member, parsed := range ck.object {
			if parsed == nil {
				obj[member] = nil
				continue
			}
			value, err := expression.Evaluate(parsed, ctx)
			if err != nil {
				return errors.Wrapf(err, "member %q", member)
			}
			if expression.IsAbsent(value) {
				value = nil
			}
			obj[member] = value
		}
		ctx.logic[name] = obj
	}
	return nil
}

// boolSlot evaluates a boolean-context slot, applying the default for
// missing expressions.
func (ctx *evalContext) boolSlot(parsed *expression.Parsed, def bool) (bool, error) {
	if parsed == nil {
		return def, nil
	}
	return expression.EvaluateBool(parsed, ctx)
}
