package logic

import (
	"strings"

	"github.com/google/uuid"
)

// Data is the raw fill data for one snapshot: field values keyed by field
// ID (fieldset values are nested maps keyed by child ID), party details
// keyed by party ID, and annex attachment values keyed by annex ID.
type Data struct {
	Fields  map[string]any
	Parties map[string]any
	Annexes map[string]any
}

// Snapshot is one immutable set of filled-in values. Every data change
// must produce a new Snapshot, never patch an existing one; the identity
// minted at construction is the runtime-state cache key, so concurrent
// evaluations can share snapshots freely and never observe a half-updated
// state.
type Snapshot struct {
	id      string
	fields  map[string]any
	parties map[string]any
	annexes map[string]any
}

// NewSnapshot copies the data into a new immutable snapshot with a fresh
// identity.
func NewSnapshot(d Data) *Snapshot {
	return &Snapshot{
		id:      uuid.NewString(),
		fields:  copyValueMap(d.Fields),
		parties: copyValueMap(d.Parties),
		annexes: copyValueMap(d.Annexes),
	}
}

// ID returns the snapshot identity.
func (s *Snapshot) ID() string { return s.id }

// lookup resolves a dotted variable path to the snapshot value underneath
// it. ok reports whether a value is present; a declared path with no value
// returns ok=false and the caller supplies the absent sentinel.
func (s *Snapshot) lookup(p string) (any, bool) {
	parts := strings.Split(p, ".")
	switch parts[0] {
	case "fields":
		return fieldValue(s.fields, parts[1:])
	case "parties":
		if len(parts) != 3 {
			return nil, false
		}
		return partyValue(s.parties, parts[1], parts[2])
	case "annexes":
		if len(parts) != 3 || parts[2] != "attached" {
			return nil, false
		}
		return annexValue(s.annexes, parts[1])
	default:
		return nil, false
	}
}

// fieldValue walks fields.<id>.value and fields.<set>.fields.<id>.value
// chains through nested maps.
func fieldValue(values map[string]any, parts []string) (any, bool) {
	if len(parts) < 2 {
		return nil, false
	}
	v, ok := values[parts[0]]
	if !ok {
		return nil, false
	}
	if len(parts) == 2 && parts[1] == "value" {
		return v, true
	}
	if len(parts) > 2 && parts[1] == "fields" {
		nested, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		return fieldValue(nested, parts[2:])
	}
	return nil, false
}

func partyValue(parties map[string]any, id, attr string) (any, bool) {
	v, ok := parties[id]
	if attr == "filled" {
		return ok, true
	}
	if !ok {
		return nil, false
	}
	details, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	attrVal, ok := details[attr]
	return attrVal, ok
}

func annexValue(annexes map[string]any, id string) (any, bool) {
	v, ok := annexes[id]
	if !ok {
		// An annex with no entry is simply not attached.
		return false, true
	}
	if b, ok := v.(bool); ok {
		return b, true
	}
	// Any non-boolean entry (file reference, metadata map) counts as
	// attached.
	return true, true
}

func copyValueMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyValueMap(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = copyValue(elem)
		}
		return out
	default:
		return val
	}
}
