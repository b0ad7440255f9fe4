package logic

import (
	"github.com/formic-dev/formic/pkg/artifact"
	"github.com/formic-dev/formic/pkg/logic/expression"
)

// Environment maps variable paths to their statically declared or inferred
// types. It is derived once per definition and shared read-only across any
// number of concurrent validations and evaluations.
type Environment map[string]InferredType

// Lookup resolves a variable path.
func (e Environment) Lookup(path string) (InferredType, bool) {
	t, ok := e[path]
	return t, ok
}

// NewFormEnvironment derives the type environment of a form: field value
// paths from their type tags (recursing into fieldsets), party and annex
// paths, and the bare names of logic keys.
func NewFormEnvironment(f *artifact.Form) Environment {
	env := Environment{}
	env.addFields("fields.", f.Fields)
	env.addParties(f.Parties)
	env.addAnnexes(f.Annexes)
	env.addLogicSection(f.Logic)
	return env
}

// NewDocumentEnvironment derives the type environment of a document.
// Documents carry the same field/annex/logic structure as forms.
func NewDocumentEnvironment(d *artifact.Document) Environment {
	env := Environment{}
	env.addFields("fields.", d.Fields)
	env.addParties(d.Parties)
	env.addAnnexes(d.Annexes)
	env.addLogicSection(d.Logic)
	return env
}

// NewChecklistEnvironment derives the type environment of a checklist:
// only its logic keys are addressable.
func NewChecklistEnvironment(c *artifact.Checklist) Environment {
	env := Environment{}
	env.addLogicSection(c.Logic)
	return env
}

// NewBundleEnvironment derives the type environment of a bundle: the merged
// sub-environments of every inline nested artifact under forms.<key>.… /
// bundles.<key>.… prefixes (including each nested artifact's own logic-key
// names), plus the bundle's own logic keys under their bare names.
func NewBundleEnvironment(b *artifact.Bundle) Environment {
	env := Environment{}
	for _, item := range b.Contents {
		sub, prefix := contentEnvironment(item)
		if sub == nil {
			continue
		}
		for path, t := range sub {
			env[prefix+path] = t
		}
	}
	env.addLogicSection(b.Logic)
	return env
}

// contentEnvironment builds the environment of one inline artifact and the
// path prefix it merges under.
func contentEnvironment(item artifact.BundleItem) (Environment, string) {
	switch a := item.Artifact.(type) {
	case *artifact.Form:
		return NewFormEnvironment(a), "forms." + item.Key + "."
	case *artifact.Document:
		return NewDocumentEnvironment(a), "documents." + item.Key + "."
	case *artifact.Checklist:
		return NewChecklistEnvironment(a), "checklists." + item.Key + "."
	case *artifact.Bundle:
		return NewBundleEnvironment(a), "bundles." + item.Key + "."
	default:
		return nil, ""
	}
}

func (e Environment) addFields(prefix string, fields []artifact.Field) {
	for _, f := range fields {
		base := prefix + f.ID
		e[base+".value"] = typeOfField(f.Type)
		if f.Type == artifact.FieldSet {
			e.addFields(base+".fields.", f.Fields)
		}
	}
}

func (e Environment) addParties(parties []artifact.Party) {
	for _, p := range parties {
		e["parties."+p.ID+".name"] = TypeString
		e["parties."+p.ID+".email"] = TypeString
		e["parties."+p.ID+".filled"] = TypeBoolean
	}
}

func (e Environment) addAnnexes(annexes []artifact.Annex) {
	for _, a := range annexes {
		e["annexes."+a.ID+".attached"] = TypeBoolean
	}
}

// addLogicSection maps each logic key's bare name to its type. A declared
// type wins; an undeclared scalar key takes the type inferred from its
// expression. Keys are processed in dependency order so a key referencing
// an earlier key sees that key's type already in the environment; the
// inferred type of a non-boolean key therefore propagates through reference
// chains. Cyclic keys stay unknown unless declared.
func (e Environment) addLogicSection(section map[string]artifact.LogicKey) {
	if len(section) == 0 {
		return
	}

	order, cyclic := sortLogicSection(section)
	for _, name := range cyclic {
		key := section[name]
		if key.Type != "" {
			e[name] = typeOfValue(key.Type)
		} else {
			e[name] = TypeUnknown
		}
	}

	for _, name := range order {
		key := section[name]
		switch {
		case key.Type != "":
			e[name] = typeOfValue(key.Type)
		case key.Structured():
			e[name] = TypeObject
		default:
			e[name] = e.inferredKeyType(key.Expr)
		}
	}
}

// inferredKeyType infers an undeclared scalar key's type from its
// expression against the environment built so far.
func (e Environment) inferredKeyType(text string) InferredType {
	parsed, err := expression.Parse(text)
	if err != nil {
		return TypeUnknown
	}
	inf := Infer(parsed, e)
	if inf.Confidence != ConfidenceCertain {
		return TypeUnknown
	}
	return inf.Type
}
