package artifact

// Kind discriminates the artifact variants.
type Kind string

const (
	KindForm      Kind = "form"
	KindDocument  Kind = "document"
	KindChecklist Kind = "checklist"
	KindBundle    Kind = "bundle"
)

// Artifact is the behavior shared by every variant. Concrete variants are
// *Form, *Document, *Checklist and *Bundle; consumers dispatch on the
// concrete type (or on Kind) with a type switch.
type Artifact interface {
	// Kind identifies the concrete variant.
	Kind() Kind

	// Key returns the artifact's identifier within its container.
	Key() string

	// LogicSection returns the artifact's named logic keys, keyed by name.
	// The returned map must be treated as read-only.
	LogicSection() map[string]LogicKey
}

// Meta carries the identity fields shared by all variants. Variants embed it
// so Key and Title are implemented once.
type Meta struct {
	// ID is the artifact key, unique within its container (e.g. a bundle).
	ID string

	// Title is the human-readable name shown in editors.
	Title string
}

// Key returns the artifact identifier.
func (m Meta) Key() string { return m.ID }

// Form is a fillable artifact: typed fields, annex slots, parties and a
// logic section of named reusable expressions.
type Form struct {
	Meta

	Fields  []Field
	Annexes []Annex
	Parties []Party

	// Logic maps logic-key name to its declaration.
	Logic map[string]LogicKey
}

// Kind implements Artifact.
func (f *Form) Kind() Kind { return KindForm }

// LogicSection implements Artifact.
func (f *Form) LogicSection() map[string]LogicKey { return f.Logic }

// Document is a renderable artifact. Its fields and annexes behave exactly
// like a form's for logic purposes; the rendering template itself is bound
// by an external engine and is out of scope here.
type Document struct {
	Meta

	Fields  []Field
	Annexes []Annex
	Parties []Party
	Logic   map[string]LogicKey
}

// Kind implements Artifact.
func (d *Document) Kind() Kind { return KindDocument }

// LogicSection implements Artifact.
func (d *Document) LogicSection() map[string]LogicKey { return d.Logic }

// Checklist is a list of conditional items.
type Checklist struct {
	Meta

	Items []ChecklistItem
	Logic map[string]LogicKey
}

// Kind implements Artifact.
func (c *Checklist) Kind() Kind { return KindChecklist }

// LogicSection implements Artifact.
func (c *Checklist) LogicSection() map[string]LogicKey { return c.Logic }

// ChecklistItem is a single conditional entry in a checklist.
type ChecklistItem struct {
	ID    string
	Label string

	// Visible and Required are boolean-context expressions. Empty means
	// the default (visible, not required).
	Visible  string
	Required string
}

// Bundle composes other artifacts. Contents are inline nested artifacts;
// registry items reference external material gated by an include condition.
type Bundle struct {
	Meta

	Contents []BundleItem
	Registry []RegistryItem
	Logic    map[string]LogicKey
}

// Kind implements Artifact.
func (b *Bundle) Kind() Kind { return KindBundle }

// LogicSection implements Artifact.
func (b *Bundle) LogicSection() map[string]LogicKey { return b.Logic }

// BundleItem is one inline nested artifact within a bundle. Key is the name
// the bundle's expressions use to address the nested artifact's values
// (forms.<key>.…, bundles.<key>.…).
type BundleItem struct {
	Key      string
	Artifact Artifact
}

// RegistryItem references external material included in the bundle when its
// Include condition holds. Empty Include means always included.
type RegistryItem struct {
	ID      string
	Include string
}
