package artifact

// FieldType tags a field with its value shape. Scalar tags map to scalar
// value types; structured tags (money, address, …) map to object values with
// a well-known layout.
type FieldType string

const (
	// Scalar field types.
	FieldText       FieldType = "text"
	FieldEmail      FieldType = "email"
	FieldUUID       FieldType = "uuid"
	FieldURI        FieldType = "uri"
	FieldNumber     FieldType = "number"
	FieldPercentage FieldType = "percentage"
	FieldRating     FieldType = "rating"
	FieldBoolean    FieldType = "boolean"
	FieldDate       FieldType = "date"

	// Structured field types.
	FieldMoney          FieldType = "money"
	FieldAddress        FieldType = "address"
	FieldPhone          FieldType = "phone"
	FieldCoordinate     FieldType = "coordinate"
	FieldBBox           FieldType = "bbox"
	FieldDuration       FieldType = "duration"
	FieldPerson         FieldType = "person"
	FieldOrganization   FieldType = "organization"
	FieldIdentification FieldType = "identification"

	// FieldSet nests a group of child fields. Child values are addressed
	// as fields.<set>.fields.<child>.value.
	FieldSet FieldType = "fieldset"
)

// Field is one fillable slot in a form or document definition.
type Field struct {
	ID    string
	Type  FieldType
	Label string

	// Visible, Required and Disabled are boolean-context expressions.
	// Empty strings take the defaults: visible, not required, not disabled.
	Visible  string
	Required string
	Disabled string

	// Fields holds the children of a fieldset; nil for other types.
	Fields []Field
}

// Annex is a slot for an attached document.
type Annex struct {
	ID    string
	Label string

	// Visible and Required are boolean-context expressions.
	Visible  string
	Required string
}

// Party identifies a participant whose details are filled at runtime.
type Party struct {
	ID   string
	Role string
}
