package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formic-dev/formic/pkg/artifact"
)

func ageConsentForm(consentVisible string) *artifact.Form {
	return &artifact.Form{
		Meta: artifact.Meta{ID: "registration"},
		Fields: []artifact.Field{
			{ID: "age", Type: artifact.FieldNumber},
			{ID: "consent", Type: artifact.FieldBoolean, Visible: consentVisible},
		},
	}
}

func TestValidateBooleanExpression_DecisionTable(t *testing.T) {
	env := Environment{
		"fields.age.value":  TypeNumber,
		"fields.name.value": TypeString,
		"fields.ok.value":   TypeBoolean,
	}

	tests := []struct {
		name       string
		expr       string
		valid      bool
		severity   Severity
		actualType InferredType
	}{
		{
			name:  "comparison is boolean",
			expr:  `fields.age.value >= 18`,
			valid: true,
		},
		{
			name:  "boolean field reference",
			expr:  `fields.ok.value`,
			valid: true,
		},
		{
			name:  "logical combination",
			expr:  `fields.ok.value and fields.age.value > 3`,
			valid: true,
		},
		{
			name:       "arithmetic is a provable mismatch",
			expr:       `fields.age.value + 10`,
			valid:      false,
			severity:   SeverityError,
			actualType: TypeNumber,
		},
		{
			name:       "string literal is a provable mismatch",
			expr:       `"always"`,
			valid:      false,
			severity:   SeverityError,
			actualType: TypeString,
		},
		{
			name:       "number reference is a provable mismatch",
			expr:       `fields.age.value`,
			valid:      false,
			severity:   SeverityError,
			actualType: TypeNumber,
		},
		{
			name:     "unresolved reference cannot be proven",
			expr:     `fields.ghost.value`,
			valid:    false,
			severity: SeverityWarning,
		},
		{
			name:     "logical over unresolved operand cannot be proven",
			expr:     `fields.ok.value and fields.ghost.value`,
			valid:    false,
			severity: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := ValidateBooleanExpression(tt.expr, env)
			assert.Equal(t, tt.valid, check.Valid)
			assert.Equal(t, TypeBoolean, check.ExpectedType)
			if !tt.valid {
				assert.Equal(t, tt.severity, check.Severity)
				assert.NotEmpty(t, check.Message)
			}
			if tt.actualType != "" {
				assert.Equal(t, tt.actualType, check.ActualType)
			}
		})
	}
}

func TestValidateBooleanExpression_SyntaxError(t *testing.T) {
	check := ValidateBooleanExpression(`fields.age.value >=`, Environment{})
	assert.False(t, check.Valid)
	assert.Equal(t, SeverityError, check.Severity)
	assert.Contains(t, check.Message, "syntax error")
}

func TestValidateForm_ComparisonVisible(t *testing.T) {
	// Scenario: number field age, consent.visible = "fields.age.value >= 18".
	form := ageConsentForm(`fields.age.value >= 18`)
	issues := ValidateForm(form, nil)
	assert.Empty(t, issues)
}

func TestValidateForm_ArithmeticVisible(t *testing.T) {
	// Scenario: the same slot holding arithmetic is one error.
	form := ageConsentForm(`fields.age.value + 10`)
	issues := ValidateForm(form, nil)
	require.Len(t, issues, 1)

	issue := issues[0]
	assert.Equal(t, SeverityError, issue.Severity)
	assert.Equal(t, TypeNumber, issue.ActualType)
	assert.Equal(t, TypeBoolean, issue.ExpectedType)
	assert.Equal(t, `fields.age.value + 10`, issue.Expression)
	assert.Contains(t, issue.Path, "visible")
	assert.Contains(t, issue.Path, "consent")
}

func TestValidateForm_UnknownVariable(t *testing.T) {
	form := ageConsentForm(`fields.aeg.value >= 18`)
	issues := ValidateForm(form, nil)
	require.Len(t, issues, 1)

	issue := issues[0]
	assert.Equal(t, SeverityError, issue.Severity)
	assert.Contains(t, issue.Message, "Unknown variable")
	assert.Contains(t, issue.Message, "fields.aeg.value")
	assert.Equal(t, "fields.aeg.value", issue.Variable)
}

func TestValidateForm_CollectAllVersusShortCircuit(t *testing.T) {
	// Three independently invalid expressions.
	form := &artifact.Form{
		Meta: artifact.Meta{ID: "broken"},
		Fields: []artifact.Field{
			{ID: "a", Type: artifact.FieldNumber, Visible: `fields.a.value + 1`},
			{ID: "b", Type: artifact.FieldText, Required: `fields.b.value *`},
			{ID: "c", Type: artifact.FieldBoolean, Disabled: `fields.missing.value`},
		},
	}

	all := ValidateForm(form, &Options{CollectAll: true})
	assert.Len(t, all, 3)

	first := ValidateForm(form, &Options{CollectAll: false})
	assert.Len(t, first, 1)
}

func TestValidateForm_TransitiveLogicKeyType(t *testing.T) {
	// B depends on A; A infers to number; a field using B in a boolean
	// context is flagged with A's inferred type.
	form := &artifact.Form{
		Meta: artifact.Meta{ID: "f"},
		Fields: []artifact.Field{
			{ID: "age", Type: artifact.FieldNumber},
			{ID: "info", Type: artifact.FieldText, Visible: `keyB`},
		},
		Logic: map[string]artifact.LogicKey{
			"keyA": {Expr: `fields.age.value + 1`},
			"keyB": {Expr: `keyA`},
		},
	}

	issues := ValidateForm(form, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, TypeNumber, issues[0].ActualType)
	assert.Equal(t, []any{"fields", "info", "visible"}, issues[0].Path)
}

func TestValidateForm_CyclicLogicKeysWarn(t *testing.T) {
	form := &artifact.Form{
		Meta: artifact.Meta{ID: "f"},
		Logic: map[string]artifact.LogicKey{
			"a": {Expr: `b`},
			"b": {Expr: `a`},
		},
	}

	issues := ValidateForm(form, nil)
	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.Equal(t, SeverityWarning, issue.Severity)
		assert.Contains(t, issue.Message, "circular dependency")
	}
}

func TestValidateForm_NestedFieldsetSlots(t *testing.T) {
	form := &artifact.Form{
		Meta: artifact.Meta{ID: "f"},
		Fields: []artifact.Field{
			{
				ID:   "applicant",
				Type: artifact.FieldSet,
				Fields: []artifact.Field{
					{ID: "age", Type: artifact.FieldNumber},
					{
						ID:       "consent",
						Type:     artifact.FieldBoolean,
						Required: `fields.applicant.fields.age.value * 2`,
					},
				},
			},
		},
	}

	issues := ValidateForm(form, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, TypeNumber, issues[0].ActualType)
	assert.Equal(t,
		[]any{"fields", "applicant", "fields", "consent", "required"},
		issues[0].Path)
}

func TestValidateForm_AnnexSlots(t *testing.T) {
	form := &artifact.Form{
		Meta: artifact.Meta{ID: "f"},
		Fields: []artifact.Field{
			{ID: "employed", Type: artifact.FieldBoolean},
		},
		Annexes: []artifact.Annex{
			{ID: "paystub", Required: `fields.employed.value`},
			{ID: "junk", Visible: `42`},
		},
	}

	issues := ValidateForm(form, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, []any{"annexes", "junk", "visible"}, issues[0].Path)
	assert.Equal(t, TypeNumber, issues[0].ActualType)
}

func TestValidateChecklist(t *testing.T) {
	checklist := &artifact.Checklist{
		Meta: artifact.Meta{ID: "onboarding"},
		Items: []artifact.ChecklistItem{
			{ID: "sign", Visible: `ready`},
			{ID: "pay", Visible: `amountDue`},
		},
		Logic: map[string]artifact.LogicKey{
			"ready":     {Expr: `true`},
			"amountDue": {Expr: `100 - 40`},
		},
	}

	issues := ValidateChecklist(checklist, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, []any{"items", "pay", "visible"}, issues[0].Path)
	assert.Equal(t, TypeNumber, issues[0].ActualType)
}

func registryBundle(include string) *artifact.Bundle {
	return &artifact.Bundle{
		Meta: artifact.Meta{ID: "pack"},
		Contents: []artifact.BundleItem{
			{Key: "main", Artifact: &artifact.Form{
				Meta:   artifact.Meta{ID: "main"},
				Fields: []artifact.Field{{ID: "amount", Type: artifact.FieldNumber}},
			}},
		},
		Registry: []artifact.RegistryItem{
			{ID: "large-order-terms", Include: include},
		},
	}
}

func TestValidateBundle_RegistryInclude(t *testing.T) {
	// Scenario: include condition over a nested form's field.
	bundle := registryBundle(`forms.main.fields.amount.value > 1000`)
	assert.Empty(t, ValidateBundle(bundle, nil))

	bundle = registryBundle(`forms.main.fields.amount.value + 100`)
	issues := ValidateBundle(bundle, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, TypeNumber, issues[0].ActualType)
	assert.Equal(t, []any{"registry", 0, "include"}, issues[0].Path)
}

func TestValidateBundle_RecursesIntoContents(t *testing.T) {
	bundle := &artifact.Bundle{
		Meta: artifact.Meta{ID: "pack"},
		Contents: []artifact.BundleItem{
			{Key: "ok", Artifact: ageConsentForm(`fields.age.value >= 18`)},
			{Key: "bad", Artifact: ageConsentForm(`fields.age.value + 10`)},
		},
	}

	issues := ValidateBundle(bundle, nil)
	require.Len(t, issues, 1)
	assert.Equal(t,
		[]any{"contents", 1, "artifact", "fields", "consent", "visible"},
		issues[0].Path)
	assert.Equal(t, TypeNumber, issues[0].ActualType)
}

func TestValidateBundle_NestedBundle(t *testing.T) {
	inner := registryBundle(`forms.main.fields.amount.value + 100`)
	outer := &artifact.Bundle{
		Meta:     artifact.Meta{ID: "outer"},
		Contents: []artifact.BundleItem{{Key: "inner", Artifact: inner}},
	}

	issues := ValidateBundle(outer, nil)
	require.Len(t, issues, 1)
	assert.Equal(t,
		[]any{"contents", 0, "artifact", "registry", 0, "include"},
		issues[0].Path)
}

func TestValidateForm_EmptySlotsAreDefaults(t *testing.T) {
	form := &artifact.Form{
		Meta:   artifact.Meta{ID: "f"},
		Fields: []artifact.Field{{ID: "age", Type: artifact.FieldNumber}},
	}
	assert.Empty(t, ValidateForm(form, nil))
}
