package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArtifactKinds(t *testing.T) {
	logic := map[string]LogicKey{
		"isAdult": {Type: ValueBoolean, Expr: "fields.age.value >= 18"},
	}

	tests := []struct {
		name     string
		artifact Artifact
		kind     Kind
		key      string
	}{
		{
			name:     "form",
			artifact: &Form{Meta: Meta{ID: "registration"}, Logic: logic},
			kind:     KindForm,
			key:      "registration",
		},
		{
			name:     "document",
			artifact: &Document{Meta: Meta{ID: "receipt"}, Logic: logic},
			kind:     KindDocument,
			key:      "receipt",
		},
		{
			name:     "checklist",
			artifact: &Checklist{Meta: Meta{ID: "onboarding"}, Logic: logic},
			kind:     KindChecklist,
			key:      "onboarding",
		},
		{
			name:     "bundle",
			artifact: &Bundle{Meta: Meta{ID: "pack"}, Logic: logic},
			kind:     KindBundle,
			key:      "pack",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.artifact.Kind())
			assert.Equal(t, tt.key, tt.artifact.Key())
			assert.Equal(t, logic, tt.artifact.LogicSection())
		})
	}
}

func TestLogicKey_Structured(t *testing.T) {
	scalar := LogicKey{Expr: "fields.age.value >= 18"}
	assert.False(t, scalar.Structured())

	structured := LogicKey{Object: map[string]string{
		"net": "fields.price.value * fields.qty.value",
	}}
	assert.True(t, structured.Structured())

	assert.False(t, LogicKey{}.Structured())
}
