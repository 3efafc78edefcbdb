package schemas

import (
	"encoding/json"
	"testing"

	"github.com/jonathan/cv-builder/internal/style"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument_Valid(t *testing.T) {
	doc := types.DocumentData{
		Kind:        types.KindCV,
		FirstName:   "Jean",
		LastName:    "Dupont",
		Experiences: []types.Experience{{Position: "Dev", Company: "Acme", Current: true}},
		Languages:   []types.Language{{Name: "Anglais", Level: "C1"}},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.NoError(t, ValidateDocument(data))
}

func TestValidateDocument_Invalid(t *testing.T) {
	err := ValidateDocument([]byte(`{"type":"resume","prenom":"Jean","experiences":[{"entreprise":"Acme"}]}`))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	fields := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "type")
	assert.Contains(t, fields, "(root)")
	assert.Contains(t, fields, "experiences.0")
}

func TestValidateDocument_Malformed(t *testing.T) {
	err := ValidateDocument([]byte(`{"prenom":`))
	require.Error(t, err)

	var ve *ValidationError
	assert.NotErrorAs(t, err, &ve)
}

func TestValidateStyle(t *testing.T) {
	data, err := json.Marshal(style.Default())
	require.NoError(t, err)
	assert.NoError(t, ValidateStyle(data))

	assert.Error(t, ValidateStyle([]byte(`{"fontSize":0}`)))
	assert.Error(t, ValidateStyle([]byte(`{"colour":"red"}`)))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope", []byte(`{}`))
	var le *SchemaLoadError
	assert.ErrorAs(t, err, &le)
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type":"object","required":["id"],"properties":{"id":{"type":"string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"id":"x"}`))

	err := ValidateJSONString(schema, `{}`)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "(root)", ve.Errors[0].Field)
	assert.Contains(t, err.Error(), "validation failed")
}
