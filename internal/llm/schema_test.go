package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoreSchema() *Schema {
	min, max := Range(0, 10)
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"name":  {Type: TypeString},
			"score": {Type: TypeNumber, Minimum: min, Maximum: max, Placeholders: []string{"N/A"}, Nullable: true},
			"tags":  {Type: TypeArray, Items: &Schema{Type: TypeString}, MinItems: AtLeast(1)},
		},
		Required: []string{"name", "score"},
	}
}

func TestValidate_Accepts(t *testing.T) {
	cases := []string{
		`{"name":"a","score":7}`,
		`{"name":"a","score":"N/A"}`,
		`{"name":"a","score":"n/a"}`,
		`{"name":"a","score":" N/a "}`,
		`{"name":"a","score":null}`,
		`{"name":"a","score":0,"tags":["x"],"extra":true}`,
	}
	for _, c := range cases {
		assert.NoError(t, Validate([]byte(c), scoreSchema()), c)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing required": `{"name":"a"}`,
		"wrong type":       `{"name":3,"score":2}`,
		"above maximum":    `{"name":"a","score":11}`,
		"unknown sentinel": `{"name":"a","score":"none"}`,
		"sentinel prefix":  `{"name":"a","score":"N/A, skipped"}`,
		"empty array":      `{"name":"a","score":1,"tags":[]}`,
		"not json":         `this is not json`,
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			err := Validate([]byte(c), scoreSchema())
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.NotEmpty(t, ve.Errors)
		})
	}
}

func TestPlaceholderPattern(t *testing.T) {
	assert.Equal(t, `^\s*(?:[Nn]/[Aa])\s*$`, placeholderPattern([]string{"N/A"}))
	assert.Equal(t, `^\s*(?:[Nn][Oo][Nn][Ee]|\?)\s*$`, placeholderPattern([]string{"none", "?"}))
}

func TestCleanJSONBlock(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanJSONBlock("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanJSONBlock("  {\"a\":1} "))
}
