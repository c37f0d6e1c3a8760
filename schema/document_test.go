package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDocumentOrder(t *testing.T) {
	assert := assert.New(t)

	doc, err := DecodeDocument("x.json", []byte(`{"z": 1, "a": [true, null, "s", 2.5], "m": {"k2": 1, "k1": 2}}`))
	require.NoError(t, err)
	assert.Equal([]string{"z", "a", "m"}, doc.Keys())

	z, _ := doc.Get("z")
	assert.Equal(Number("1"), z)

	a, _ := doc.Get("a")
	assert.Equal([]any{true, nil, "s", Number("2.5")}, a)

	m, _ := doc.Get("m")
	require.IsType(t, &Object{}, m)
	assert.Equal([]string{"k2", "k1"}, m.(*Object).Keys())
}

func TestDecodeDocumentYAML(t *testing.T) {
	assert := assert.New(t)

	doc, err := DecodeDocument("x.yml", []byte("b: yes-string\na: 3\nc: true\nd: ~\n"))
	require.NoError(t, err)
	assert.Equal([]string{"b", "a", "c", "d"}, doc.Keys())

	c, _ := doc.Get("c")
	assert.Equal(true, c)
	d, ok := doc.Get("d")
	assert.True(ok)
	assert.Nil(d)
}

func TestDecodeDocumentErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := DecodeDocument("x.json", []byte(`{"a": 1,}`))
	assert.Error(err)

	_, err = DecodeDocument("x.json", []byte(`{"a": 1, "a": 2}`))
	assert.ErrorContains(err, "duplicate key")

	_, err = DecodeDocument("x.yaml", []byte("a: 1\na: 2\n"))
	assert.Error(err)

	_, err = DecodeDocument("x.json", []byte(`"just a string"`))
	assert.ErrorContains(err, "must be an object")
}

func TestPlain(t *testing.T) {
	assert := assert.New(t)

	doc, err := DecodeDocument("x.json", []byte(`{"n": 4, "l": ["a"], "o": {"b": false}}`))
	require.NoError(t, err)
	assert.Equal(map[string]any{
		"n": 4.0,
		"l": []any{"a"},
		"o": map[string]any{"b": false},
	}, Plain(doc))
}
