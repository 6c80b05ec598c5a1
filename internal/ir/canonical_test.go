package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"b": 1, "a": 2, "c": 3})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":3}`, string(got))
}

func TestMarshalCanonical_NestedStructures(t *testing.T) {
	v := map[string]any{
		"z": []any{map[string]any{"y": true, "x": nil}},
		"a": "text",
	}
	got, err := MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"text","z":[{"x":null,"y":true}]}`, string(got))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"q": "<a & b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"q":"<a & b>"}`, string(got))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// U+00E9 as e + combining acute vs precomposed
	decomposed, err := MarshalCanonical(map[string]any{"s": "e\u0301"})
	require.NoError(t, err)
	composed, err := MarshalCanonical(map[string]any{"s": "\u00e9"})
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}

func TestCanonicalizeJSON_PreservesNumbers(t *testing.T) {
	got, err := CanonicalizeJSON([]byte(`{"amount": 1500.50, "big": 9007199254740993}`))
	require.NoError(t, err)
	assert.Equal(t, `{"amount":1500.50,"big":9007199254740993}`, string(got))
}

func TestCanonicalizeJSON_InvalidInput(t *testing.T) {
	_, err := CanonicalizeJSON([]byte(`{not json`))
	assert.Error(t, err)
}

func TestCanonicalizeJSON_WhitespaceInsensitive(t *testing.T) {
	a, err := CanonicalizeJSON([]byte(`{"a":1,"b":[1,2]}`))
	require.NoError(t, err)
	b, err := CanonicalizeJSON([]byte("{\n  \"b\": [1, 2],\n  \"a\": 1\n}"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
