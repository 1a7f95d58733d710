package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"seq":    int64(2),
		"action": "undo",
		"ok":     true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"action":"undo","ok":true,"seq":2}`, string(data))
}

func TestMarshalCanonical_DomainTypes(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"status":  StatusUndone,
		"op_type": OpDelete,
		"old":     Text("<x>"),
		"list":    []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"list":["a","b"],"old":"<x>","op_type":"delete","status":"undone"}`, string(data))
}

func TestMarshalCanonical_RejectsNullAndFloat(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)

	_, err = MarshalCanonical(Payload(nil))
	assert.Error(t, err)

	_, err = MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestMarshalCanonical_NFC(t *testing.T) {
	data, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(data))
}

func TestMarshalCanonical_LineSeparators(t *testing.T) {
	data, err := MarshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(data))

	// A literal backslash followed by the text u2028 stays escaped.
	data, err = MarshalCanonical(`\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(data))
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+10000 encodes as surrogate 0xD800 which sorts before U+E000 in UTF-16,
	// while UTF-8 byte order would put it last.
	data, err := MarshalCanonical(map[string]any{
		"\U00010000": int64(1),
		"\ue000":     int64(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":1,\"\ue000\":2}", string(data))
}
