package resultcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Deterministic(t *testing.T) {
	args := map[string]interface{}{
		"b": 2,
		"a": 1,
		"nested": map[string]interface{}{
			"z": true,
			"y": []interface{}{"one", "two"},
		},
	}

	first, err := Key("search_web", "1.0.0", args)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := Key("search_web", "1.0.0", args)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestKey_IndependentOfInsertionOrder(t *testing.T) {
	a := map[string]interface{}{"x": 1, "y": 2, "z": 3}
	b := map[string]interface{}{"z": 3, "x": 1, "y": 2}

	keyA, err := Key("tool", "1", a)
	require.NoError(t, err)
	keyB, err := Key("tool", "1", b)
	require.NoError(t, err)

	assert.Equal(t, keyA, keyB)
}

func TestKey_DistinguishesInputs(t *testing.T) {
	base, err := Key("tool", "1", map[string]interface{}{"q": "go"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		tool    string
		version string
		args    map[string]interface{}
	}{
		{"different tool", "other", "1", map[string]interface{}{"q": "go"}},
		{"different version", "tool", "2", map[string]interface{}{"q": "go"}},
		{"different args", "tool", "1", map[string]interface{}{"q": "rust"}},
		{"extra arg", "tool", "1", map[string]interface{}{"q": "go", "limit": 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Key(tt.tool, tt.version, tt.args)
			require.NoError(t, err)
			assert.NotEqual(t, base, key)
		})
	}
}

func TestKey_NilArguments(t *testing.T) {
	fromNil, err := Key("tool", "1", nil)
	require.NoError(t, err)
	assert.Len(t, fromNil, 64)
}

func TestKey_UnmarshalableArguments(t *testing.T) {
	_, err := Key("tool", "1", map[string]interface{}{
		"bad": func() {},
	})
	assert.Error(t, err)
}
