package helm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		input    []Values
		expected Values
	}{
		{
			name: "override wins at overlapping key",
			input: []Values{
				{"installCRDs": true},
				{"installCRDs": false, "x": 1},
			},
			expected: Values{"installCRDs": false, "x": 1},
		},
		{
			name: "non-overlapping keys preserved from both",
			input: []Values{
				{"key1": "value1", "key2": "value2"},
				{"key2": "override", "key3": "value3"},
			},
			expected: Values{"key1": "value1", "key2": "override", "key3": "value3"},
		},
		{
			name:     "merge empty maps",
			input:    []Values{{}, {}},
			expected: Values{},
		},
		{
			name:     "nil overlay",
			input:    []Values{{"replicas": 1}, nil},
			expected: Values{"replicas": 1},
		},
		{
			name: "later maps take precedence",
			input: []Values{
				{"replicas": 1},
				{"replicas": 2},
				{"replicas": 3},
			},
			expected: Values{"replicas": 3},
		},
		{
			name: "nested values replaced wholesale",
			input: []Values{
				{"controller": Values{"replicas": 1, "kind": "Deployment"}},
				{"controller": Values{"replicas": 2}},
			},
			expected: Values{"controller": Values{"replicas": 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Merge(tt.input...)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	defaults := Values{"installCRDs": true}
	overlay := Values{"installCRDs": false}

	_ = Merge(defaults, overlay)

	assert.Equal(t, true, defaults["installCRDs"])
	assert.Equal(t, false, overlay["installCRDs"])
}

func TestDeepMerge(t *testing.T) {
	t.Run("shallow merge - same as Merge", func(t *testing.T) {
		result := DeepMerge(
			Values{"key1": "value1", "key2": "value2"},
			Values{"key2": "override", "key3": "value3"},
		)
		assert.Equal(t, "value1", result["key1"])
		assert.Equal(t, "override", result["key2"])
		assert.Equal(t, "value3", result["key3"])
	})

	t.Run("deep merge - nested maps", func(t *testing.T) {
		result := DeepMerge(
			Values{
				"controller": map[string]any{
					"replicas": 1,
					"podSecurityContext": map[string]any{
						"enabled": true,
						"fsGroup": 1001,
					},
				},
			},
			Values{
				"controller": Values{
					"replicas": 2,
					"nodeSelector": map[string]any{
						"kubernetes.io/os": "linux",
					},
				},
			},
		)

		controller := toValuesMap(result["controller"])
		require.NotNil(t, controller)
		assert.Equal(t, 2, controller["replicas"])

		podSec := toValuesMap(controller["podSecurityContext"])
		require.NotNil(t, podSec, "podSecurityContext should be preserved")
		assert.Equal(t, true, podSec["enabled"])
		assert.Equal(t, 1001, podSec["fsGroup"])

		nodeSelector := toValuesMap(controller["nodeSelector"])
		require.NotNil(t, nodeSelector)
		assert.Equal(t, "linux", nodeSelector["kubernetes.io/os"])
	})

	t.Run("map replaced by scalar", func(t *testing.T) {
		result := DeepMerge(
			Values{"service": Values{"type": "LoadBalancer"}},
			Values{"service": nil},
		)
		assert.Nil(t, result["service"])
	})

	t.Run("slices are replaced", func(t *testing.T) {
		result := DeepMerge(
			Values{"args": []any{"a", "b"}},
			Values{"args": []any{"c"}},
		)
		assert.Equal(t, []any{"c"}, result["args"])
	})

	t.Run("inputs untouched", func(t *testing.T) {
		base := Values{"controller": Values{"replicas": 1}}
		_ = DeepMerge(base, Values{"controller": Values{"replicas": 3}})
		assert.Equal(t, 1, base["controller"].(Values)["replicas"])
	})
}

func TestToMap(t *testing.T) {
	v := Values{
		"controller": Values{
			"tolerations": []Values{{"key": "a"}},
			"extraArgs":   []any{Values{"k": "v"}, "plain"},
		},
		"plain": map[string]any{"nested": Values{"x": 1}},
	}

	m := v.ToMap()

	controller, ok := m["controller"].(map[string]any)
	require.True(t, ok, "nested Values should become map[string]any")

	tolerations, ok := controller["tolerations"].([]any)
	require.True(t, ok)
	_, ok = tolerations[0].(map[string]any)
	assert.True(t, ok)

	extraArgs := controller["extraArgs"].([]any)
	_, ok = extraArgs[0].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "plain", extraArgs[1])

	plain := m["plain"].(map[string]any)
	_, ok = plain["nested"].(map[string]any)
	assert.True(t, ok)

	assert.Nil(t, Values(nil).ToMap())
}

func TestToYAML(t *testing.T) {
	values := Values{
		"replicas": 2,
		"image": Values{
			"repository": "nginx",
			"tag":        "1.27",
		},
	}

	yaml, err := values.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(yaml), "replicas: 2")
	assert.Contains(t, string(yaml), "repository: nginx")
	assert.Contains(t, string(yaml), `tag: "1.27"`)
}

func TestFromYAML(t *testing.T) {
	yamlData := []byte(`
installCRDs: true
controller:
  replicaCount: 2
`)

	values, err := FromYAML(yamlData)
	require.NoError(t, err)
	assert.Equal(t, true, values["installCRDs"])
	assert.NotNil(t, values["controller"])

	empty, err := FromYAML(nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)

	_, err = FromYAML([]byte("- not\n- a map"))
	assert.Error(t, err)
}
