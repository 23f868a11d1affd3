package helm

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Values represents helm chart values as a map.
type Values map[string]any

// Merge combines multiple Values maps with later maps taking precedence.
// The merge is shallow: an overlapping top-level key is replaced wholesale.
func Merge(valueMaps ...Values) Values {
	result := make(Values)
	for _, m := range valueMaps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}

// DeepMerge combines multiple Values maps recursively. Nested maps are merged
// key by key; any other value (including slices) from a later map replaces the
// earlier one.
func DeepMerge(valueMaps ...Values) Values {
	result := make(Values)
	for _, m := range valueMaps {
		deepMergeInto(result, m)
	}
	return result
}

func deepMergeInto(dst, src Values) {
	for k, v := range src {
		srcMap := toValuesMap(v)
		dstMap := toValuesMap(dst[k])
		if srcMap != nil && dstMap != nil {
			merged := make(Values, len(dstMap))
			deepMergeInto(merged, dstMap)
			deepMergeInto(merged, srcMap)
			dst[k] = merged
			continue
		}
		dst[k] = v
	}
}

// toValuesMap returns v as Values when it is a map, nil otherwise.
func toValuesMap(v any) Values {
	switch m := v.(type) {
	case Values:
		return m
	case map[string]any:
		return Values(m)
	default:
		return nil
	}
}

// ToMap converts the values recursively to plain map[string]any, unwrapping
// nested Values so the result can be handed to SDKs that reflect on types.
func (v Values) ToMap() map[string]any {
	if v == nil {
		return nil
	}
	result := make(map[string]any, len(v))
	for k, val := range v {
		result[k] = toPlain(val)
	}
	return result
}

func toPlain(v any) any {
	switch t := v.(type) {
	case Values:
		return t.ToMap()
	case map[string]any:
		return Values(t).ToMap()
	case []Values:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item.ToMap()
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = toPlain(item)
		}
		return out
	default:
		return v
	}
}

// ToYAML converts values to YAML bytes.
func (v Values) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(v.ToMap()); err != nil {
		return nil, fmt.Errorf("failed to encode values to YAML: %w", err)
	}

	return buf.Bytes(), nil
}

// FromYAML parses YAML bytes into Values.
func FromYAML(data []byte) (Values, error) {
	var values Values
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse YAML values: %w", err)
	}
	if values == nil {
		values = Values{}
	}
	return values, nil
}
