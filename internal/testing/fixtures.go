package testing

import (
	"sort"

	"github.com/imamik/k8stacks/internal/config"
)

// StackConfig converts rendered stack values into the flat config map and
// secret key list RunWithConfig expects.
func StackConfig(values map[string]config.Value) (map[string]string, []string) {
	cfg := make(map[string]string, len(values))
	var secretKeys []string
	for k, v := range values {
		cfg[k] = v.Value
		if v.Secret {
			secretKeys = append(secretKeys, k)
		}
	}
	sort.Strings(secretKeys)
	return cfg, secretKeys
}
