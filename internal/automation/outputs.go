package automation

import (
	"github.com/pulumi/pulumi/sdk/v3/go/auto"
	"sigs.k8s.io/yaml"
)

// SecretMask replaces secret output values when they are not revealed.
const SecretMask = "[secret]"

// Output is one stack output.
type Output struct {
	Value  any
	Secret bool
}

// Outputs are the stack outputs keyed by name.
type Outputs map[string]Output

func fromOutputMap(m auto.OutputMap) Outputs {
	out := make(Outputs, len(m))
	for k, v := range m {
		out[k] = Output{Value: v.Value, Secret: v.Secret}
	}
	return out
}

// Values returns the plain output values. Secrets are masked unless
// showSecrets is set.
func (o Outputs) Values(showSecrets bool) map[string]any {
	values := make(map[string]any, len(o))
	for k, v := range o {
		if v.Secret && !showSecrets {
			values[k] = SecretMask
			continue
		}
		values[k] = v.Value
	}
	return values
}

// YAML renders the outputs as YAML with sorted keys.
func (o Outputs) YAML(showSecrets bool) ([]byte, error) {
	return yaml.Marshal(o.Values(showSecrets))
}

// String returns the output as a string, or "" when it is not one.
func (o Outputs) String(name string) string {
	s, _ := o[name].Value.(string)
	return s
}
