package resources

import (
	corev1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/core/v1"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// ConfigMapOptions describes a config map holding either a single Key/Value
// pair or a Data map. The two forms are mutually exclusive.
type ConfigMapOptions struct {
	ScopedOptions

	Key   string
	Value pulumi.StringInput

	Data map[string]string
}

func (o ConfigMapOptions) data() (pulumi.StringMap, error) {
	single := o.Key != "" || o.Value != nil
	switch {
	case single && len(o.Data) > 0:
		return nil, optionsErrorf("config map", o.Name, "key/value and data are mutually exclusive")
	case single:
		if o.Key == "" || o.Value == nil {
			return nil, optionsErrorf("config map", o.Name, "both key and value are required")
		}
		return pulumi.StringMap{o.Key: o.Value}, nil
	case len(o.Data) > 0:
		return pulumi.ToStringMap(o.Data), nil
	default:
		return nil, optionsErrorf("config map", o.Name, "one of key/value or data is required")
	}
}

// NewConfigMap declares a config map named o.Name.
func NewConfigMap(ctx *pulumi.Context, o ConfigMapOptions) (*corev1.ConfigMap, error) {
	if err := o.validate("config map"); err != nil {
		return nil, err
	}
	data, err := o.data()
	if err != nil {
		return nil, err
	}

	return corev1.NewConfigMap(ctx, o.Name, &corev1.ConfigMapArgs{
		Metadata: o.metadata(o.Name, o.objectLabels(""), nil),
		Data:     data,
	}, o.Options()...)
}
