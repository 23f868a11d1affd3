package resources

import (
	corev1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/core/v1"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// NamespaceOptions describes a namespace. Namespaces are cluster scoped.
type NamespaceOptions struct {
	CommonOptions
}

// NewNamespace declares a namespace named o.Name.
func NewNamespace(ctx *pulumi.Context, o NamespaceOptions) (*corev1.Namespace, error) {
	if err := o.validate("namespace"); err != nil {
		return nil, err
	}

	scope := ScopedOptions{CommonOptions: o.CommonOptions, ClusterScoped: true}
	return corev1.NewNamespace(ctx, o.Name, &corev1.NamespaceArgs{
		Metadata: scope.metadata(o.Name, o.objectLabels(""), nil),
	}, o.Options()...)
}
