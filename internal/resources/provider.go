package resources

import (
	"github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// ProviderOptions selects the cluster a Kubernetes provider talks to.
type ProviderOptions struct {
	CommonOptions

	// Kubeconfig is kubeconfig content or a path; empty uses the ambient config.
	Kubeconfig pulumi.StringInput

	// Context selects a kubeconfig context.
	Context string
}

// NewKubernetesProvider declares an explicit Kubernetes provider with
// server-side apply enabled.
func NewKubernetesProvider(ctx *pulumi.Context, o ProviderOptions) (*kubernetes.Provider, error) {
	if err := o.validate("provider"); err != nil {
		return nil, err
	}

	args := &kubernetes.ProviderArgs{
		EnableServerSideApply: pulumi.BoolPtr(true),
	}
	if o.Kubeconfig != nil {
		args.Kubeconfig = o.Kubeconfig.ToStringOutput().ToStringPtrOutput()
	}
	if o.Context != "" {
		args.Context = pulumi.StringPtr(o.Context)
	}

	return kubernetes.NewProvider(ctx, o.Name, args, o.Options()...)
}
