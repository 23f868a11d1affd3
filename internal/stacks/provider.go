package stacks

import (
	"github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/imamik/k8stacks/internal/resources"
)

// newProvider declares the explicit Kubernetes provider every stack
// resource is bound to. An empty kubeconfig uses the ambient configuration.
func newProvider(ctx *pulumi.Context, kubeconfig, kubeContext string) (*kubernetes.Provider, error) {
	opts := resources.ProviderOptions{
		CommonOptions: resources.CommonOptions{Name: "kubernetes"},
		Context:       kubeContext,
	}
	if kubeconfig != "" {
		opts.Kubeconfig = pulumi.String(kubeconfig)
	}
	return resources.NewKubernetesProvider(ctx, opts)
}
