package apps

import (
	"fmt"

	corev1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/core/v1"
	helmv3 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/helm/v3"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/imamik/k8stacks/internal/helm"
	"github.com/imamik/k8stacks/internal/resources"
	"github.com/imamik/k8stacks/internal/util/naming"
)

const (
	defaultArgoCDNamespace = "argocd"
	defaultArgoCDSubdomain = "argocd"
)

// ArgoCDArgs configures NewArgoCD.
type ArgoCDArgs struct {
	// Namespace defaults to "argocd".
	Namespace string

	// Domain and Subdomain form the UI host; Subdomain defaults to "argocd".
	// An empty Domain disables the ingress.
	Domain    string
	Subdomain string

	// Issuer enables TLS on the ingress.
	Issuer       *resources.IssuerRef
	IngressClass string

	// HA runs redis-ha and two replicas of the server and repo server.
	HA bool

	Chart  helm.ChartSpec
	Values helm.Values
}

// ArgoCD is the argo-cd component.
type ArgoCD struct {
	pulumi.ResourceState

	Namespace *corev1.Namespace
	Release   *helmv3.Release

	NamespaceName pulumi.StringOutput
	URL           pulumi.StringOutput
}

func (a ArgoCDArgs) host() string {
	if a.Domain == "" {
		return ""
	}
	return naming.Host(defaultString(a.Subdomain, defaultArgoCDSubdomain), a.Domain)
}

func argoCDValues(args ArgoCDArgs) helm.Values {
	replicas := 1
	if args.HA {
		replicas = 2
	}
	tolerations := []helm.Values{
		{
			"key":      "node.cloudprovider.kubernetes.io/uninitialized",
			"operator": "Exists",
		},
	}

	values := helm.Values{
		"crds": helm.Values{
			"install": true,
			"keep":    true,
		},
		"configs": helm.Values{
			"params": helm.Values{
				// TLS terminates at the ingress controller.
				"server.insecure": true,
			},
		},
		"dex": helm.Values{
			"enabled": false,
		},
		"controller": helm.Values{
			"replicas":    1,
			"tolerations": tolerations,
		},
		"server": helm.Values{
			"replicas":    replicas,
			"tolerations": tolerations,
		},
		"repoServer": helm.Values{
			"replicas":    replicas,
			"tolerations": tolerations,
		},
		"redis": helm.Values{
			"enabled": !args.HA,
		},
		"redis-ha": helm.Values{
			"enabled": args.HA,
		},
		"applicationSet": helm.Values{
			"enabled": true,
		},
		"notifications": helm.Values{
			"enabled": true,
		},
	}

	if host := args.host(); host != "" {
		values["global"] = helm.Values{"domain": host}
		server := values["server"].(helm.Values)
		server["ingress"] = helm.Values{
			"enabled":          true,
			"ingressClassName": defaultString(args.IngressClass, defaultIngressClass),
			"hostname":         host,
			"tls":              args.Issuer != nil,
		}
	}
	return values
}

// NewArgoCD installs Argo CD, exposing the UI through an ingress when a
// domain is set.
func NewArgoCD(ctx *pulumi.Context, name string, args ArgoCDArgs, opts ...pulumi.ResourceOption) (*ArgoCD, error) {
	argo := &ArgoCD{}
	if err := ctx.RegisterComponentResource(componentType("ArgoCD"), name, argo, opts...); err != nil {
		return nil, err
	}

	nsName := defaultString(args.Namespace, defaultArgoCDNamespace)
	ns, err := resources.NewNamespace(ctx, resources.NamespaceOptions{CommonOptions: child(argo, nsName)})
	if err != nil {
		return nil, fmt.Errorf("failed to create argocd namespace: %w", err)
	}
	argo.Namespace = ns
	argo.NamespaceName = namespaceName(ns)

	// The issuer name may be a stack output, so the annotation is deferred.
	var deferred []resources.DeferredValue
	if args.Issuer != nil && args.host() != "" {
		key, value := args.Issuer.Annotation()
		deferred = append(deferred, resources.DeferredValue{
			Path:  []string{"server", "ingress", "annotations"},
			Value: pulumi.StringMap{key: value},
		})
	}

	release, err := resources.NewHelmRelease(ctx, resources.ReleaseOptions{
		ScopedOptions: inNamespace(argo, name, argo.NamespaceName),
		Chart:         helm.GetChartSpec(helm.ArgoCD, args.Chart),
		Defaults:      argoCDValues(args),
		Values:        args.Values,
		Deferred:      deferred,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create argocd release: %w", err)
	}
	argo.Release = release
	argo.URL = pulumi.String(appURL(args.host(), args.Issuer != nil)).ToStringOutput()

	if err := ctx.RegisterResourceOutputs(argo, pulumi.Map{
		"namespace": argo.NamespaceName,
		"url":       argo.URL,
	}); err != nil {
		return nil, err
	}
	return argo, nil
}
