package apps

import (
	"fmt"
	"strconv"

	corev1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/core/v1"
	helmv3 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/helm/v3"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/imamik/k8stacks/internal/helm"
	"github.com/imamik/k8stacks/internal/resources"
)

const defaultExternalDNSNamespace = "external-dns"

// ExternalDNSArgs configures NewExternalDNS.
type ExternalDNSArgs struct {
	// Namespace defaults to "external-dns".
	Namespace string

	// Domains restrict the managed zones.
	Domains []string
	ZoneID  string

	APIToken pulumi.StringInput
	Proxied  bool

	// Policy defaults to "sync"; "upsert-only" never deletes records.
	Policy string

	// OwnerID marks records owned by this instance; defaults to the stack name.
	OwnerID string

	// Sources defaults to ingress.
	Sources []string

	Chart  helm.ChartSpec
	Values helm.Values
}

// ExternalDNS is the external-dns component.
type ExternalDNS struct {
	pulumi.ResourceState

	Namespace   *corev1.Namespace
	TokenSecret *corev1.Secret
	Release     *helmv3.Release

	NamespaceName pulumi.StringOutput
}

func externalDNSValues(args ExternalDNSArgs, ownerID string) helm.Values {
	sources := args.Sources
	if len(sources) == 0 {
		sources = []string{"ingress"}
	}

	extraArgs := []string{"--cloudflare-proxied=" + strconv.FormatBool(args.Proxied)}
	if args.ZoneID != "" {
		extraArgs = append(extraArgs, "--zone-id-filter="+args.ZoneID)
	}

	values := helm.Values{
		"provider": helm.Values{
			"name": "cloudflare",
		},
		"txtOwnerId": ownerID,
		"policy":     defaultString(args.Policy, "sync"),
		"sources":    sources,
		"env": []helm.Values{
			{
				"name": "CF_API_TOKEN",
				"valueFrom": helm.Values{
					"secretKeyRef": helm.Values{
						"name": CloudflareTokenSecret,
						"key":  cloudflareTokenKey,
					},
				},
			},
		},
		"extraArgs":    extraArgs,
		"replicaCount": 1,
		"serviceAccount": helm.Values{
			"create": true,
			"name":   "external-dns",
		},
		"rbac": helm.Values{
			"create": true,
		},
		"logLevel":  "info",
		"logFormat": "text",
		"interval":  "1m",
		"registry":  "txt",
	}
	if len(args.Domains) > 0 {
		values["domainFilters"] = args.Domains
	}
	return values
}

// NewExternalDNS installs external-dns syncing ingress hosts to Cloudflare.
func NewExternalDNS(ctx *pulumi.Context, name string, args ExternalDNSArgs, opts ...pulumi.ResourceOption) (*ExternalDNS, error) {
	if args.APIToken == nil {
		return nil, fmt.Errorf("cloudflare API token is required for external-dns")
	}

	ed := &ExternalDNS{}
	if err := ctx.RegisterComponentResource(componentType("ExternalDNS"), name, ed, opts...); err != nil {
		return nil, err
	}

	nsName := defaultString(args.Namespace, defaultExternalDNSNamespace)
	ns, err := resources.NewNamespace(ctx, resources.NamespaceOptions{CommonOptions: child(ed, nsName)})
	if err != nil {
		return nil, fmt.Errorf("failed to create external-dns namespace: %w", err)
	}
	ed.Namespace = ns
	ed.NamespaceName = namespaceName(ns)

	secret, err := resources.NewSecret(ctx, resources.SecretOptions{
		ScopedOptions: inNamespace(ed, CloudflareTokenSecret, ed.NamespaceName),
		Key:           cloudflareTokenKey,
		Value:         args.APIToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudflare token secret: %w", err)
	}
	ed.TokenSecret = secret

	scope := inNamespace(ed, name, ed.NamespaceName)
	scope.After = secret
	release, err := resources.NewHelmRelease(ctx, resources.ReleaseOptions{
		ScopedOptions: scope,
		Chart:         helm.GetChartSpec(helm.ExternalDNS, args.Chart),
		Defaults:      externalDNSValues(args, defaultString(args.OwnerID, ctx.Stack())),
		Values:        args.Values,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create external-dns release: %w", err)
	}
	ed.Release = release

	if err := ctx.RegisterResourceOutputs(ed, pulumi.Map{
		"namespace": ed.NamespaceName,
	}); err != nil {
		return nil, err
	}
	return ed, nil
}
