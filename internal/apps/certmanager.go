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
	defaultCertManagerNamespace = "cert-manager"
	defaultIssuerName           = "letsencrypt"

	// CloudflareTokenSecret holds the Cloudflare API token in the namespaces
	// that need one.
	CloudflareTokenSecret = "cloudflare-api-token"
	cloudflareTokenKey    = "api-token"
)

// AcmeArgs configures the production and staging ACME issuers.
type AcmeArgs struct {
	Email string

	// IssuerName defaults to "letsencrypt"; the staging twin is {name}-staging.
	IssuerName    string
	ClusterScoped bool

	// Solver defaults to HTTP01 through IngressClass.
	Solver       resources.AcmeSolver
	IngressClass string

	// CloudflareAPIToken is required for the DNS01 solver.
	CloudflareAPIToken pulumi.StringInput
	DNSZones           []string
}

// CertManagerArgs configures NewCertManager.
type CertManagerArgs struct {
	// Namespace defaults to "cert-manager".
	Namespace string

	// Chart overrides individual fields of the pinned chart.
	Chart helm.ChartSpec

	// Values are merged shallowly over the computed defaults.
	Values helm.Values

	// IngressNginx enables the HTTP01 path type workaround for ingress-nginx.
	IngressNginx bool

	// Acme adds issuers once the CRDs are installed.
	Acme *AcmeArgs
}

// CertManager is the cert-manager component.
type CertManager struct {
	pulumi.ResourceState

	Namespace     *corev1.Namespace
	Release       *helmv3.Release
	Issuer        *resources.Issuer
	StagingIssuer *resources.Issuer

	NamespaceName     pulumi.StringOutput
	IssuerName        pulumi.StringOutput
	StagingIssuerName pulumi.StringOutput
}

// certManagerValues returns the computed chart defaults.
func certManagerValues(args CertManagerArgs) helm.Values {
	return helm.Values{
		"installCRDs": true,
		"startupapicheck": helm.Values{
			"enabled": false,
		},
		"config": helm.Values{
			"apiVersion":       "controller.config.cert-manager.io/v1alpha1",
			"kind":             "ControllerConfiguration",
			"enableGatewayAPI": true,
			"featureGates": helm.Values{
				// Workaround for ingress-nginx bug: https://github.com/kubernetes/ingress-nginx/issues/11176
				"ACMEHTTP01IngressPathTypeExact": !args.IngressNginx,
			},
		},
		"podDisruptionBudget": helm.Values{
			"enabled":        true,
			"maxUnavailable": 1,
		},
	}
}

// NewCertManager installs cert-manager and optionally its ACME issuers.
func NewCertManager(ctx *pulumi.Context, name string, args CertManagerArgs, opts ...pulumi.ResourceOption) (*CertManager, error) {
	cm := &CertManager{}
	if err := ctx.RegisterComponentResource(componentType("CertManager"), name, cm, opts...); err != nil {
		return nil, err
	}

	nsName := defaultString(args.Namespace, defaultCertManagerNamespace)
	ns, err := resources.NewNamespace(ctx, resources.NamespaceOptions{CommonOptions: child(cm, nsName)})
	if err != nil {
		return nil, fmt.Errorf("failed to create cert-manager namespace: %w", err)
	}
	cm.Namespace = ns
	cm.NamespaceName = namespaceName(ns)

	release, err := resources.NewHelmRelease(ctx, resources.ReleaseOptions{
		ScopedOptions: inNamespace(cm, name, cm.NamespaceName),
		Chart:         helm.GetChartSpec(helm.CertManager, args.Chart),
		Defaults:      certManagerValues(args),
		Values:        args.Values,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cert-manager release: %w", err)
	}
	cm.Release = release

	cm.IssuerName = pulumi.String("").ToStringOutput()
	cm.StagingIssuerName = pulumi.String("").ToStringOutput()
	if args.Acme != nil {
		if err := cm.addIssuers(ctx, *args.Acme); err != nil {
			return nil, err
		}
	}

	if err := ctx.RegisterResourceOutputs(cm, pulumi.Map{
		"namespace":         cm.NamespaceName,
		"issuerName":        cm.IssuerName,
		"stagingIssuerName": cm.StagingIssuerName,
	}); err != nil {
		return nil, err
	}
	return cm, nil
}

// addIssuers declares the production issuer and its staging twin. Both
// depend on the release so the CRDs exist first.
func (cm *CertManager) addIssuers(ctx *pulumi.Context, acme AcmeArgs) error {
	issuerName := defaultString(acme.IssuerName, defaultIssuerName)

	var tokenSecret pulumi.StringInput
	if acme.Solver == resources.SolverDNS01Cloudflare {
		if acme.CloudflareAPIToken == nil {
			return fmt.Errorf("cloudflare API token is required for the DNS01 solver")
		}
		secret, err := resources.NewSecret(ctx, resources.SecretOptions{
			ScopedOptions: inNamespace(cm, CloudflareTokenSecret, cm.NamespaceName),
			Key:           cloudflareTokenKey,
			Value:         acme.CloudflareAPIToken,
		})
		if err != nil {
			return fmt.Errorf("failed to create cloudflare token secret: %w", err)
		}
		tokenSecret = secret.Metadata.Name().Elem()
	}

	declare := func(name string, staging bool) (*resources.Issuer, error) {
		scope := resources.ScopedOptions{
			CommonOptions: resources.CommonOptions{Name: name, Parent: cm, After: cm.Release},
			ClusterScoped: acme.ClusterScoped,
		}
		if !acme.ClusterScoped {
			scope.Namespace = cm.NamespaceName
		}
		return resources.NewAcmeIssuer(ctx, resources.AcmeIssuerOptions{
			ScopedOptions:         scope,
			Email:                 acme.Email,
			Staging:               staging,
			Solver:                acme.Solver,
			IngressClass:          acme.IngressClass,
			CloudflareTokenSecret: tokenSecret,
			CloudflareTokenKey:    cloudflareTokenKey,
			DNSZones:              acme.DNSZones,
		})
	}

	issuer, err := declare(issuerName, false)
	if err != nil {
		return fmt.Errorf("failed to create issuer %s: %w", issuerName, err)
	}
	staging, err := declare(naming.StagingIssuer(issuerName), true)
	if err != nil {
		return fmt.Errorf("failed to create staging issuer: %w", err)
	}

	cm.Issuer = issuer
	cm.StagingIssuer = staging
	cm.IssuerName = issuer.Resource.Metadata.Name().Elem()
	cm.StagingIssuerName = staging.Resource.Metadata.Name().Elem()
	return nil
}
