package stacks

import (
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	pulumiconfig "github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/imamik/k8stacks/internal/apps"
	"github.com/imamik/k8stacks/internal/config"
	"github.com/imamik/k8stacks/internal/resources"
)

// Platform stack outputs.
const (
	ExportClusterIssuerName    = "clusterIssuerName"
	ExportStagingIssuerName    = "stagingIssuerName"
	ExportIngressClassName     = "ingressClassName"
	ExportCertManagerNamespace = "certManagerNamespace"
	ExportIngressAddress       = "ingressAddress"
	ExportArgoCDURL            = "argocdUrl"
)

// PlatformOutputs are the values the platform program exports.
type PlatformOutputs struct {
	ClusterIssuerName    pulumi.StringOutput
	StagingIssuerName    pulumi.StringOutput
	IngressClassName     pulumi.StringOutput
	CertManagerNamespace pulumi.StringOutput
	IngressAddress       pulumi.StringOutput
	ArgoCDURL            pulumi.StringOutput
}

func (o *PlatformOutputs) export(ctx *pulumi.Context) {
	ctx.Export(ExportClusterIssuerName, o.ClusterIssuerName)
	ctx.Export(ExportStagingIssuerName, o.StagingIssuerName)
	ctx.Export(ExportIngressClassName, o.IngressClassName)
	ctx.Export(ExportCertManagerNamespace, o.CertManagerNamespace)
	ctx.Export(ExportIngressAddress, o.IngressAddress)
	ctx.Export(ExportArgoCDURL, o.ArgoCDURL)
}

// Platform is the program of the k8stacks-platform project.
func Platform(ctx *pulumi.Context) error {
	pc, err := config.ParsePlatform(
		pulumiconfig.New(ctx, config.Namespace),
		pulumiconfig.New(ctx, config.CloudflareNamespace),
	)
	if err != nil {
		return err
	}

	out, err := DeployPlatform(ctx, pc)
	if err != nil {
		return err
	}
	out.export(ctx)
	return nil
}

// DeployPlatform declares the platform services described by pc.
func DeployPlatform(ctx *pulumi.Context, pc *config.PlatformConfig) (*PlatformOutputs, error) {
	empty := pulumi.String("").ToStringOutput()
	out := &PlatformOutputs{
		ClusterIssuerName:    empty,
		StagingIssuerName:    empty,
		IngressClassName:     empty,
		CertManagerNamespace: empty,
		IngressAddress:       empty,
		ArgoCDURL:            empty,
	}

	provider, err := newProvider(ctx, pc.Kubeconfig, pc.KubeContext)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes provider: %w", err)
	}
	opts := []pulumi.ResourceOption{pulumi.Providers(provider)}

	addons := pc.Addons
	ingressEnabled := addons.IngressNginx.IsEnabled(true)
	ingressClass := ""

	if ingressEnabled {
		ingress, err := apps.NewIngressNginx(ctx, "ingress-nginx", apps.IngressNginxArgs{
			Chart:  addons.IngressNginx.Chart,
			Values: addons.IngressNginx.Values,
		}, opts...)
		if err != nil {
			return nil, err
		}
		out.IngressClassName = ingress.ClassName
		out.IngressAddress = ingress.Address
		ingressClass = "nginx"
	}

	var issuer *resources.IssuerRef
	if addons.CertManager.IsEnabled(true) {
		cm, err := apps.NewCertManager(ctx, "cert-manager", apps.CertManagerArgs{
			Chart:        addons.CertManager.Chart,
			Values:       addons.CertManager.Values,
			IngressNginx: ingressEnabled,
			Acme:         acmeArgs(ctx, pc, ingressClass),
		}, opts...)
		if err != nil {
			return nil, err
		}
		out.CertManagerNamespace = cm.NamespaceName
		out.ClusterIssuerName = cm.IssuerName
		out.StagingIssuerName = cm.StagingIssuerName

		if cm.Issuer != nil && pc.ClusterScoped {
			issuer = &resources.IssuerRef{Name: cm.IssuerName, ClusterScoped: true}
		}
	}

	if addons.ExternalDNS.IsEnabled(false) {
		if !pc.HasAPIToken {
			return nil, fmt.Errorf("external-dns requires %s:%s", config.CloudflareNamespace, config.KeyAPIToken)
		}
		if _, err := apps.NewExternalDNS(ctx, "external-dns", apps.ExternalDNSArgs{
			Domains:  []string{pc.Domain},
			ZoneID:   pc.ZoneID,
			APIToken: pc.APIToken,
			Proxied:  pc.Proxied,
			Chart:    addons.ExternalDNS.Chart,
			Values:   addons.ExternalDNS.Values,
		}, opts...); err != nil {
			return nil, err
		}
	}

	if addons.ArgoCD.IsEnabled(true) {
		if issuer == nil && addons.CertManager.IsEnabled(true) && !pc.ClusterScoped {
			_ = ctx.Log.Warn("Argo CD is served without TLS: namespaced issuers are not visible from the argocd namespace", nil)
		}
		argo, err := apps.NewArgoCD(ctx, "argocd", apps.ArgoCDArgs{
			Domain:       pc.Domain,
			Issuer:       issuer,
			IngressClass: ingressClass,
			Chart:        addons.ArgoCD.Chart,
			Values:       addons.ArgoCD.Values,
		}, opts...)
		if err != nil {
			return nil, err
		}
		out.ArgoCDURL = argo.URL
	}

	return out, nil
}

// acmeArgs returns the issuer settings, or nil when no ACME email is set.
func acmeArgs(ctx *pulumi.Context, pc *config.PlatformConfig, ingressClass string) *apps.AcmeArgs {
	if pc.AcmeEmail == "" {
		_ = ctx.Log.Warn("no ACME email configured, skipping issuers", nil)
		return nil
	}

	acme := &apps.AcmeArgs{
		Email:         pc.AcmeEmail,
		IssuerName:    pc.IssuerName,
		ClusterScoped: pc.ClusterScoped,
		Solver:        resources.SolverHTTP01,
		IngressClass:  ingressClass,
	}
	if pc.Solver == config.SolverDNS01 {
		acme.Solver = resources.SolverDNS01Cloudflare
		acme.DNSZones = []string{pc.Domain}
	}
	if pc.HasAPIToken {
		acme.CloudflareAPIToken = pc.APIToken
	}
	return acme
}
