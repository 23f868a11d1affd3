package apps

import (
	"fmt"

	"github.com/imamik/k8stacks/internal/helm"
	"github.com/imamik/k8stacks/internal/resources"
	"github.com/imamik/k8stacks/internal/util/naming"
)

// ReleasePlan is the chart and values an addon is installed with.
type ReleasePlan struct {
	Release   string
	Namespace string
	Chart     helm.ChartSpec
	Values    helm.Values
}

// PlanArgs carries the settings addon values depend on.
type PlanArgs struct {
	Domain string

	// Owner is the external-dns owner ID, normally the stack name.
	Owner   string
	ZoneID  string
	Proxied bool

	// TLS enables the Argo CD ingress certificate.
	TLS bool

	// App names the owner of a database release; defaults to "app".
	App string

	Chart  helm.ChartSpec
	Values helm.Values
}

// PlanRelease returns the release an addon is declared as, with the
// computed defaults and the caller overlay merged the same way the
// components merge them.
func PlanRelease(addon string, args PlanArgs) (*ReleasePlan, error) {
	var plan ReleasePlan
	var defaults helm.Values

	switch addon {
	case helm.CertManager:
		plan.Release, plan.Namespace = "cert-manager", defaultCertManagerNamespace
		defaults = certManagerValues(CertManagerArgs{IngressNginx: true})

	case helm.IngressNginx:
		plan.Release, plan.Namespace = "ingress-nginx", defaultIngressNamespace
		defaults = ingressNginxValues(IngressNginxArgs{})

	case helm.ExternalDNS:
		plan.Release, plan.Namespace = "external-dns", defaultExternalDNSNamespace
		edArgs := ExternalDNSArgs{ZoneID: args.ZoneID, Proxied: args.Proxied}
		if args.Domain != "" {
			edArgs.Domains = []string{args.Domain}
		}
		defaults = externalDNSValues(edArgs, args.Owner)

	case helm.ArgoCD:
		plan.Release, plan.Namespace = "argocd", defaultArgoCDNamespace
		argoArgs := ArgoCDArgs{Domain: args.Domain}
		if args.TLS {
			argoArgs.Issuer = &resources.IssuerRef{ClusterScoped: true}
		}
		defaults = argoCDValues(argoArgs)

	case helm.PostgreSQL, helm.MySQL:
		app := defaultString(args.App, "app")
		plan.Release, plan.Namespace = naming.DatabaseRelease(app), app
		defaults = databaseValues(DatabaseArgs{App: app}, naming.DatabaseSecretName(app), false)

	default:
		return nil, fmt.Errorf("unknown addon %q", addon)
	}

	plan.Chart = helm.GetChartSpec(addon, args.Chart)
	plan.Values = helm.Merge(defaults, args.Values)
	return &plan, nil
}
