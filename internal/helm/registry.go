package helm

import "sort"

// Addon names with pinned charts.
const (
	CertManager  = "cert-manager"
	IngressNginx = "ingress-nginx"
	ExternalDNS  = "external-dns"
	ArgoCD       = "argo-cd"
	PostgreSQL   = "postgresql"
	MySQL        = "mysql"
)

// DefaultChartSpecs contains the default chart specifications for each addon.
// These define the official Helm chart repositories, names, and versions.
// Stacks can override any field through their configuration.
var DefaultChartSpecs = map[string]ChartSpec{
	CertManager: {
		Repository: "https://charts.jetstack.io",
		Name:       "cert-manager",
		Version:    "v1.19.2",
	},
	IngressNginx: {
		Repository: "https://kubernetes.github.io/ingress-nginx",
		Name:       "ingress-nginx",
		Version:    "4.11.3",
	},
	ExternalDNS: {
		Repository: "https://kubernetes-sigs.github.io/external-dns",
		Name:       "external-dns",
		Version:    "1.15.0",
	},
	ArgoCD: {
		Repository: "https://argoproj.github.io/argo-helm",
		Name:       "argo-cd",
		Version:    "9.3.5",
	},
	PostgreSQL: {
		Repository: "oci://registry-1.docker.io/bitnamicharts",
		Name:       "postgresql",
		Version:    "16.4.1",
	},
	MySQL: {
		Repository: "oci://registry-1.docker.io/bitnamicharts",
		Name:       "mysql",
		Version:    "12.2.2",
	},
}

// Addons returns the pinned addon names in sorted order.
func Addons() []string {
	names := make([]string, 0, len(DefaultChartSpecs))
	for name := range DefaultChartSpecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
