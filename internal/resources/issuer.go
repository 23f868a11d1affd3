package resources

import (
	"net/mail"

	"github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes"
	"github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/apiextensions"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/imamik/k8stacks/internal/util/naming"
)

// cert-manager API coordinates.
const (
	CertManagerAPIVersion = "cert-manager.io/v1"
	KindIssuer            = "Issuer"
	KindClusterIssuer     = "ClusterIssuer"
	KindCertificate       = "Certificate"
)

// Let's Encrypt ACME directories.
const (
	LetsEncryptProduction = "https://acme-v02.api.letsencrypt.org/directory"
	LetsEncryptStaging    = "https://acme-staging-v02.api.letsencrypt.org/directory"
)

// AcmeSolver selects how ACME challenges are answered.
type AcmeSolver string

const (
	SolverHTTP01          AcmeSolver = "http01"
	SolverDNS01Cloudflare AcmeSolver = "dns01-cloudflare"
)

const defaultCloudflareToken = "api-token"

// issuerKind maps the scope flag to the concrete issuer kind.
func issuerKind(clusterScoped bool) string {
	if clusterScoped {
		return KindClusterIssuer
	}
	return KindIssuer
}

// AcmeIssuerOptions describes an ACME issuer. ClusterScoped selects a
// ClusterIssuer instead of a namespaced Issuer.
type AcmeIssuerOptions struct {
	ScopedOptions

	Email string

	// Staging selects the Let's Encrypt staging directory. Server overrides both.
	Staging bool
	Server  string

	// Solver defaults to HTTP01 through IngressClass.
	Solver       AcmeSolver
	IngressClass string

	// CloudflareTokenSecret names the secret holding the Cloudflare API token
	// for DNS01; CloudflareTokenKey defaults to "api-token".
	CloudflareTokenSecret pulumi.StringInput
	CloudflareTokenKey    string

	// DNSZones restricts the DNS01 solver to these zones.
	DNSZones []string
}

// Issuer is the handle returned for an ACME issuer.
type Issuer struct {
	Resource      *apiextensions.CustomResource
	Name          string
	Kind          string
	SecretName    string
	ClusterScoped bool
}

// Ref returns a reference usable by ingresses and certificates.
func (i *Issuer) Ref() IssuerRef {
	return IssuerRef{Name: pulumi.String(i.Name), ClusterScoped: i.ClusterScoped}
}

func (o AcmeIssuerOptions) server() string {
	switch {
	case o.Server != "":
		return o.Server
	case o.Staging:
		return LetsEncryptStaging
	default:
		return LetsEncryptProduction
	}
}

func (o AcmeIssuerOptions) solver() (map[string]any, error) {
	switch o.Solver {
	case "", SolverHTTP01:
		class := o.IngressClass
		if class == "" {
			class = "nginx"
		}
		return map[string]any{
			"http01": map[string]any{
				"ingress": map[string]any{"ingressClassName": class},
			},
		}, nil
	case SolverDNS01Cloudflare:
		if o.CloudflareTokenSecret == nil {
			return nil, optionsErrorf("issuer", o.Name, "cloudflare token secret is required for DNS01")
		}
		key := o.CloudflareTokenKey
		if key == "" {
			key = defaultCloudflareToken
		}
		solver := map[string]any{
			"dns01": map[string]any{
				"cloudflare": map[string]any{
					"apiTokenSecretRef": map[string]any{
						"name": o.CloudflareTokenSecret,
						"key":  key,
					},
				},
			},
		}
		if len(o.DNSZones) > 0 {
			solver["selector"] = map[string]any{"dnsZones": o.DNSZones}
		}
		return solver, nil
	default:
		return nil, optionsErrorf("issuer", o.Name, "unknown solver %q", o.Solver)
	}
}

// issuerArgs builds the custom resource arguments. Kept separate from the
// declaration so the scope branching can be inspected directly.
func (o AcmeIssuerOptions) issuerArgs() (*apiextensions.CustomResourceArgs, error) {
	if err := o.validate("issuer"); err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(o.Email); err != nil {
		return nil, optionsErrorf("issuer", o.Name, "invalid ACME email %q", o.Email)
	}
	solver, err := o.solver()
	if err != nil {
		return nil, err
	}

	return &apiextensions.CustomResourceArgs{
		ApiVersion: pulumi.String(CertManagerAPIVersion),
		Kind:       pulumi.String(issuerKind(o.ClusterScoped)),
		Metadata:   o.metadata(o.Name, o.objectLabels("issuer"), nil),
		OtherFields: kubernetes.UntypedArgs{
			"spec": map[string]any{
				"acme": map[string]any{
					"email":  o.Email,
					"server": o.server(),
					"privateKeySecretRef": map[string]any{
						"name": naming.IssuerSecretName(o.Name),
					},
					"solvers": []any{solver},
				},
			},
		},
	}, nil
}

// NewAcmeIssuer declares an Issuer or ClusterIssuer named o.Name whose ACME
// account key is stored in the {name}-issuer secret.
func NewAcmeIssuer(ctx *pulumi.Context, o AcmeIssuerOptions) (*Issuer, error) {
	args, err := o.issuerArgs()
	if err != nil {
		return nil, err
	}

	cr, err := apiextensions.NewCustomResource(ctx, o.Name, args, o.Options()...)
	if err != nil {
		return nil, err
	}

	return &Issuer{
		Resource:      cr,
		Name:          o.Name,
		Kind:          issuerKind(o.ClusterScoped),
		SecretName:    naming.IssuerSecretName(o.Name),
		ClusterScoped: o.ClusterScoped,
	}, nil
}
