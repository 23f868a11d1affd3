package resources

import (
	"github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes"
	"github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/apiextensions"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/imamik/k8stacks/internal/util/inputs"
	"github.com/imamik/k8stacks/internal/util/naming"
)

// CertificateOptions describes a cert-manager Certificate. Certificates are
// always namespaced; the issuer may be either scope.
type CertificateOptions struct {
	ScopedOptions

	DNSName  string
	DNSNames []string

	Issuer IssuerRef

	// SecretName defaults to {name}-tls.
	SecretName string
}

// NewCertificate declares a Certificate named o.Name.
func NewCertificate(ctx *pulumi.Context, o CertificateOptions) (*apiextensions.CustomResource, error) {
	o.ClusterScoped = false
	if err := o.validate("certificate"); err != nil {
		return nil, err
	}
	dnsNames := inputs.NormalizeInputArray(o.DNSName, o.DNSNames)
	if len(dnsNames) == 0 {
		return nil, optionsErrorf("certificate", o.Name, "at least one DNS name is required")
	}
	if o.Issuer.Name == nil {
		return nil, optionsErrorf("certificate", o.Name, "issuer is required")
	}

	secretName := o.SecretName
	if secretName == "" {
		secretName = naming.TLSSecretName(o.Name)
	}

	return apiextensions.NewCustomResource(ctx, o.Name, &apiextensions.CustomResourceArgs{
		ApiVersion: pulumi.String(CertManagerAPIVersion),
		Kind:       pulumi.String(KindCertificate),
		Metadata:   o.metadata(o.Name, o.objectLabels("certificate"), nil),
		OtherFields: kubernetes.UntypedArgs{
			"spec": map[string]any{
				"secretName": secretName,
				"dnsNames":   dnsNames,
				"issuerRef": map[string]any{
					"name":  o.Issuer.Name,
					"kind":  issuerKind(o.Issuer.ClusterScoped),
					"group": "cert-manager.io",
				},
			},
		},
	}, o.Options()...)
}
