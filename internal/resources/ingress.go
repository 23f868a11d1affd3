package resources

import (
	networkingv1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/networking/v1"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/imamik/k8stacks/internal/util/inputs"
	"github.com/imamik/k8stacks/internal/util/naming"
)

// Ingress annotation keys understood by cert-manager and ingress-nginx.
const (
	annotationClusterIssuer = "cert-manager.io/cluster-issuer"
	annotationIssuer        = "cert-manager.io/issuer"
	annotationAuthType      = "nginx.ingress.kubernetes.io/auth-type"
	annotationAuthSecret    = "nginx.ingress.kubernetes.io/auth-secret"
	annotationAuthRealm     = "nginx.ingress.kubernetes.io/auth-realm"
)

// IssuerRef points at a certificate issuer. Name may be a deferred value,
// for example one imported through a stack reference.
type IssuerRef struct {
	Name          pulumi.StringInput
	ClusterScoped bool
}

// Annotation returns the cert-manager ingress-shim annotation selecting the issuer.
func (r IssuerRef) Annotation() (string, pulumi.StringInput) {
	if r.ClusterScoped {
		return annotationClusterIssuer, r.Name
	}
	return annotationIssuer, r.Name
}

// IngressOptions describes an ingress routing one or more hosts to a service.
type IngressOptions struct {
	ScopedOptions

	// Host and Hosts are a single-or-multiple pair; Host wins when both are set.
	Host  string
	Hosts []string

	ServiceName pulumi.StringInput
	ServicePort int
	Path        string

	// ClassName defaults to "nginx".
	ClassName string

	// Issuer enables TLS with a {name}-tls secret managed by cert-manager.
	Issuer *IssuerRef

	// BasicAuthSecret protects the ingress with ingress-nginx basic auth.
	BasicAuthSecret pulumi.StringInput
}

func (o IngressOptions) validate() ([]string, error) {
	if err := o.ScopedOptions.validate("ingress"); err != nil {
		return nil, err
	}
	hosts := inputs.NormalizeInputArray(o.Host, o.Hosts)
	if len(hosts) == 0 {
		return nil, optionsErrorf("ingress", o.Name, "at least one host is required")
	}
	for _, h := range hosts {
		if errs := validation.IsDNS1123Subdomain(h); len(errs) > 0 {
			return nil, optionsErrorf("ingress", o.Name, "invalid host %q", h)
		}
	}
	if o.ServiceName == nil {
		return nil, optionsErrorf("ingress", o.Name, "service name is required")
	}
	return hosts, nil
}

// NewIngress declares an ingress named o.Name.
func NewIngress(ctx *pulumi.Context, o IngressOptions) (*networkingv1.Ingress, error) {
	hosts, err := o.validate()
	if err != nil {
		return nil, err
	}

	className := o.ClassName
	if className == "" {
		className = "nginx"
	}
	path := o.Path
	if path == "" {
		path = "/"
	}
	port := o.ServicePort
	if port == 0 {
		port = 80
	}

	annotations := pulumi.StringMap{}
	spec := &networkingv1.IngressSpecArgs{
		IngressClassName: pulumi.String(className),
	}

	if o.Issuer != nil {
		key, value := o.Issuer.Annotation()
		annotations[key] = value
		spec.Tls = networkingv1.IngressTLSArray{
			networkingv1.IngressTLSArgs{
				Hosts:      pulumi.ToStringArray(hosts),
				SecretName: pulumi.String(naming.TLSSecretName(o.Name)),
			},
		}
	}

	if o.BasicAuthSecret != nil {
		annotations[annotationAuthType] = pulumi.String("basic")
		annotations[annotationAuthSecret] = o.BasicAuthSecret
		annotations[annotationAuthRealm] = pulumi.String("Authentication Required")
	}

	rules := make(networkingv1.IngressRuleArray, 0, len(hosts))
	for _, host := range hosts {
		rules = append(rules, networkingv1.IngressRuleArgs{
			Host: pulumi.String(host),
			Http: &networkingv1.HTTPIngressRuleValueArgs{
				Paths: networkingv1.HTTPIngressPathArray{
					networkingv1.HTTPIngressPathArgs{
						Path:     pulumi.String(path),
						PathType: pulumi.String("Prefix"),
						Backend: &networkingv1.IngressBackendArgs{
							Service: &networkingv1.IngressServiceBackendArgs{
								Name: o.ServiceName,
								Port: &networkingv1.ServiceBackendPortArgs{
									Number: pulumi.Int(port),
								},
							},
						},
					},
				},
			},
		})
	}
	spec.Rules = rules

	return networkingv1.NewIngress(ctx, o.Name, &networkingv1.IngressArgs{
		Metadata: o.metadata(o.Name, o.objectLabels(""), annotations),
		Spec:     spec,
	}, o.Options()...)
}
