package wizard

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/imamik/k8stacks/internal/config"
	"github.com/imamik/k8stacks/internal/util/ptr"
)

var (
	domainRegex = regexp.MustCompile(`^([a-z0-9]([-a-z0-9]*[a-z0-9])?\.)+[a-z]{2,}$`)
	stackRegex  = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,100}$`)
)

// Addon keys offered by the wizard.
const (
	AddonIngressNginx = "ingress-nginx"
	AddonExternalDNS  = "external-dns"
	AddonArgoCD       = "argo-cd"
)

// Result holds the answers from the wizard.
type Result struct {
	Domain  string
	Email   string
	Stack   string
	Backend string

	Scope  string
	Solver string
	ZoneID string

	EnabledAddons []string
}

// RunWizard asks for the project settings. The context cancels the form.
func RunWizard(ctx context.Context) (*Result, error) {
	result := &Result{
		Stack:         config.DefaultStack,
		Scope:         config.ScopeCluster,
		Solver:        config.SolverHTTP01,
		EnabledAddons: []string{AddonIngressNginx, AddonArgoCD},
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Domain").
				Description("Apps are served on subdomains of this domain").
				Placeholder("example.com").
				Value(&result.Domain).
				Validate(validateDomain),
			huh.NewInput().
				Title("ACME email").
				Description("Let's Encrypt account and expiry notices").
				Placeholder("ops@example.com").
				Value(&result.Email).
				Validate(validateEmail),
		).Title("Project"),

		huh.NewGroup(
			huh.NewInput().
				Title("Stack").
				Description("Stack name shared by platform and apps").
				Value(&result.Stack).
				Validate(validateStack),
			huh.NewInput().
				Title("State backend (optional)").
				Description("s3://bucket?region=... or file://path. Empty uses PULUMI_BACKEND_URL.").
				Value(&result.Backend).
				Validate(validateBackend),
		).Title("State"),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Issuer scope").
				Options(
					huh.NewOption("ClusterIssuer (all namespaces)", config.ScopeCluster),
					huh.NewOption("Issuer (cert-manager namespace only)", config.ScopeNamespace),
				).
				Value(&result.Scope),
			huh.NewSelect[string]().
				Title("ACME challenge").
				Options(
					huh.NewOption("HTTP-01 through the ingress", config.SolverHTTP01),
					huh.NewOption("DNS-01 through Cloudflare", config.SolverDNS01),
				).
				Value(&result.Solver),
			huh.NewInput().
				Title("Cloudflare zone ID (optional)").
				Description("Required for DNS-01, external-dns and app DNS records").
				Value(&result.ZoneID),
		).Title("Certificates"),

		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Platform addons").
				Description("cert-manager is always installed").
				Options(
					huh.NewOption("ingress-nginx", AddonIngressNginx),
					huh.NewOption("external-dns (Cloudflare)", AddonExternalDNS),
					huh.NewOption("Argo CD", AddonArgoCD),
				).
				Value(&result.EnabledAddons),
		).Title("Addons"),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("wizard canceled: %w", err)
	}
	return result, nil
}

// ToProject converts the answers into a defaulted project.
func (r *Result) ToProject() *config.Project {
	p := &config.Project{
		Stack:   r.Stack,
		Backend: r.Backend,
		Domain:  r.Domain,
		Acme: config.AcmeConfig{
			Email:  r.Email,
			Scope:  r.Scope,
			Solver: r.Solver,
		},
		Cloudflare: config.CloudflareConfig{ZoneID: r.ZoneID},
		Addons: config.AddonsConfig{
			IngressNginx: config.AddonConfig{Enabled: ptr.To(r.hasAddon(AddonIngressNginx))},
			ExternalDNS:  config.AddonConfig{Enabled: ptr.To(r.hasAddon(AddonExternalDNS))},
			ArgoCD:       config.AddonConfig{Enabled: ptr.To(r.hasAddon(AddonArgoCD))},
		},
	}
	p.ApplyDefaults()
	return p
}

func (r *Result) hasAddon(addon string) bool {
	for _, a := range r.EnabledAddons {
		if a == addon {
			return true
		}
	}
	return false
}

func validateDomain(s string) error {
	if !domainRegex.MatchString(strings.ToLower(strings.TrimSpace(s))) {
		return errDomainInvalid
	}
	return nil
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(s); err != nil {
		return errEmailInvalid
	}
	return nil
}

func validateStack(s string) error {
	if !stackRegex.MatchString(s) {
		return errStackInvalid
	}
	return nil
}

func validateBackend(s string) error {
	if s == "" {
		return nil
	}
	for _, scheme := range []string{"s3://", "file://", "https://", "gs://", "azblob://"} {
		if strings.HasPrefix(s, scheme) {
			return nil
		}
	}
	return errBackendInvalid
}
