package testing

import (
	"maps"
	"slices"

	"github.com/imamik/k8stacks/internal/config"
	"github.com/imamik/k8stacks/internal/util/ptr"
)

// ProjectBuilder provides a fluent interface for constructing test projects.
// Each method returns a new builder (immutable) for chaining.
type ProjectBuilder struct {
	project config.Project
}

// NewProjectBuilder creates a ProjectBuilder with a valid minimal project.
func NewProjectBuilder() *ProjectBuilder {
	return &ProjectBuilder{
		project: config.Project{
			Domain: "example.com",
			Acme:   config.AcmeConfig{Email: "ops@example.com"},
		},
	}
}

// WithStack sets the stack name.
func (b *ProjectBuilder) WithStack(stack string) *ProjectBuilder {
	newBuilder := b.clone()
	newBuilder.project.Stack = stack
	return newBuilder
}

// WithDomain sets the base domain.
func (b *ProjectBuilder) WithDomain(domain string) *ProjectBuilder {
	newBuilder := b.clone()
	newBuilder.project.Domain = domain
	return newBuilder
}

// WithIssuerScope sets the ACME issuer scope.
func (b *ProjectBuilder) WithIssuerScope(scope string) *ProjectBuilder {
	newBuilder := b.clone()
	newBuilder.project.Acme.Scope = scope
	return newBuilder
}

// WithDNS01 selects the Cloudflare DNS-01 solver for zoneID.
func (b *ProjectBuilder) WithDNS01(zoneID string) *ProjectBuilder {
	newBuilder := b.clone()
	newBuilder.project.Acme.Solver = config.SolverDNS01
	newBuilder.project.Cloudflare.ZoneID = zoneID
	return newBuilder
}

// WithZone sets the Cloudflare zone.
func (b *ProjectBuilder) WithZone(zoneID string, proxied bool) *ProjectBuilder {
	newBuilder := b.clone()
	newBuilder.project.Cloudflare = config.CloudflareConfig{ZoneID: zoneID, Proxied: proxied}
	return newBuilder
}

// WithExternalDNS toggles external-dns.
func (b *ProjectBuilder) WithExternalDNS(enabled bool) *ProjectBuilder {
	newBuilder := b.clone()
	newBuilder.project.Addons.ExternalDNS.Enabled = ptr.To(enabled)
	return newBuilder
}

// WithCertManager toggles cert-manager.
func (b *ProjectBuilder) WithCertManager(enabled bool) *ProjectBuilder {
	newBuilder := b.clone()
	newBuilder.project.Addons.CertManager.Enabled = ptr.To(enabled)
	return newBuilder
}

// WithApp appends an app.
func (b *ProjectBuilder) WithApp(app config.AppConfig) *ProjectBuilder {
	newBuilder := b.clone()
	newBuilder.project.Apps = append(newBuilder.project.Apps, app)
	return newBuilder
}

// Build returns the defaulted project.
func (b *ProjectBuilder) Build() *config.Project {
	p := b.clone().project
	p.ApplyDefaults()
	return &p
}

func (b *ProjectBuilder) clone() *ProjectBuilder {
	p := b.project
	p.Addons = config.AddonsConfig{
		CertManager:  cloneAddon(p.Addons.CertManager),
		IngressNginx: cloneAddon(p.Addons.IngressNginx),
		ExternalDNS:  cloneAddon(p.Addons.ExternalDNS),
		ArgoCD:       cloneAddon(p.Addons.ArgoCD),
	}
	p.Apps = slices.Clone(p.Apps)
	for i := range p.Apps {
		p.Apps[i].Env = maps.Clone(p.Apps[i].Env)
		if db := p.Apps[i].Database; db != nil {
			dbCopy := *db
			p.Apps[i].Database = &dbCopy
		}
	}
	return &ProjectBuilder{project: p}
}

func cloneAddon(a config.AddonConfig) config.AddonConfig {
	if a.Enabled != nil {
		a.Enabled = ptr.To(*a.Enabled)
	}
	a.Values = maps.Clone(a.Values)
	return a
}

// MinimalProject returns a project with only the required fields.
func MinimalProject() *config.Project {
	return NewProjectBuilder().Build()
}

// FullProject returns a project using every feature.
func FullProject() *config.Project {
	return NewProjectBuilder().
		WithStack("prod").
		WithDNS01("zone-123").
		WithExternalDNS(true).
		WithApp(config.AppConfig{
			Name:  "shop",
			Image: "ghcr.io/acme/shop:1.2.3",
			Port:  3000,
			DNS:   true,
			Database: &config.DatabaseConfig{
				Engine: "postgresql",
			},
			BasicAuthUser: "admin",
		}).
		WithApp(config.AppConfig{
			Name:      "blog",
			Subdomain: "@",
			Image:     "ghcr.io/acme/blog:latest",
		}).
		Build()
}
