package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/imamik/k8stacks/internal/helm"
	"github.com/imamik/k8stacks/internal/util/ptr"
)

// DefaultProjectFile is the project file name looked up by the CLI.
const DefaultProjectFile = "k8stacks.yaml"

// Issuer scopes.
const (
	ScopeCluster   = "cluster"
	ScopeNamespace = "namespace"
	// ScopeNone serves apps without TLS.
	ScopeNone = "none"
)

// ACME solvers.
const (
	SolverHTTP01 = "http01"
	SolverDNS01  = "dns01"
)

// Defaults applied by LoadFile.
const (
	DefaultStack        = "dev"
	DefaultOrganization = "organization"
	DefaultIssuerName   = "letsencrypt"
)

var (
	labelRegex  = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)
	domainRegex = regexp.MustCompile(`^([a-z0-9]([-a-z0-9]*[a-z0-9])?\.)+[a-z]{2,}$`)
	stackRegex  = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,100}$`)

	backendSchemes = []string{"s3://", "file://", "https://", "gs://", "azblob://"}
)

// Project is the k8stacks.yaml project file.
type Project struct {
	// Organization qualifies stack references; DIY backends use "organization".
	Organization string `yaml:"organization,omitempty"`
	// Stack is the stack name shared by the platform and apps projects.
	Stack string `yaml:"stack,omitempty"`
	// Backend is the Pulumi state backend URL. Empty uses PULUMI_BACKEND_URL.
	Backend string `yaml:"backend,omitempty"`

	Domain      string `yaml:"domain"`
	Kubeconfig  string `yaml:"kubeconfig,omitempty"`
	KubeContext string `yaml:"kubeContext,omitempty"`

	Acme       AcmeConfig       `yaml:"acme"`
	Cloudflare CloudflareConfig `yaml:"cloudflare,omitempty"`
	Addons     AddonsConfig     `yaml:"addons,omitempty"`
	Apps       []AppConfig      `yaml:"apps,omitempty"`
	Metrics    MetricsConfig    `yaml:"metrics,omitempty"`
}

// AcmeConfig configures the Let's Encrypt issuers.
type AcmeConfig struct {
	Email string `yaml:"email"`
	// Scope is "cluster" (ClusterIssuer) or "namespace" (Issuer).
	Scope string `yaml:"scope,omitempty"`
	// Solver is "http01" or "dns01"; dns01 uses Cloudflare.
	Solver     string `yaml:"solver,omitempty"`
	IssuerName string `yaml:"issuerName,omitempty"`
}

// CloudflareConfig selects the DNS zone. The API token never lives in the
// project file.
type CloudflareConfig struct {
	ZoneID  string `yaml:"zoneId,omitempty" json:"zoneId,omitempty"`
	Proxied bool   `yaml:"proxied,omitempty" json:"proxied,omitempty"`
}

// AddonConfig toggles a platform addon and overrides its chart.
type AddonConfig struct {
	Enabled *bool          `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Chart   helm.ChartSpec `yaml:"chart,omitempty" json:"chart,omitempty"`
	Values  helm.Values    `yaml:"values,omitempty" json:"values,omitempty"`
}

// IsEnabled reports the enabled flag, falling back to def when unset.
func (a AddonConfig) IsEnabled(def bool) bool {
	return ptr.Deref(a.Enabled, def)
}

// AddonsConfig holds the platform addons. All but external-dns are enabled
// by default.
type AddonsConfig struct {
	CertManager  AddonConfig `yaml:"certManager,omitempty" json:"certManager,omitempty"`
	IngressNginx AddonConfig `yaml:"ingressNginx,omitempty" json:"ingressNginx,omitempty"`
	ExternalDNS  AddonConfig `yaml:"externalDNS,omitempty" json:"externalDNS,omitempty"`
	ArgoCD       AddonConfig `yaml:"argoCD,omitempty" json:"argoCD,omitempty"`
}

// byName maps chart registry names to the addon entries.
func (a AddonsConfig) byName() map[string]AddonConfig {
	return map[string]AddonConfig{
		helm.CertManager:  a.CertManager,
		helm.IngressNginx: a.IngressNginx,
		helm.ExternalDNS:  a.ExternalDNS,
		helm.ArgoCD:       a.ArgoCD,
	}
}

// AppConfig describes one web application of the apps stack.
type AppConfig struct {
	Name string `yaml:"name" json:"name"`
	// Subdomain defaults to Name; "@" deploys on the apex.
	Subdomain  string            `yaml:"subdomain,omitempty" json:"subdomain,omitempty"`
	Image      string            `yaml:"image" json:"image"`
	Port       int               `yaml:"port,omitempty" json:"port,omitempty"`
	Replicas   int               `yaml:"replicas,omitempty" json:"replicas,omitempty"`
	HealthPath string            `yaml:"healthPath,omitempty" json:"healthPath,omitempty"`
	Env        map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	Database *DatabaseConfig `yaml:"database,omitempty" json:"database,omitempty"`

	// BasicAuthUser protects the app with basic auth; the password is the
	// stack's root password.
	BasicAuthUser string `yaml:"basicAuthUser,omitempty" json:"basicAuthUser,omitempty"`

	// DNS publishes a Cloudflare record pointing at the ingress address.
	DNS bool `yaml:"dns,omitempty" json:"dns,omitempty"`
}

// Host returns the subdomain the app is served on.
func (a AppConfig) Host() string {
	if a.Subdomain == "" {
		return a.Name
	}
	return a.Subdomain
}

// DatabaseConfig adds a database release to an app.
type DatabaseConfig struct {
	// Engine is "postgresql" (default) or "mysql".
	Engine      string         `yaml:"engine,omitempty" json:"engine,omitempty"`
	Database    string         `yaml:"database,omitempty" json:"database,omitempty"`
	Username    string         `yaml:"username,omitempty" json:"username,omitempty"`
	StorageSize string         `yaml:"storageSize,omitempty" json:"storageSize,omitempty"`
	Chart       helm.ChartSpec `yaml:"chart,omitempty" json:"chart,omitempty"`
	Values      helm.Values    `yaml:"values,omitempty" json:"values,omitempty"`
}

// MetricsConfig points the CLI at a Prometheus pushgateway.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgatewayUrl,omitempty"`
	Job            string `yaml:"job,omitempty"`
}

// LoadFile reads, defaults and validates a project file.
func LoadFile(path string) (*Project, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates project YAML.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("project validation failed: %w", err)
	}
	return &p, nil
}

// Save writes the project file with owner-only permissions.
func Save(p *Project, path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	header := "# k8stacks project file\n# Secrets come from K8STACKS_* variables or the keyring, never this file.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0600); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	return nil
}

// FindProjectFile looks for k8stacks.yaml in dir and its parents.
func FindProjectFile(dir string) (string, error) {
	for {
		path := filepath.Join(dir, DefaultProjectFile)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("project file %s not found", DefaultProjectFile)
		}
		dir = parent
	}
}

// ApplyDefaults fills unset optional fields.
func (p *Project) ApplyDefaults() {
	if p.Organization == "" {
		p.Organization = DefaultOrganization
	}
	if p.Stack == "" {
		p.Stack = DefaultStack
	}
	if p.Acme.Scope == "" {
		p.Acme.Scope = ScopeCluster
	}
	if p.Acme.Solver == "" {
		p.Acme.Solver = SolverHTTP01
	}
	if p.Acme.IssuerName == "" {
		p.Acme.IssuerName = DefaultIssuerName
	}
	p.Domain = strings.ToLower(strings.TrimSpace(p.Domain))
}

// Validate checks the whole project and reports every problem found.
func (p *Project) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !domainRegex.MatchString(p.Domain) {
		add("domain %q is not a valid DNS name", p.Domain)
	}
	if !stackRegex.MatchString(p.Stack) {
		add("stack %q must be 1-100 letters, digits, '-', '_' or '.'", p.Stack)
	}
	if !stackRegex.MatchString(p.Organization) {
		add("organization %q is invalid", p.Organization)
	}
	if p.Backend != "" && !hasAnyPrefix(p.Backend, backendSchemes) {
		add("backend %q must start with one of %s", p.Backend, strings.Join(backendSchemes, ", "))
	}

	if p.Addons.CertManager.IsEnabled(true) {
		if _, err := mail.ParseAddress(p.Acme.Email); err != nil {
			add("acme.email %q is not a valid address", p.Acme.Email)
		}
	}
	switch p.Acme.Scope {
	case ScopeCluster, ScopeNamespace:
	default:
		add("acme.scope must be %q or %q, got %q", ScopeCluster, ScopeNamespace, p.Acme.Scope)
	}
	switch p.Acme.Solver {
	case SolverHTTP01:
	case SolverDNS01:
		if p.Cloudflare.ZoneID == "" {
			add("acme.solver dns01 requires cloudflare.zoneId")
		}
	default:
		add("acme.solver must be %q or %q, got %q", SolverHTTP01, SolverDNS01, p.Acme.Solver)
	}
	if !labelRegex.MatchString(p.Acme.IssuerName) {
		add("acme.issuerName %q is not a valid name", p.Acme.IssuerName)
	}

	for name, addon := range p.Addons.byName() {
		if addon.Chart == (helm.ChartSpec{}) {
			continue
		}
		if err := helm.GetChartSpec(name, addon.Chart).Validate(); err != nil {
			add("addons.%s.chart: %v", name, err)
		}
	}

	errs = append(errs, p.validateApps()...)
	return errors.Join(errs...)
}

func (p *Project) validateApps() []error {
	var errs []error
	names := make(map[string]bool)
	hosts := make(map[string]string)
	for i, app := range p.Apps {
		field := fmt.Sprintf("apps[%d]", i)
		if !labelRegex.MatchString(app.Name) || len(app.Name) > 40 {
			errs = append(errs, fmt.Errorf("%s: name %q must be a DNS label of at most 40 characters", field, app.Name))
		} else if names[app.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate app name %q", field, app.Name))
		}
		names[app.Name] = true

		host := app.Host()
		if host != "@" && !labelRegex.MatchString(host) {
			errs = append(errs, fmt.Errorf("%s: subdomain %q is not a DNS label", field, host))
		}
		if other, ok := hosts[host]; ok {
			errs = append(errs, fmt.Errorf("%s: subdomain %q already used by %s", field, host, other))
		}
		hosts[host] = app.Name

		if app.Image == "" {
			errs = append(errs, fmt.Errorf("%s: image is required", field))
		}
		if app.Port < 0 || app.Port > 65535 {
			errs = append(errs, fmt.Errorf("%s: port %d out of range", field, app.Port))
		}
		if app.Replicas < 0 {
			errs = append(errs, fmt.Errorf("%s: replicas must not be negative", field))
		}
		if app.DNS && p.Cloudflare.ZoneID == "" {
			errs = append(errs, fmt.Errorf("%s: dns requires cloudflare.zoneId", field))
		}
		if db := app.Database; db != nil {
			switch db.Engine {
			case "", helm.PostgreSQL, helm.MySQL:
			default:
				errs = append(errs, fmt.Errorf("%s: unsupported database engine %q", field, db.Engine))
			}
		}
	}
	return errs
}

// PlatformStackRef is the fully qualified name of the platform stack.
func (p *Project) PlatformStackRef() string {
	return fmt.Sprintf("%s/%s/%s", p.Organization, PlatformProject, p.Stack)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
