package config

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Pulumi project names of the two stack programs.
const (
	PlatformProject = "k8stacks-platform"
	AppsProject     = "k8stacks-apps"
)

// Configuration namespaces.
const (
	Namespace           = "k8stacks"
	CloudflareNamespace = "cloudflare"
)

// Stack configuration keys, relative to their namespace.
const (
	KeyDomain        = "domain"
	KeyAcmeEmail     = "acmeEmail"
	KeyIssuerScope   = "issuerScope"
	KeyIssuerName    = "issuerName"
	KeyAcmeSolver    = "acmeSolver"
	KeyKubeconfig    = "kubeconfig"
	KeyKubeContext   = "kubeContext"
	KeyAddons        = "addons"
	KeyPlatformStack = "platformStack"
	KeyApps          = "apps"
	KeyRootPassword  = "rootPassword"
	KeyProxied       = "proxied"
	KeyIngressClass  = "ingressClass"

	KeyAPIToken = "apiToken"
	KeyZoneID   = "zoneId"
)

// Source reads stack configuration. *config.Config from the Pulumi SDK
// satisfies it.
type Source interface {
	Get(key string) string
	GetObject(key string, output interface{}) error
	GetSecret(key string) pulumi.StringOutput
}

// Value is a single stack configuration entry.
type Value struct {
	Value  string
	Secret bool
}

// Secrets carries the secret inputs resolved by the CLI.
type Secrets struct {
	CloudflareAPIToken string
	RootPassword       string
}

// PlatformConfig is the parsed configuration of the platform stack.
type PlatformConfig struct {
	Domain    string
	AcmeEmail string

	// ClusterScoped selects ClusterIssuer over namespaced Issuer.
	ClusterScoped bool
	IssuerName    string
	Solver        string

	Kubeconfig  string
	KubeContext string

	ZoneID  string
	Proxied bool
	// APIToken is valid only when HasAPIToken is set.
	APIToken    pulumi.StringOutput
	HasAPIToken bool

	Addons AddonsConfig
}

// AppsConfig is the parsed configuration of the apps stack.
type AppsConfig struct {
	PlatformStack string
	Domain        string

	Kubeconfig  string
	KubeContext string

	Apps []AppConfig

	// IssuerScope is ScopeCluster, ScopeNamespace or ScopeNone.
	IssuerScope  string
	IssuerName   string
	AcmeEmail    string
	IngressClass string

	// RootPassword is valid only when HasRootPassword is set.
	RootPassword    pulumi.StringOutput
	HasRootPassword bool

	ZoneID  string
	Proxied bool
}

// ParsePlatform reads the platform stack configuration from the k8stacks
// and cloudflare namespaces.
func ParsePlatform(cfg, cloudflare Source) (*PlatformConfig, error) {
	pc := &PlatformConfig{
		Domain:      cfg.Get(KeyDomain),
		AcmeEmail:   cfg.Get(KeyAcmeEmail),
		IssuerName:  orDefault(cfg.Get(KeyIssuerName), DefaultIssuerName),
		Solver:      orDefault(cfg.Get(KeyAcmeSolver), SolverHTTP01),
		Kubeconfig:  cfg.Get(KeyKubeconfig),
		KubeContext: cfg.Get(KeyKubeContext),
		ZoneID:      cloudflare.Get(KeyZoneID),
	}
	if pc.Domain == "" {
		return nil, fmt.Errorf("config %s:%s is required", Namespace, KeyDomain)
	}

	scope := orDefault(cfg.Get(KeyIssuerScope), ScopeCluster)
	switch scope {
	case ScopeCluster:
		pc.ClusterScoped = true
	case ScopeNamespace:
	default:
		return nil, fmt.Errorf("config %s:%s must be %q or %q, got %q", Namespace, KeyIssuerScope, ScopeCluster, ScopeNamespace, scope)
	}

	proxied, err := parseBool(cfg.Get(KeyProxied))
	if err != nil {
		return nil, fmt.Errorf("config %s:%s: %w", Namespace, KeyProxied, err)
	}
	pc.Proxied = proxied

	if cloudflare.Get(KeyAPIToken) != "" {
		pc.APIToken = cloudflare.GetSecret(KeyAPIToken)
		pc.HasAPIToken = true
	}

	if err := cfg.GetObject(KeyAddons, &pc.Addons); err != nil {
		return nil, fmt.Errorf("failed to decode config %s:%s: %w", Namespace, KeyAddons, err)
	}
	return pc, nil
}

// ParseApps reads the apps stack configuration.
func ParseApps(cfg, cloudflare Source) (*AppsConfig, error) {
	ac := &AppsConfig{
		PlatformStack: cfg.Get(KeyPlatformStack),
		Domain:        cfg.Get(KeyDomain),
		Kubeconfig:    cfg.Get(KeyKubeconfig),
		KubeContext:   cfg.Get(KeyKubeContext),
		ZoneID:        cloudflare.Get(KeyZoneID),
		IssuerName:    orDefault(cfg.Get(KeyIssuerName), DefaultIssuerName),
		AcmeEmail:     cfg.Get(KeyAcmeEmail),
		IngressClass:  cfg.Get(KeyIngressClass),
	}
	if ac.PlatformStack == "" {
		return nil, fmt.Errorf("config %s:%s is required", Namespace, KeyPlatformStack)
	}
	if ac.Domain == "" {
		return nil, fmt.Errorf("config %s:%s is required", Namespace, KeyDomain)
	}

	proxied, err := parseBool(cfg.Get(KeyProxied))
	if err != nil {
		return nil, fmt.Errorf("config %s:%s: %w", Namespace, KeyProxied, err)
	}
	ac.Proxied = proxied

	ac.IssuerScope = orDefault(cfg.Get(KeyIssuerScope), ScopeCluster)
	switch ac.IssuerScope {
	case ScopeCluster, ScopeNone:
	case ScopeNamespace:
		if ac.AcmeEmail == "" {
			return nil, fmt.Errorf("config %s:%s is required for namespaced issuers", Namespace, KeyAcmeEmail)
		}
	default:
		return nil, fmt.Errorf("config %s:%s must be %q, %q or %q, got %q", Namespace, KeyIssuerScope, ScopeCluster, ScopeNamespace, ScopeNone, ac.IssuerScope)
	}

	if err := cfg.GetObject(KeyApps, &ac.Apps); err != nil {
		return nil, fmt.Errorf("failed to decode config %s:%s: %w", Namespace, KeyApps, err)
	}

	if cfg.Get(KeyRootPassword) != "" {
		ac.RootPassword = cfg.GetSecret(KeyRootPassword)
		ac.HasRootPassword = true
	}
	return ac, nil
}

// PlatformValues renders the platform stack configuration for the project.
func (p *Project) PlatformValues(secrets Secrets) (map[string]Value, error) {
	addons, err := json.Marshal(p.Addons)
	if err != nil {
		return nil, fmt.Errorf("failed to encode addons: %w", err)
	}

	values := map[string]Value{
		key(Namespace, KeyDomain):      {Value: p.Domain},
		key(Namespace, KeyAcmeEmail):   {Value: p.Acme.Email},
		key(Namespace, KeyIssuerScope): {Value: p.Acme.Scope},
		key(Namespace, KeyIssuerName):  {Value: p.Acme.IssuerName},
		key(Namespace, KeyAcmeSolver):  {Value: p.Acme.Solver},
		key(Namespace, KeyAddons):      {Value: string(addons)},
	}
	p.addCommon(values, secrets)
	return values, nil
}

// AppsValues renders the apps stack configuration for the project.
func (p *Project) AppsValues(secrets Secrets) (map[string]Value, error) {
	apps := p.Apps
	if apps == nil {
		apps = []AppConfig{}
	}
	encoded, err := json.Marshal(apps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode apps: %w", err)
	}

	values := map[string]Value{
		key(Namespace, KeyPlatformStack): {Value: p.PlatformStackRef()},
		key(Namespace, KeyDomain):        {Value: p.Domain},
		key(Namespace, KeyApps):          {Value: string(encoded)},
		key(Namespace, KeyIssuerScope):   {Value: p.appsIssuerScope()},
		key(Namespace, KeyIssuerName):    {Value: p.Acme.IssuerName},
		key(Namespace, KeyAcmeEmail):     {Value: p.Acme.Email},
	}
	if secrets.RootPassword != "" {
		values[key(Namespace, KeyRootPassword)] = Value{Value: secrets.RootPassword, Secret: true}
	}
	p.addCommon(values, secrets)
	return values, nil
}

// appsIssuerScope disables TLS for apps when the platform has no cert-manager.
func (p *Project) appsIssuerScope() string {
	if !p.Addons.CertManager.IsEnabled(true) {
		return ScopeNone
	}
	return p.Acme.Scope
}

func (p *Project) addCommon(values map[string]Value, secrets Secrets) {
	if p.Kubeconfig != "" {
		values[key(Namespace, KeyKubeconfig)] = Value{Value: p.Kubeconfig}
	}
	if p.KubeContext != "" {
		values[key(Namespace, KeyKubeContext)] = Value{Value: p.KubeContext}
	}
	if p.Cloudflare.ZoneID != "" {
		values[key(CloudflareNamespace, KeyZoneID)] = Value{Value: p.Cloudflare.ZoneID}
	}
	values[key(Namespace, KeyProxied)] = Value{Value: strconv.FormatBool(p.Cloudflare.Proxied)}
	if secrets.CloudflareAPIToken != "" {
		values[key(CloudflareNamespace, KeyAPIToken)] = Value{Value: secrets.CloudflareAPIToken, Secret: true}
	}
}

func key(namespace, name string) string {
	return namespace + ":" + name
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
