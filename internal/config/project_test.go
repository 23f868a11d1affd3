package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k8stacks/internal/helm"
)

const sampleProject = `
domain: Example.com
acme:
  email: ops@example.com
cloudflare:
  zoneId: zone-123
addons:
  externalDNS:
    enabled: true
  argoCD:
    chart:
      version: 9.4.0
    values:
      server:
        replicas: 3
apps:
  - name: shop
    image: ghcr.io/acme/shop:1.2.3
    port: 3000
    database:
      engine: mysql
    dns: true
  - name: blog
    subdomain: "@"
    image: ghcr.io/acme/blog:latest
`

func validProject() *Project {
	p := &Project{
		Domain: "example.com",
		Acme:   AcmeConfig{Email: "ops@example.com"},
	}
	p.ApplyDefaults()
	return p
}

func TestParse(t *testing.T) {
	p, err := Parse([]byte(sampleProject))
	require.NoError(t, err)

	assert.Equal(t, "example.com", p.Domain, "domain is lowercased")
	assert.Equal(t, DefaultStack, p.Stack)
	assert.Equal(t, DefaultOrganization, p.Organization)
	assert.Equal(t, ScopeCluster, p.Acme.Scope)
	assert.Equal(t, SolverHTTP01, p.Acme.Solver)
	assert.Equal(t, DefaultIssuerName, p.Acme.IssuerName)

	assert.True(t, p.Addons.ExternalDNS.IsEnabled(false))
	assert.True(t, p.Addons.CertManager.IsEnabled(true))
	assert.Equal(t, "9.4.0", p.Addons.ArgoCD.Chart.Version)
	server, ok := p.Addons.ArgoCD.Values["server"].(helm.Values)
	require.True(t, ok, "nested values decode as helm.Values")
	assert.Equal(t, helm.Values{"replicas": 3}, server)
	assert.Equal(t, map[string]any{"server": map[string]any{"replicas": 3}}, p.Addons.ArgoCD.Values.ToMap())

	require.Len(t, p.Apps, 2)
	assert.Equal(t, "shop", p.Apps[0].Host())
	assert.Equal(t, "@", p.Apps[1].Host())
	assert.Equal(t, "mysql", p.Apps[0].Database.Engine)
	assert.Equal(t, "organization/k8stacks-platform/dev", p.PlatformStackRef())
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("domain: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Project)
		wantErr string
	}{
		{name: "valid", mutate: func(p *Project) {}},
		{name: "missing domain", mutate: func(p *Project) { p.Domain = "" }, wantErr: "domain"},
		{name: "single label domain", mutate: func(p *Project) { p.Domain = "localhost" }, wantErr: "domain"},
		{name: "bad stack", mutate: func(p *Project) { p.Stack = "prod stack" }, wantErr: "stack"},
		{name: "bad backend", mutate: func(p *Project) { p.Backend = "ftp://x" }, wantErr: "backend"},
		{name: "s3 backend", mutate: func(p *Project) { p.Backend = "s3://state?region=eu-central-1" }},
		{name: "bad email", mutate: func(p *Project) { p.Acme.Email = "not-an-email" }, wantErr: "acme.email"},
		{
			name: "email ignored without cert-manager",
			mutate: func(p *Project) {
				disabled := false
				p.Acme.Email = ""
				p.Addons.CertManager.Enabled = &disabled
			},
		},
		{name: "bad scope", mutate: func(p *Project) { p.Acme.Scope = "global" }, wantErr: "acme.scope"},
		{name: "bad solver", mutate: func(p *Project) { p.Acme.Solver = "tls-alpn" }, wantErr: "acme.solver"},
		{name: "dns01 needs zone", mutate: func(p *Project) { p.Acme.Solver = SolverDNS01 }, wantErr: "cloudflare.zoneId"},
		{
			name: "dns01 with zone",
			mutate: func(p *Project) {
				p.Acme.Solver = SolverDNS01
				p.Cloudflare.ZoneID = "zone"
			},
		},
		{name: "bad issuer name", mutate: func(p *Project) { p.Acme.IssuerName = "Lets_Encrypt" }, wantErr: "issuerName"},
		{
			name:    "bad chart version",
			mutate:  func(p *Project) { p.Addons.CertManager.Chart.Version = "latest" },
			wantErr: "addons.cert-manager.chart",
		},
		{
			name:    "app without image",
			mutate:  func(p *Project) { p.Apps = []AppConfig{{Name: "shop"}} },
			wantErr: "apps[0]: image is required",
		},
		{
			name: "duplicate app",
			mutate: func(p *Project) {
				p.Apps = []AppConfig{{Name: "shop", Image: "a"}, {Name: "shop", Subdomain: "store", Image: "b"}}
			},
			wantErr: "duplicate app name",
		},
		{
			name: "duplicate subdomain",
			mutate: func(p *Project) {
				p.Apps = []AppConfig{{Name: "shop", Image: "a"}, {Name: "store", Subdomain: "shop", Image: "b"}}
			},
			wantErr: "already used by shop",
		},
		{
			name:    "app name not a label",
			mutate:  func(p *Project) { p.Apps = []AppConfig{{Name: "Shop", Image: "a"}} },
			wantErr: "name \"Shop\"",
		},
		{
			name:    "app port",
			mutate:  func(p *Project) { p.Apps = []AppConfig{{Name: "shop", Image: "a", Port: 70000}} },
			wantErr: "port 70000",
		},
		{
			name:    "app dns without zone",
			mutate:  func(p *Project) { p.Apps = []AppConfig{{Name: "shop", Image: "a", DNS: true}} },
			wantErr: "dns requires cloudflare.zoneId",
		},
		{
			name: "app database engine",
			mutate: func(p *Project) {
				p.Apps = []AppConfig{{Name: "shop", Image: "a", Database: &DatabaseConfig{Engine: "oracle"}}}
			},
			wantErr: "unsupported database engine",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProject()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	p := validProject()
	p.Domain = ""
	p.Acme.Scope = "global"

	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain")
	assert.Contains(t, err.Error(), "acme.scope")
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultProjectFile)
	p := validProject()
	p.Apps = []AppConfig{{Name: "shop", Image: "ghcr.io/acme/shop:1"}}

	require.NoError(t, Save(p, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# k8stacks project file")

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read project file")
}

func TestFindProjectFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultProjectFile), []byte("domain: example.com\n"), 0o600))

	path, err := FindProjectFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, DefaultProjectFile), path)
}

func TestFindProjectFile_NotFound(t *testing.T) {
	_, err := FindProjectFile(t.TempDir())
	assert.ErrorContains(t, err, "not found")
}

func TestAddonConfig_IsEnabled(t *testing.T) {
	on, off := true, false
	assert.True(t, AddonConfig{}.IsEnabled(true))
	assert.False(t, AddonConfig{}.IsEnabled(false))
	assert.True(t, AddonConfig{Enabled: &on}.IsEnabled(false))
	assert.False(t, AddonConfig{Enabled: &off}.IsEnabled(true))
}
