package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k8stacks/internal/config"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) error
		input   string
		wantErr error
	}{
		{name: "domain ok", fn: validateDomain, input: "example.com"},
		{name: "domain uppercase", fn: validateDomain, input: "Example.COM"},
		{name: "domain single label", fn: validateDomain, input: "localhost", wantErr: errDomainInvalid},
		{name: "domain empty", fn: validateDomain, input: "", wantErr: errDomainInvalid},
		{name: "email ok", fn: validateEmail, input: "ops@example.com"},
		{name: "email bad", fn: validateEmail, input: "ops", wantErr: errEmailInvalid},
		{name: "stack ok", fn: validateStack, input: "prod"},
		{name: "stack space", fn: validateStack, input: "my stack", wantErr: errStackInvalid},
		{name: "backend empty", fn: validateBackend, input: ""},
		{name: "backend s3", fn: validateBackend, input: "s3://state"},
		{name: "backend bad", fn: validateBackend, input: "state-bucket", wantErr: errBackendInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestToProject(t *testing.T) {
	r := &Result{
		Domain:        "Example.com",
		Email:         "ops@example.com",
		Stack:         "prod",
		Scope:         config.ScopeNamespace,
		Solver:        config.SolverDNS01,
		ZoneID:        "zone-1",
		EnabledAddons: []string{AddonExternalDNS},
	}

	p := r.ToProject()
	require.NoError(t, p.Validate())

	assert.Equal(t, "example.com", p.Domain)
	assert.Equal(t, "prod", p.Stack)
	assert.Equal(t, config.DefaultOrganization, p.Organization)
	assert.Equal(t, config.DefaultIssuerName, p.Acme.IssuerName)
	assert.Equal(t, config.ScopeNamespace, p.Acme.Scope)
	assert.Equal(t, "zone-1", p.Cloudflare.ZoneID)

	assert.True(t, p.Addons.CertManager.IsEnabled(true))
	assert.True(t, p.Addons.ExternalDNS.IsEnabled(false))
	assert.False(t, p.Addons.IngressNginx.IsEnabled(true))
	assert.False(t, p.Addons.ArgoCD.IsEnabled(true))
}
