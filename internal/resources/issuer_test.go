package resources

import (
	"errors"
	"testing"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ktesting "github.com/imamik/k8stacks/internal/testing"
)

func acmeOptions(name string, clusterScoped bool) AcmeIssuerOptions {
	scope := namespaced(name)
	scope.ClusterScoped = clusterScoped
	if clusterScoped {
		scope.Namespace = nil
	}
	return AcmeIssuerOptions{ScopedOptions: scope, Email: "ops@example.com"}
}

func TestIssuerKind(t *testing.T) {
	tests := []struct {
		clusterScoped bool
		expected      string
	}{
		{clusterScoped: true, expected: "ClusterIssuer"},
		{clusterScoped: false, expected: "Issuer"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, issuerKind(tt.clusterScoped))
		})
	}
}

func TestAcmeIssuerOptions_IssuerArgs(t *testing.T) {
	tests := []struct {
		name          string
		clusterScoped bool
		expectedKind  string
	}{
		{name: "cluster scoped", clusterScoped: true, expectedKind: KindClusterIssuer},
		{name: "namespaced", clusterScoped: false, expectedKind: KindIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := acmeOptions("public", tt.clusterScoped).issuerArgs()
			require.NoError(t, err)
			assert.Equal(t, pulumi.String(tt.expectedKind), args.Kind)
			assert.Equal(t, pulumi.String(CertManagerAPIVersion), args.ApiVersion)

			spec := args.OtherFields["spec"].(map[string]any)
			acme := spec["acme"].(map[string]any)
			assert.Equal(t, map[string]any{"name": "public-issuer"}, acme["privateKeySecretRef"])
		})
	}
}

func TestAcmeIssuerOptions_Server(t *testing.T) {
	tests := []struct {
		name     string
		opts     AcmeIssuerOptions
		expected string
	}{
		{name: "production by default", expected: LetsEncryptProduction},
		{name: "staging", opts: AcmeIssuerOptions{Staging: true}, expected: LetsEncryptStaging},
		{
			name:     "explicit server wins",
			opts:     AcmeIssuerOptions{Staging: true, Server: "https://acme.example.com/dir"},
			expected: "https://acme.example.com/dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.opts.server())
		})
	}
}

func TestAcmeIssuerOptions_Solver(t *testing.T) {
	t.Run("http01 defaults to nginx", func(t *testing.T) {
		solver, err := acmeOptions("public", true).solver()
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"http01": map[string]any{
				"ingress": map[string]any{"ingressClassName": "nginx"},
			},
		}, solver)
	})

	t.Run("dns01 requires token secret", func(t *testing.T) {
		opts := acmeOptions("public", true)
		opts.Solver = SolverDNS01Cloudflare
		_, err := opts.solver()
		var optsErr *OptionsError
		require.True(t, errors.As(err, &optsErr))
		assert.Contains(t, optsErr.Reason, "cloudflare token secret")
	})

	t.Run("dns01 with zones", func(t *testing.T) {
		opts := acmeOptions("public", true)
		opts.Solver = SolverDNS01Cloudflare
		opts.CloudflareTokenSecret = pulumi.String("cloudflare-token")
		opts.DNSZones = []string{"example.com"}

		solver, err := opts.solver()
		require.NoError(t, err)
		ref := solver["dns01"].(map[string]any)["cloudflare"].(map[string]any)["apiTokenSecretRef"].(map[string]any)
		assert.Equal(t, "api-token", ref["key"])
		assert.Equal(t, map[string]any{"dnsZones": []string{"example.com"}}, solver["selector"])
	})

	t.Run("unknown solver", func(t *testing.T) {
		opts := acmeOptions("public", true)
		opts.Solver = "tls-alpn"
		_, err := opts.solver()
		assert.Error(t, err)
	})
}

func TestAcmeIssuerOptions_RejectsBadEmail(t *testing.T) {
	opts := acmeOptions("public", true)
	opts.Email = "not-an-email"
	_, err := opts.issuerArgs()
	var optsErr *OptionsError
	require.True(t, errors.As(err, &optsErr))
	assert.Contains(t, optsErr.Reason, "invalid ACME email")
}

func TestNewAcmeIssuer_DeclaredKindFollowsScope(t *testing.T) {
	mocks := ktesting.NewResources()
	var cluster, local *Issuer
	err := ktesting.Run(mocks, func(ctx *pulumi.Context) error {
		var err error
		if cluster, err = NewAcmeIssuer(ctx, acmeOptions("public", true)); err != nil {
			return err
		}
		local, err = NewAcmeIssuer(ctx, acmeOptions("internal", false))
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, KindClusterIssuer, cluster.Kind)
	assert.Equal(t, KindIssuer, local.Kind)

	public, ok := findByKind(mocks, "public", KindClusterIssuer)
	require.True(t, ok)
	assert.True(t, ktesting.Lookup(public.Inputs, "metadata", "namespace").IsNull())

	internal, ok := findByKind(mocks, "internal", KindIssuer)
	require.True(t, ok)
	assert.Equal(t, "apps", ktesting.LookupString(internal.Inputs, "metadata", "namespace"))
}

func TestNewAcmeIssuer_SecretNameIndependentOfScope(t *testing.T) {
	for _, clusterScoped := range []bool{true, false} {
		mocks := ktesting.NewResources()
		var issuer *Issuer
		err := ktesting.Run(mocks, func(ctx *pulumi.Context) error {
			var err error
			issuer, err = NewAcmeIssuer(ctx, acmeOptions("public", clusterScoped))
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, "public-issuer", issuer.SecretName)

		declared, ok := findByKind(mocks, "public", issuerKind(clusterScoped))
		require.True(t, ok)
		assert.Equal(t, "public-issuer",
			ktesting.LookupString(declared.Inputs, "spec", "acme", "privateKeySecretRef", "name"))
	}
}

func TestIssuer_Ref(t *testing.T) {
	issuer := &Issuer{Name: "public", ClusterScoped: true}
	ref := issuer.Ref()
	assert.True(t, ref.ClusterScoped)
	assert.Equal(t, pulumi.String("public"), ref.Name)

	key, _ := ref.Annotation()
	assert.Equal(t, "cert-manager.io/cluster-issuer", key)
	key, _ = IssuerRef{Name: pulumi.String("local")}.Annotation()
	assert.Equal(t, "cert-manager.io/issuer", key)
}
