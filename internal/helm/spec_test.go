package helm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChartSpec(t *testing.T) {
	tests := []struct {
		name     string
		addon    string
		override ChartSpec
		expected ChartSpec
	}{
		{
			name:  "cert-manager defaults",
			addon: CertManager,
			expected: ChartSpec{
				Repository: "https://charts.jetstack.io",
				Name:       "cert-manager",
				Version:    "v1.19.2",
			},
		},
		{
			name:     "version override",
			addon:    IngressNginx,
			override: ChartSpec{Version: "4.12.0"},
			expected: ChartSpec{
				Repository: "https://kubernetes.github.io/ingress-nginx",
				Name:       "ingress-nginx",
				Version:    "4.12.0",
			},
		},
		{
			name:     "all overrides",
			addon:    ArgoCD,
			override: ChartSpec{Repository: "https://mirror.example.com", Name: "argo", Version: "1.0.0"},
			expected: ChartSpec{Repository: "https://mirror.example.com", Name: "argo", Version: "1.0.0"},
		},
		{
			name:     "unknown addon returns override",
			addon:    "does-not-exist",
			override: ChartSpec{Repository: "https://example.com", Name: "x", Version: "0.1.0"},
			expected: ChartSpec{Repository: "https://example.com", Name: "x", Version: "0.1.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetChartSpec(tt.addon, tt.override))
		})
	}
}

func TestGetChartSpec_DoesNotMutateRegistry(t *testing.T) {
	before := DefaultChartSpecs[CertManager]
	_ = GetChartSpec(CertManager, ChartSpec{Version: "v0.0.1"})
	assert.Equal(t, before, DefaultChartSpecs[CertManager])
}

func TestDefaultChartSpecs_AreValidPins(t *testing.T) {
	for _, name := range Addons() {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, DefaultChartSpecs[name].Validate())
		})
	}
}

func TestChartSpec_Validate(t *testing.T) {
	assert.Error(t, ChartSpec{Name: "x", Version: "1.0.0"}.Validate())
	assert.Error(t, ChartSpec{Repository: "https://x", Version: "1.0.0"}.Validate())
	assert.Error(t, ChartSpec{Repository: "https://x", Name: "x"}.Validate())

	err := ChartSpec{Repository: "https://x", Name: "x", Version: "latest"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid version")

	assert.NoError(t, ChartSpec{Repository: "https://x", Name: "x", Version: "v1.2.3"}.Validate())
}

func TestChartSpec_Ref(t *testing.T) {
	oci := DefaultChartSpecs[PostgreSQL]
	assert.True(t, oci.IsOCI())
	assert.Equal(t, "oci://registry-1.docker.io/bitnamicharts/postgresql", oci.Ref())

	classic := DefaultChartSpecs[CertManager]
	assert.False(t, classic.IsOCI())
	assert.Equal(t, "cert-manager", classic.Ref())
}

func TestAddons_Sorted(t *testing.T) {
	names := Addons()
	assert.Len(t, names, len(DefaultChartSpecs))
	assert.IsNonDecreasing(t, names)
}
