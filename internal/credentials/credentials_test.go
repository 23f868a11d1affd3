package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/imamik/k8stacks/internal/config"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{CloudflareAPIToken, RootPassword}, Names())
	assert.Equal(t, config.EnvCloudflareAPIToken, EnvName(CloudflareAPIToken))
	assert.Empty(t, EnvName("nope"))
}

func TestKeyringRoundTrip(t *testing.T) {
	keyring.MockInit()

	got, err := Get(RootPassword)
	require.NoError(t, err)
	assert.Empty(t, got, "missing entry is not an error")

	require.NoError(t, Set(RootPassword, "s3cret-value"))
	got, err = Get(RootPassword)
	require.NoError(t, err)
	assert.Equal(t, "s3cret-value", got)

	require.NoError(t, Delete(RootPassword))
	require.NoError(t, Delete(RootPassword), "deleting twice succeeds")
	got, err = Get(RootPassword)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnknownAndEmpty(t *testing.T) {
	keyring.MockInit()

	_, err := Get("aws-key")
	assert.ErrorContains(t, err, "unknown secret")
	assert.Error(t, Set("aws-key", "x"))
	assert.Error(t, Delete("aws-key"))
	assert.ErrorContains(t, Set(RootPassword, ""), "must not be empty")
}

func TestResolve(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, Set(CloudflareAPIToken, "from-keyring"))
	require.NoError(t, Set(RootPassword, "keyring-password"))

	tests := []struct {
		name string
		env  config.Env
		want config.Secrets
	}{
		{
			name: "keyring fallback",
			env:  config.Env{},
			want: config.Secrets{CloudflareAPIToken: "from-keyring", RootPassword: "keyring-password"},
		},
		{
			name: "environment wins",
			env:  config.Env{CloudflareAPIToken: "from-env"},
			want: config.Secrets{CloudflareAPIToken: "from-env", RootPassword: "keyring-password"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(&tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
