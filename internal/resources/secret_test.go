package resources

import (
	"errors"
	"strings"
	"testing"

	"github.com/GehirnInc/crypt/sha512_crypt"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ktesting "github.com/imamik/k8stacks/internal/testing"
)

func TestSecretOptions_StringData(t *testing.T) {
	tests := []struct {
		name     string
		opts     SecretOptions
		wantKeys []string
		wantErr  string
	}{
		{
			name:     "single pair",
			opts:     SecretOptions{Key: "password", Value: pulumi.String("s3cret")},
			wantKeys: []string{"password"},
		},
		{
			name: "data map",
			opts: SecretOptions{Data: map[string]pulumi.StringInput{
				"username": pulumi.String("admin"),
				"password": pulumi.String("s3cret"),
			}},
			wantKeys: []string{"password", "username"},
		},
		{
			name: "both forms",
			opts: SecretOptions{
				Key:   "password",
				Value: pulumi.String("s3cret"),
				Data:  map[string]pulumi.StringInput{"other": pulumi.String("x")},
			},
			wantErr: "mutually exclusive",
		},
		{name: "neither form", opts: SecretOptions{}, wantErr: "one of key/value or data is required"},
		{name: "key without value", opts: SecretOptions{Key: "password"}, wantErr: "both key and value"},
		{name: "value without key", opts: SecretOptions{Value: pulumi.String("x")}, wantErr: "both key and value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.opts.stringData()
			if tt.wantErr != "" {
				var optsErr *OptionsError
				require.True(t, errors.As(err, &optsErr))
				assert.Contains(t, optsErr.Reason, tt.wantErr)
				return
			}
			require.NoError(t, err)
			var keys []string
			for k := range data {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.wantKeys, keys)
		})
	}
}

func TestConfigMapOptions_Data(t *testing.T) {
	_, err := ConfigMapOptions{
		Key:   "APP_ENV",
		Value: pulumi.String("prod"),
		Data:  map[string]string{"LOG_LEVEL": "info"},
	}.data()
	assert.Error(t, err)

	_, err = ConfigMapOptions{}.data()
	assert.Error(t, err)

	data, err := ConfigMapOptions{Data: map[string]string{"LOG_LEVEL": "info"}}.data()
	require.NoError(t, err)
	assert.Len(t, data, 1)
}

func TestNewSecret_DefaultsToOpaque(t *testing.T) {
	mocks := ktesting.NewResources()
	err := ktesting.Run(mocks, func(ctx *pulumi.Context) error {
		_, err := NewSecret(ctx, SecretOptions{
			ScopedOptions: namespaced("db-credentials"),
			Key:           "password",
			Value:         pulumi.String("s3cret"),
		})
		return err
	})
	require.NoError(t, err)

	secret := mocks.MustFind(typeSecret, "db-credentials")
	assert.Equal(t, "Opaque", ktesting.LookupString(secret.Inputs, "type"))
	assert.Equal(t, "apps", ktesting.LookupString(secret.Inputs, "metadata", "namespace"))
}

func TestNewSecret_ValidationBeforeDeclaration(t *testing.T) {
	mocks := ktesting.NewResources()
	var factoryErr error
	err := ktesting.Run(mocks, func(ctx *pulumi.Context) error {
		_, factoryErr = NewSecret(ctx, SecretOptions{ScopedOptions: namespaced("empty")})
		return nil
	})
	require.NoError(t, err)
	assert.Error(t, factoryErr)
	assert.Empty(t, mocks.ByType(typeSecret))
}

func TestNewConfigMap(t *testing.T) {
	mocks := ktesting.NewResources()
	err := ktesting.Run(mocks, func(ctx *pulumi.Context) error {
		_, err := NewConfigMap(ctx, ConfigMapOptions{
			ScopedOptions: namespaced("web-config"),
			Data:          map[string]string{"LOG_LEVEL": "info"},
		})
		return err
	})
	require.NoError(t, err)

	cm := mocks.MustFind(typeConfigMap, "web-config")
	assert.Equal(t, "info", ktesting.LookupString(cm.Inputs, "data", "LOG_LEVEL"))
}

func TestNewBasicAuthSecret(t *testing.T) {
	render := func() string {
		mocks := ktesting.NewResources()
		err := ktesting.Run(mocks, func(ctx *pulumi.Context) error {
			_, err := NewBasicAuthSecret(ctx, BasicAuthOptions{
				ScopedOptions: namespaced("argocd"),
				Username:      "admin",
				Password:      pulumi.String("hunter2"),
			})
			return err
		})
		require.NoError(t, err)

		secret := mocks.MustFind(typeSecret, "argocd-basic-auth")
		assert.True(t, ktesting.IsSecret(secret.Inputs, "stringData", "auth"))
		return ktesting.LookupString(secret.Inputs, "stringData", "auth")
	}

	first := render()
	require.True(t, strings.HasPrefix(first, "admin:$6$"), first)
	assert.Equal(t, first, render(), "unchanged credentials must render the same secret")
}

func TestNewBasicAuthSecret_RequiresCredentials(t *testing.T) {
	_, err := NewBasicAuthSecret(nil, BasicAuthOptions{ScopedOptions: namespaced("argocd")})
	assert.Error(t, err)

	_, err = NewBasicAuthSecret(nil, BasicAuthOptions{ScopedOptions: namespaced("argocd"), Username: "admin"})
	assert.Error(t, err)
}

func TestHtpasswd(t *testing.T) {
	line, err := htpasswd("admin", "hunter2")
	require.NoError(t, err)

	user, hash, ok := strings.Cut(line, ":")
	require.True(t, ok)
	assert.Equal(t, "admin", user)
	assert.NoError(t, sha512_crypt.New().Verify(hash, []byte("hunter2")))
	assert.Error(t, sha512_crypt.New().Verify(hash, []byte("hunter3")))

	again, err := htpasswd("admin", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, line, again)

	otherPassword, err := htpasswd("admin", "hunter3")
	require.NoError(t, err)
	assert.NotEqual(t, line, otherPassword)

	otherUser, err := htpasswd("root", "hunter2")
	require.NoError(t, err)
	_, otherHash, _ := strings.Cut(otherUser, ":")
	assert.NotEqual(t, hash, otherHash, "salt depends on the username")

	_, err = htpasswd("admin", "")
	assert.Error(t, err)
}
