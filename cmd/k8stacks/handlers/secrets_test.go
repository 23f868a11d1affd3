package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k8stacks/internal/credentials"
)

func TestSecretsList(t *testing.T) {
	saveAndRestoreFactories(t)
	lookupEnv = func(key string) (string, bool) {
		if key == credentials.EnvName(credentials.CloudflareAPIToken) {
			return "from-env", true
		}
		return "", false
	}
	getSecret = func(string) (string, error) { return "", nil }

	output := captureOutput(func() {
		require.NoError(t, SecretsList())
	})

	assert.Contains(t, output, "environment")
	assert.Contains(t, output, "not set")
	assert.NotContains(t, output, "from-env")
}

func TestSecretsList_Keyring(t *testing.T) {
	saveAndRestoreFactories(t)
	lookupEnv = func(string) (string, bool) { return "", false }
	getSecret = func(name string) (string, error) { return "stored-" + name, nil }

	output := captureOutput(func() {
		require.NoError(t, SecretsList())
	})

	assert.Equal(t, len(credentials.Names()), strings.Count(output, "keyring"))
	assert.NotContains(t, output, "stored-")
}

func TestSecretsSet_Stdin(t *testing.T) {
	saveAndRestoreFactories(t)
	stdin = strings.NewReader("token-value\n")
	var gotName, gotValue string
	setSecret = func(name, value string) error {
		gotName, gotValue = name, value
		return nil
	}

	output := captureOutput(func() {
		require.NoError(t, SecretsSet(context.Background(), credentials.CloudflareAPIToken, true))
	})

	assert.Equal(t, credentials.CloudflareAPIToken, gotName)
	assert.Equal(t, "token-value", gotValue)
	assert.Contains(t, output, "Stored")
}

func TestSecretsSet_Prompt(t *testing.T) {
	saveAndRestoreFactories(t)
	isInteractiveTTY = func() bool { return true }
	promptSecret = func(context.Context, string) (string, error) { return "typed", nil }
	var gotValue string
	setSecret = func(_, value string) error {
		gotValue = value
		return nil
	}

	captureOutput(func() {
		require.NoError(t, SecretsSet(context.Background(), credentials.RootPassword, false))
	})
	assert.Equal(t, "typed", gotValue)
}

func TestSecretsSet_Errors(t *testing.T) {
	t.Run("no terminal", func(t *testing.T) {
		saveAndRestoreFactories(t)

		err := SecretsSet(context.Background(), credentials.RootPassword, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--stdin")
	})

	t.Run("keyring error", func(t *testing.T) {
		saveAndRestoreFactories(t)
		stdin = strings.NewReader("value")
		setSecret = func(string, string) error { return errors.New("keyring unavailable") }

		err := SecretsSet(context.Background(), credentials.RootPassword, true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "keyring unavailable")
	})
}

func TestSecretsDelete(t *testing.T) {
	saveAndRestoreFactories(t)
	var deleted string
	deleteSecret = func(name string) error {
		deleted = name
		return nil
	}

	output := captureOutput(func() {
		require.NoError(t, SecretsDelete(credentials.RootPassword))
	})

	assert.Equal(t, credentials.RootPassword, deleted)
	assert.Contains(t, output, "Deleted")
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "secret\n", want: "secret"},
		{in: "secret\r\n", want: "secret"},
		{in: "secret", want: "secret"},
		{in: "first\nsecond\n", want: "first"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		got, err := readLine(strings.NewReader(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
