// Package credentials resolves the secrets the CLI feeds into stack
// configuration. Environment variables win; the OS keyring is the fallback.
package credentials

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zalando/go-keyring"

	"github.com/imamik/k8stacks/internal/config"
)

// Service is the keyring service all k8stacks secrets are stored under.
const Service = "k8stacks"

// Secret names.
const (
	CloudflareAPIToken = "cloudflare-api-token"
	RootPassword       = "root-password"
)

// envNames maps secret names to the environment variables overriding them.
var envNames = map[string]string{
	CloudflareAPIToken: config.EnvCloudflareAPIToken,
	RootPassword:       config.EnvRootPassword,
}

// Names returns the known secret names in sorted order.
func Names() []string {
	names := make([]string, 0, len(envNames))
	for name := range envNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnvName returns the environment variable overriding a secret.
func EnvName(name string) string {
	return envNames[name]
}

func checkName(name string) error {
	if _, ok := envNames[name]; !ok {
		return fmt.Errorf("unknown secret %q (known: %v)", name, Names())
	}
	return nil
}

// Get reads a secret from the keyring. A missing entry is not an error.
func Get(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	secret, err := keyring.Get(Service, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s from keyring: %w", name, err)
	}
	return secret, nil
}

// Set stores a secret in the keyring.
func Set(name, value string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("secret %s must not be empty", name)
	}
	if err := keyring.Set(Service, name, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", name, err)
	}
	return nil
}

// Delete removes a secret from the keyring. Deleting a missing entry succeeds.
func Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := keyring.Delete(Service, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from keyring: %w", name, err)
	}
	return nil
}

// Resolve returns the stack secrets, preferring the environment over the
// keyring.
func Resolve(env *config.Env) (config.Secrets, error) {
	var secrets config.Secrets
	var err error

	secrets.CloudflareAPIToken, err = resolve(env.CloudflareAPIToken, CloudflareAPIToken)
	if err != nil {
		return config.Secrets{}, err
	}
	secrets.RootPassword, err = resolve(env.RootPassword, RootPassword)
	if err != nil {
		return config.Secrets{}, err
	}
	return secrets, nil
}

func resolve(fromEnv, name string) (string, error) {
	if fromEnv != "" {
		return fromEnv, nil
	}
	return Get(name)
}
