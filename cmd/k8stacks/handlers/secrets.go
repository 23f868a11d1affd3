package handlers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/imamik/k8stacks/internal/credentials"
)

// Factory function variables for secrets - can be replaced in tests.
var (
	setSecret    = credentials.Set
	getSecret    = credentials.Get
	deleteSecret = credentials.Delete

	// lookupEnv reads the secret override variables.
	lookupEnv = os.LookupEnv

	// stdin is read by 'secrets set --stdin'.
	stdin io.Reader = os.Stdin

	// promptSecret asks for a secret without echoing it.
	promptSecret = func(ctx context.Context, name string) (string, error) {
		var value string
		err := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title(name).
				EchoMode(huh.EchoModePassword).
				Value(&value),
		)).RunWithContext(ctx)
		return value, err
	}
)

// SecretsList shows where each secret is resolved from. Values are never
// printed.
func SecretsList() error {
	fmt.Printf("%-22s %-32s %s\n", "NAME", "ENVIRONMENT", "SOURCE")
	for _, name := range credentials.Names() {
		envName := credentials.EnvName(name)
		source := "not set"
		if v, ok := lookupEnv(envName); ok && v != "" {
			source = "environment"
		} else {
			v, err := getSecret(name)
			if err != nil {
				return err
			}
			if v != "" {
				source = "keyring"
			}
		}
		fmt.Printf("%-22s %-32s %s\n", name, envName, source)
	}
	return nil
}

// SecretsSet stores a secret in the keyring. The value is prompted for,
// or read from stdin when fromStdin is set.
func SecretsSet(ctx context.Context, name string, fromStdin bool) error {
	var value string
	var err error
	if fromStdin {
		value, err = readLine(stdin)
	} else {
		if !isInteractiveTTY() {
			return fmt.Errorf("no terminal to prompt for %s: use --stdin", name)
		}
		value, err = promptSecret(ctx, name)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := setSecret(name, value); err != nil {
		return err
	}
	fmt.Printf("Stored %s in the keyring.\n", name)
	return nil
}

// SecretsDelete removes a secret from the keyring.
func SecretsDelete(name string) error {
	if err := deleteSecret(name); err != nil {
		return err
	}
	fmt.Printf("Deleted %s from the keyring.\n", name)
	return nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
