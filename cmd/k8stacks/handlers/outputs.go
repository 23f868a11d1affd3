package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/k8stacks/internal/config"
)

// Outputs prints the outputs of a deployed stack as YAML.
func Outputs(ctx context.Context, projectPath, stack string, showSecrets bool) error {
	s, err := loadSession(projectPath)
	if err != nil {
		return err
	}

	// Outputs never change configuration, so no secrets are needed.
	req, err := buildRequest(s, StackOptions{Stack: stack, Quiet: true}, config.Secrets{})
	if err != nil {
		return err
	}
	req.Config = nil

	outputs, err := newRunner().Outputs(ctx, req)
	if err != nil {
		return err
	}

	data, err := outputs.YAML(showSecrets)
	if err != nil {
		return fmt.Errorf("failed to encode outputs: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
