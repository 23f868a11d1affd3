// Package handlers implements the logic behind the k8stacks commands.
//
// External dependencies are reached through package-level function
// variables so tests can replace them.
package handlers

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/imamik/k8stacks/internal/config"
	"github.com/imamik/k8stacks/internal/credentials"
)

// Factory function variables for project loading - can be replaced in tests.
var (
	// loadEnv reads the K8STACKS_* environment.
	loadEnv = func() (*config.Env, error) {
		return config.LoadEnv(os.LookupEnv)
	}

	// getwd is where the project file search starts.
	getwd = os.Getwd

	// loadProjectFile parses and validates a project file.
	loadProjectFile = config.LoadFile

	// resolveSecrets reads secrets from the environment and the keyring.
	resolveSecrets = credentials.Resolve
)

// session is a loaded project with its environment applied.
type session struct {
	Path    string
	Env     *config.Env
	Project *config.Project
}

// loadSession reads the environment and the project file. The project path
// comes from the flag, K8STACKS_PROJECT_FILE or a search from the working
// directory, in that order. Environment variables override the file.
func loadSession(projectPath string) (*session, error) {
	env, err := loadEnv()
	if err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	configureLogging(env.LogLevel)

	path, err := projectFilePath(projectPath, env)
	if err != nil {
		return nil, err
	}

	project, err := loadProjectFile(path)
	if err != nil {
		return nil, err
	}
	applyEnv(project, env)

	return &session{Path: path, Env: env, Project: project}, nil
}

func projectFilePath(flagPath string, env *config.Env) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if env.ProjectFile != "" {
		return env.ProjectFile, nil
	}
	dir, err := getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	path, err := config.FindProjectFile(dir)
	if err != nil {
		return "", fmt.Errorf("no project file found: %w\nRun 'k8stacks init' to create one", err)
	}
	return path, nil
}

func applyEnv(p *config.Project, env *config.Env) {
	if env.Stack != "" {
		p.Stack = env.Stack
	}
	if env.BackendURL != "" {
		p.Backend = env.BackendURL
	}
	if env.Kubeconfig != "" {
		p.Kubeconfig = env.Kubeconfig
	}
	if env.PushgatewayURL != "" {
		p.Metrics.PushgatewayURL = env.PushgatewayURL
	}
}

// configureLogging silences progress logs at the error level.
func configureLogging(level string) {
	if level == "error" {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(os.Stderr)
	if level == "debug" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// isInteractiveTTY reports whether prompts can be answered. Forms read
// from stdin, so stdout being a terminal is not enough.
var isInteractiveTTY = func() bool {
	return isTerminal(os.Stdin)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
