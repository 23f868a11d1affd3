package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Environment variables read by the CLI.
const (
	EnvBackendURL         = "K8STACKS_BACKEND_URL"
	EnvProjectFile        = "K8STACKS_PROJECT_FILE"
	EnvStack              = "K8STACKS_STACK"
	EnvLogLevel           = "K8STACKS_LOG_LEVEL"
	EnvPushgatewayURL     = "K8STACKS_PUSHGATEWAY_URL"
	EnvKubeconfig         = "K8STACKS_KUBECONFIG"
	EnvCloudflareAPIToken = "K8STACKS_CLOUDFLARE_API_TOKEN"
	EnvRootPassword       = "K8STACKS_ROOT_PASSWORD"
	EnvStateRegion        = "K8STACKS_STATE_REGION"
	EnvStateEndpoint      = "K8STACKS_STATE_ENDPOINT"
)

// secretEnv lists the variables whose values are never echoed.
var secretEnv = map[string]bool{
	EnvCloudflareAPIToken: true,
	EnvRootPassword:       true,
}

const redacted = "[redacted]"

const envSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "K8STACKS_BACKEND_URL": {
      "type": "string",
      "pattern": "^(s3|file|https|gs|azblob)://"
    },
    "K8STACKS_PROJECT_FILE": {
      "type": "string",
      "minLength": 1
    },
    "K8STACKS_STACK": {
      "type": "string",
      "pattern": "^[A-Za-z0-9_.-]{1,100}$"
    },
    "K8STACKS_LOG_LEVEL": {
      "type": "string",
      "enum": ["debug", "info", "warn", "error"]
    },
    "K8STACKS_PUSHGATEWAY_URL": {
      "type": "string",
      "pattern": "^https?://[^\\s/]+"
    },
    "K8STACKS_KUBECONFIG": {
      "type": "string",
      "minLength": 1
    },
    "K8STACKS_CLOUDFLARE_API_TOKEN": {
      "type": "string",
      "pattern": "^[A-Za-z0-9_-]{40}$"
    },
    "K8STACKS_ROOT_PASSWORD": {
      "type": "string",
      "minLength": 12
    },
    "K8STACKS_STATE_REGION": {
      "type": "string",
      "pattern": "^[a-z0-9-]+$"
    },
    "K8STACKS_STATE_ENDPOINT": {
      "type": "string",
      "pattern": "^https?://"
    }
  }
}`

// EnvValidationError reports an environment variable that failed schema
// validation. Value is redacted for secret variables.
type EnvValidationError struct {
	Key    string
	Value  string
	Errors []string
}

func (e *EnvValidationError) Error() string {
	return fmt.Sprintf("invalid %s=%q: %s", e.Key, e.Value, strings.Join(e.Errors, "; "))
}

// Env is the validated K8STACKS_* environment.
type Env struct {
	BackendURL         string
	ProjectFile        string
	Stack              string
	LogLevel           string
	PushgatewayURL     string
	Kubeconfig         string
	CloudflareAPIToken string
	RootPassword       string
	StateRegion        string
	StateEndpoint      string
}

// LookupFunc reads one variable, reporting whether it is set.
type LookupFunc func(key string) (string, bool)

// LoadEnv reads and validates the environment. Unset and empty variables
// are skipped. Every invalid variable yields one *EnvValidationError.
func LoadEnv(lookup LookupFunc) (*Env, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	env := &Env{}
	fields := map[string]*string{
		EnvBackendURL:         &env.BackendURL,
		EnvProjectFile:        &env.ProjectFile,
		EnvStack:              &env.Stack,
		EnvLogLevel:           &env.LogLevel,
		EnvPushgatewayURL:     &env.PushgatewayURL,
		EnvKubeconfig:         &env.Kubeconfig,
		EnvCloudflareAPIToken: &env.CloudflareAPIToken,
		EnvRootPassword:       &env.RootPassword,
		EnvStateRegion:        &env.StateRegion,
		EnvStateEndpoint:      &env.StateEndpoint,
	}

	doc := make(map[string]interface{})
	for name, field := range fields {
		if v, ok := lookup(name); ok && v != "" {
			*field = v
			doc[name] = v
		}
	}

	if err := validateEnv(doc); err != nil {
		return nil, err
	}
	return env, nil
}

func validateEnv(doc map[string]interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(envSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("environment schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	byKey := make(map[string][]string)
	for _, desc := range result.Errors() {
		byKey[desc.Field()] = append(byKey[desc.Field()], desc.Description())
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		value, _ := doc[k].(string)
		if secretEnv[k] {
			value = redacted
		}
		errs = append(errs, &EnvValidationError{Key: k, Value: value, Errors: byKey[k]})
	}
	return errors.Join(errs...)
}

// IsSecretEnv reports whether the variable holds a secret.
func IsSecretEnv(key string) bool {
	return secretEnv[key]
}
