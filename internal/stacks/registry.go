package stacks

import (
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/imamik/k8stacks/internal/config"
)

// Programs maps Pulumi project names to their programs.
var Programs = map[string]pulumi.RunFunc{
	config.PlatformProject: Platform,
	config.AppsProject:     Apps,
}

// Short names accepted by the CLI.
const (
	PlatformName = "platform"
	AppsName     = "apps"
)

var aliases = map[string]string{
	PlatformName: config.PlatformProject,
	AppsName:     config.AppsProject,
}

// Lookup resolves a short name or project name to the project name and
// program.
func Lookup(name string) (string, pulumi.RunFunc, error) {
	if project, ok := aliases[name]; ok {
		name = project
	}
	program, ok := Programs[name]
	if !ok {
		return "", nil, fmt.Errorf("unknown stack %q (known: %v)", name, Names())
	}
	return name, program, nil
}

// Names returns the short names in deployment order.
func Names() []string {
	return []string{PlatformName, AppsName}
}
