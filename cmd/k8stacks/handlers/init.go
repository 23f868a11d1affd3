package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/imamik/k8stacks/internal/config"
	"github.com/imamik/k8stacks/internal/config/wizard"
)

// Factory function variables for init - can be replaced in tests.
var (
	// fileExists checks if a file exists.
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	// runWizard asks for the project settings.
	runWizard = wizard.RunWizard

	// writeProject writes the project file.
	writeProject = config.Save
)

// Init runs the project wizard and writes the result to outputPath.
func Init(ctx context.Context, outputPath string) error {
	if !isInteractiveTTY() {
		return fmt.Errorf("init needs an interactive terminal; write %s by hand instead", config.DefaultProjectFile)
	}
	if fileExists(outputPath) {
		fmt.Printf("Warning: %s already exists and will be overwritten.\n\n", outputPath)
	}

	printWelcome()

	result, err := runWizard(ctx)
	if err != nil {
		return err
	}

	project := result.ToProject()
	if err := project.Validate(); err != nil {
		return fmt.Errorf("generated project is invalid: %w", err)
	}

	if err := writeProject(project, outputPath); err != nil {
		return err
	}

	printInitSuccess(outputPath, project)
	return nil
}

// printWelcome prints the welcome message.
func printWelcome() {
	fmt.Println()
	fmt.Println("k8stacks - Kubernetes platform and apps on Pulumi")
	fmt.Println("=================================================")
	fmt.Println()
	fmt.Println("This wizard creates a project file for the platform and apps stacks.")
	fmt.Println("Secrets are not asked for here.")
	fmt.Println()
}

// printInitSuccess prints the project summary and next steps.
func printInitSuccess(outputPath string, p *config.Project) {
	fmt.Println()
	fmt.Println("Project saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	fmt.Println()

	fmt.Println("Project Summary")
	fmt.Println("---------------")
	fmt.Printf("  Domain:  %s\n", p.Domain)
	fmt.Printf("  Stack:   %s\n", p.Stack)
	backend := p.Backend
	if backend == "" {
		backend = "pulumi login default"
	}
	fmt.Printf("  Backend: %s\n", backend)
	fmt.Printf("  Issuers: %s scope, %s challenge\n", p.Acme.Scope, p.Acme.Solver)
	fmt.Println()

	fmt.Println("Platform Addons")
	fmt.Println("---------------")
	fmt.Println("  - cert-manager")
	if p.Addons.IngressNginx.IsEnabled(true) {
		fmt.Println("  - ingress-nginx")
	}
	if p.Addons.ExternalDNS.IsEnabled(false) {
		fmt.Println("  - external-dns (Cloudflare)")
	}
	if p.Addons.ArgoCD.IsEnabled(true) {
		fmt.Println("  - Argo CD")
	}
	fmt.Println()

	step := 1
	fmt.Println("Next Steps")
	fmt.Println("----------")
	if needsCloudflareToken(p) {
		fmt.Printf("  %d. Store your Cloudflare API token:\n", step)
		fmt.Println("     k8stacks secrets set cloudflare-api-token")
		fmt.Println()
		step++
	}
	if strings.HasPrefix(p.Backend, "s3://") {
		fmt.Printf("  %d. Create the state bucket:\n", step)
		fmt.Println("     k8stacks backend init")
		fmt.Println()
		step++
	}
	fmt.Printf("  %d. Check your setup:\n", step)
	fmt.Println("     k8stacks doctor")
	fmt.Println()
	step++
	fmt.Printf("  %d. Deploy the platform:\n", step)
	fmt.Println("     k8stacks up platform")
	fmt.Println()
}

// needsCloudflareToken reports whether any feature talks to Cloudflare.
func needsCloudflareToken(p *config.Project) bool {
	if p.Addons.ExternalDNS.IsEnabled(false) || p.Acme.Solver == config.SolverDNS01 {
		return true
	}
	for _, a := range p.Apps {
		if a.DNS {
			return true
		}
	}
	return false
}
