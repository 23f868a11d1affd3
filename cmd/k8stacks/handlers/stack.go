package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/imamik/k8stacks/internal/automation"
	"github.com/imamik/k8stacks/internal/config"
	"github.com/imamik/k8stacks/internal/platform/cloudflare"
	"github.com/imamik/k8stacks/internal/stacks"
	"github.com/imamik/k8stacks/internal/telemetry"
	"github.com/imamik/k8stacks/internal/util/prerequisites"
)

// StackOptions are the flags shared by the lifecycle commands.
type StackOptions struct {
	ProjectPath string
	// Stack is "platform" or "apps".
	Stack string
	Quiet bool

	// Destroy only.
	Remove bool
	Yes    bool
}

// dnsCleaner deletes the DNS records external-dns left behind.
type dnsCleaner interface {
	CleanupOwnerRecords(ctx context.Context, zoneID, ownerID string) (int, error)
}

// Factory function variables for stack operations - can be replaced in tests.
var (
	// newRunner creates the Automation API runner.
	newRunner = func() automation.Runner {
		return automation.NewLocalRunner()
	}

	// newRecorder creates the Pushgateway recorder.
	newRecorder = telemetry.NewRecorder

	// checkTools verifies the pulumi CLI is installed.
	checkTools = func() error {
		return prerequisites.CheckDefault().Error()
	}

	// confirmDestroy asks before destroying a stack.
	confirmDestroy = func(stackName string) (bool, error) {
		confirmed := false
		err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Destroy every resource of %s?", stackName)).
				Affirmative("Destroy").
				Negative("Cancel").
				Value(&confirmed),
		)).Run()
		return confirmed, err
	}

	// newDNSCleaner creates the Cloudflare client used after a platform destroy.
	newDNSCleaner = func(token string) dnsCleaner {
		return cloudflare.NewClient(token)
	}

	// now is the clock used for operation durations.
	now = time.Now
)

// Up deploys a stack.
func Up(ctx context.Context, opts StackOptions) error {
	return runStack(ctx, automation.OpUp, opts)
}

// Preview previews a stack update.
func Preview(ctx context.Context, opts StackOptions) error {
	return runStack(ctx, automation.OpPreview, opts)
}

// Refresh refreshes the stack state.
func Refresh(ctx context.Context, opts StackOptions) error {
	return runStack(ctx, automation.OpRefresh, opts)
}

// Destroy tears a stack down. Destroying the platform also removes the
// Cloudflare records owned by its external-dns instance.
func Destroy(ctx context.Context, opts StackOptions) error {
	return runStack(ctx, automation.OpDestroy, opts)
}

func runStack(ctx context.Context, op automation.Operation, opts StackOptions) error {
	s, err := loadSession(opts.ProjectPath)
	if err != nil {
		return err
	}
	if err := checkTools(); err != nil {
		return err
	}

	secrets, err := resolveSecrets(s.Env)
	if err != nil {
		return err
	}
	req, err := buildRequest(s, opts, secrets)
	if err != nil {
		return err
	}

	if op == automation.OpDestroy && !opts.Yes {
		if !isInteractiveTTY() {
			return fmt.Errorf("refusing to destroy %s without --yes in a non-interactive session", req.StackName())
		}
		ok, err := confirmDestroy(req.StackName())
		if err != nil {
			return fmt.Errorf("confirmation canceled: %w", err)
		}
		if !ok {
			fmt.Println("Destroy canceled.")
			return nil
		}
	}

	log.Printf("[%s] %s %s", op, req.Project, req.StackName())
	start := now()
	result, runErr := newRunner().Run(ctx, op, req)

	observation := telemetry.Operation{
		Project:   req.Project,
		Stack:     req.Stack,
		Operation: string(op),
		Duration:  now().Sub(start),
		Err:       runErr,
	}
	if result != nil {
		observation.Changes = result.Changes
	}
	pushMetrics(ctx, s.Project, observation)

	if runErr != nil {
		return runErr
	}

	printResult(result)

	if op == automation.OpUp && len(result.Outputs) > 0 {
		data, err := result.Outputs.YAML(false)
		if err != nil {
			return fmt.Errorf("failed to encode outputs: %w", err)
		}
		fmt.Println()
		fmt.Println("Outputs")
		fmt.Println("-------")
		fmt.Print(string(data))
	}

	if op == automation.OpDestroy && req.Project == config.PlatformProject {
		cleanupDNS(ctx, s.Project, secrets)
	}
	return nil
}

// buildRequest resolves the stack program and renders its configuration.
func buildRequest(s *session, opts StackOptions, secrets config.Secrets) (automation.Request, error) {
	project, program, err := stacks.Lookup(opts.Stack)
	if err != nil {
		return automation.Request{}, err
	}

	var values map[string]config.Value
	switch project {
	case config.PlatformProject:
		values, err = s.Project.PlatformValues(secrets)
	case config.AppsProject:
		values, err = s.Project.AppsValues(secrets)
	default:
		err = fmt.Errorf("no configuration for project %s", project)
	}
	if err != nil {
		return automation.Request{}, err
	}

	var progress io.Writer = os.Stdout
	if opts.Quiet {
		progress = io.Discard
	}

	return automation.Request{
		Organization: s.Project.Organization,
		Project:      project,
		Stack:        s.Project.Stack,
		Program:      program,
		BackendURL:   s.Project.Backend,
		Config:       values,
		Progress:     progress,
		EnvVars:      stackEnvVars(s.Env),
		Remove:       opts.Remove,
	}, nil
}

// stackEnvVars forwards state bucket settings to the Pulumi CLI.
func stackEnvVars(env *config.Env) map[string]string {
	vars := map[string]string{"PULUMI_SKIP_UPDATE_CHECK": "true"}
	if env.StateRegion != "" {
		vars["AWS_REGION"] = env.StateRegion
	}
	if env.StateEndpoint != "" {
		vars["AWS_ENDPOINT_URL_S3"] = env.StateEndpoint
	}
	return vars
}

// pushMetrics records the operation. Push failures never fail the command.
func pushMetrics(ctx context.Context, p *config.Project, op telemetry.Operation) {
	rec := newRecorder(p.Metrics.PushgatewayURL, p.Metrics.Job)
	if !rec.Enabled() {
		return
	}
	rec.Observe(op)
	if err := rec.Push(ctx); err != nil {
		log.Printf("[Metrics] Warning: %v", err)
	}
}

func printResult(result *automation.Result) {
	fmt.Println()
	fmt.Printf("%s %s: %s\n", result.Operation, result.Stack, result.Summary)
	fmt.Printf("  Resources: %s\n", automation.FormatChanges(result.Changes))
}

// cleanupDNS removes records external-dns created under the stack's owner
// ID. Failures are logged and do not fail the destroy.
func cleanupDNS(ctx context.Context, p *config.Project, secrets config.Secrets) {
	if !p.Addons.ExternalDNS.IsEnabled(false) {
		return
	}
	if p.Cloudflare.ZoneID == "" || secrets.CloudflareAPIToken == "" {
		log.Printf("[DNS] Skipping record cleanup: zone ID or API token not set")
		return
	}

	removed, err := newDNSCleaner(secrets.CloudflareAPIToken).CleanupOwnerRecords(ctx, p.Cloudflare.ZoneID, p.Stack)
	if err != nil {
		var apiErr *cloudflare.APIError
		if errors.As(err, &apiErr) {
			log.Printf("[DNS] Warning: Cloudflare rejected cleanup (HTTP %d): %v", apiErr.StatusCode, err)
			return
		}
		log.Printf("[DNS] Warning: record cleanup failed: %v", err)
		return
	}
	log.Printf("[DNS] Removed %d records owned by %s", removed, p.Stack)
}
