package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/imamik/k8stacks/internal/config"
	"github.com/imamik/k8stacks/internal/kube"
	"github.com/imamik/k8stacks/internal/platform/cloudflare"
	"github.com/imamik/k8stacks/internal/ui"
	"github.com/imamik/k8stacks/internal/util/async"
	"github.com/imamik/k8stacks/internal/util/prerequisites"
)

// Ingress controller service the platform stack creates.
const (
	ingressNamespace = "ingress-nginx"
	ingressService   = "ingress-nginx-controller"
	ingressClass     = "nginx"
)

// dnsAPI is the subset of the Cloudflare client used by doctor.
type dnsAPI interface {
	VerifyToken(ctx context.Context) (*cloudflare.TokenStatus, error)
	GetZone(ctx context.Context, zoneID string) (*cloudflare.Zone, error)
}

// Factory function variables for doctor - can be replaced in tests.
var (
	// checkAllTools looks up required and optional tools.
	checkAllTools = prerequisites.CheckAll

	// newKubeClient connects to the target cluster.
	newKubeClient = kube.NewFromKubeconfig

	// newDNSAPI creates the Cloudflare client.
	newDNSAPI = func(token string) dnsAPI {
		return cloudflare.NewClient(token)
	}
)

// Doctor checks the environment, the project file, the client tools, the
// state backend, Cloudflare and the cluster. It fails when any check fails.
func Doctor(ctx context.Context, projectPath string, jsonOutput bool) error {
	report := buildDoctorReport(ctx, projectPath)

	if jsonOutput {
		b, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		fmt.Println(string(b))
	} else {
		fmt.Println(report.Render(isInteractiveTTY()))
	}

	if report.Failed() {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}

func buildDoctorReport(ctx context.Context, projectPath string) *ui.Report {
	report := &ui.Report{Title: "k8stacks doctor"}

	env, err := loadEnv()
	if err != nil {
		report.Sections = append(report.Sections, ui.Section{
			Title: "Environment",
			Rows:  envRows(err),
		})
		return report
	}
	report.Sections = append(report.Sections, ui.Section{
		Title: "Environment",
		Rows:  []ui.Row{{Name: "K8STACKS_* variables", Status: ui.StatusOK}},
	})

	var project *config.Project
	projectSection := ui.Section{Title: "Project"}
	path, err := projectFilePath(projectPath, env)
	if err == nil {
		project, err = loadProjectFile(path)
	}
	if err != nil {
		projectSection.Rows = append(projectSection.Rows, ui.Row{Name: "Project file", Status: ui.StatusFail, Detail: err.Error()})
	} else {
		applyEnv(project, env)
		report.Subtitle = fmt.Sprintf("%s (stack %s)", project.Domain, project.Stack)
		projectSection.Rows = append(projectSection.Rows, ui.Row{Name: "Project file", Status: ui.StatusOK, Detail: path})
	}
	report.Sections = append(report.Sections, projectSection, toolsSection(checkAllTools()))

	if project == nil {
		return report
	}

	secrets, err := resolveSecrets(env)
	if err != nil {
		report.Sections = append(report.Sections, ui.Section{
			Title: "Secrets",
			Rows:  []ui.Row{{Name: "Keyring", Status: ui.StatusWarn, Detail: err.Error()}},
		})
	}

	// The remote checks are independent; each fills its own section.
	remote := make([]ui.Section, 3)
	_ = async.RunParallel(ctx, []async.Task{
		{Name: "backend", Func: func(ctx context.Context) error {
			remote[0] = backendSection(ctx, project, env)
			return nil
		}},
		{Name: "cloudflare", Func: func(ctx context.Context) error {
			remote[1] = cloudflareSection(ctx, project, secrets)
			return nil
		}},
		{Name: "kubernetes", Func: func(ctx context.Context) error {
			remote[2] = kubernetesSection(ctx, project)
			return nil
		}},
	})
	report.Sections = append(report.Sections, remote...)
	return report
}

// envRows turns a joined validation error into one row per variable.
func envRows(err error) []ui.Row {
	var rows []ui.Row
	for _, line := range strings.Split(err.Error(), "\n") {
		if line != "" {
			rows = append(rows, ui.Row{Name: "K8STACKS_* variables", Status: ui.StatusFail, Detail: line})
		}
	}
	return rows
}

func toolsSection(results *prerequisites.CheckResults) ui.Section {
	section := ui.Section{Title: "Tools"}
	for _, r := range results.Results {
		row := ui.Row{Name: r.Tool.Name}
		switch {
		case r.Outdated:
			row.Status = ui.StatusWarn
			if r.Tool.Required {
				row.Status = ui.StatusFail
			}
			row.Detail = fmt.Sprintf("%s is older than %s", r.Version, r.Tool.MinVersion)
		case r.Found:
			row.Status = ui.StatusOK
			row.Detail = r.Version
			if row.Detail == "" {
				row.Detail = r.Path
			}
		case r.Tool.Required:
			row.Status = ui.StatusFail
			row.Detail = "not found, see " + r.Tool.InstallURL
		default:
			row.Status = ui.StatusWarn
			row.Detail = "not found (optional)"
		}
		section.Rows = append(section.Rows, row)
	}
	return section
}

func backendSection(ctx context.Context, p *config.Project, env *config.Env) ui.Section {
	section := ui.Section{Title: "State backend"}

	switch {
	case p.Backend == "":
		section.Rows = append(section.Rows, ui.Row{Name: "Backend", Status: ui.StatusSkip, Detail: "not set, using the pulumi CLI login"})
		return section
	case !strings.HasPrefix(p.Backend, "s3://"):
		section.Rows = append(section.Rows, ui.Row{Name: "Backend", Status: ui.StatusSkip, Detail: p.Backend})
		return section
	}

	backend, err := parseBackend(p.Backend, env)
	if err != nil {
		section.Rows = append(section.Rows, ui.Row{Name: "Backend", Status: ui.StatusFail, Detail: err.Error()})
		return section
	}

	client, err := newStateBucket(ctx, backend)
	if err != nil {
		section.Rows = append(section.Rows, ui.Row{Name: "S3 client", Status: ui.StatusFail, Detail: err.Error()})
		return section
	}

	exists, err := client.BucketExists(ctx, backend.Bucket)
	switch {
	case err != nil:
		section.Rows = append(section.Rows, ui.Row{Name: "Bucket", Status: ui.StatusFail, Detail: err.Error()})
		return section
	case !exists:
		section.Rows = append(section.Rows, ui.Row{Name: "Bucket", Status: ui.StatusFail, Detail: backend.Bucket + " not found; run 'k8stacks backend init'"})
		return section
	}
	section.Rows = append(section.Rows, ui.Row{Name: "Bucket", Status: ui.StatusOK, Detail: backend.Bucket})

	count, err := client.CountObjects(ctx, backend.Bucket, backend.StacksPrefix())
	if err != nil {
		section.Rows = append(section.Rows, ui.Row{Name: "Stacks", Status: ui.StatusWarn, Detail: err.Error()})
	} else {
		section.Rows = append(section.Rows, ui.Row{Name: "Stacks", Status: ui.StatusOK, Detail: fmt.Sprintf("%d checkpoint objects", count)})
	}
	return section
}

func cloudflareSection(ctx context.Context, p *config.Project, secrets config.Secrets) ui.Section {
	section := ui.Section{Title: "Cloudflare"}
	needed := needsCloudflareToken(p)

	if secrets.CloudflareAPIToken == "" {
		row := ui.Row{Name: "API token", Status: ui.StatusSkip, Detail: "not set"}
		if needed {
			row.Status = ui.StatusFail
			row.Detail = "required by external-dns, DNS-01 or app DNS records"
		}
		section.Rows = append(section.Rows, row)
		return section
	}

	api := newDNSAPI(secrets.CloudflareAPIToken)
	status, err := api.VerifyToken(ctx)
	switch {
	case err != nil:
		section.Rows = append(section.Rows, ui.Row{Name: "API token", Status: ui.StatusFail, Detail: err.Error()})
		return section
	case !status.Active():
		section.Rows = append(section.Rows, ui.Row{Name: "API token", Status: ui.StatusFail, Detail: "token is " + status.Status})
		return section
	}
	section.Rows = append(section.Rows, ui.Row{Name: "API token", Status: ui.StatusOK, Detail: "active"})

	if p.Cloudflare.ZoneID == "" {
		row := ui.Row{Name: "Zone", Status: ui.StatusSkip, Detail: "no zone ID in project"}
		if needed {
			row.Status = ui.StatusFail
		}
		section.Rows = append(section.Rows, row)
		return section
	}

	zone, err := api.GetZone(ctx, p.Cloudflare.ZoneID)
	switch {
	case err != nil:
		section.Rows = append(section.Rows, ui.Row{Name: "Zone", Status: ui.StatusFail, Detail: err.Error()})
	case zone.Name != p.Domain && !strings.HasSuffix(p.Domain, "."+zone.Name):
		section.Rows = append(section.Rows, ui.Row{Name: "Zone", Status: ui.StatusFail, Detail: fmt.Sprintf("zone %s does not contain %s", zone.Name, p.Domain)})
	default:
		section.Rows = append(section.Rows, ui.Row{Name: "Zone", Status: ui.StatusOK, Detail: fmt.Sprintf("%s (%s)", zone.Name, zone.Status)})
	}
	return section
}

func kubernetesSection(ctx context.Context, p *config.Project) ui.Section {
	section := ui.Section{Title: "Kubernetes"}

	client, err := newKubeClient(p.Kubeconfig, p.KubeContext)
	if err != nil {
		section.Rows = append(section.Rows, ui.Row{Name: "Kubeconfig", Status: ui.StatusFail, Detail: err.Error()})
		return section
	}

	opts := kube.PreflightOptions{CertManager: p.Addons.CertManager.IsEnabled(true)}
	if p.Addons.IngressNginx.IsEnabled(true) {
		opts.IngressClass = ingressClass
		opts.IngressNamespace = ingressNamespace
		opts.IngressService = ingressService
	}

	for _, r := range kube.Preflight(ctx, client, opts) {
		section.Rows = append(section.Rows, ui.Row{Name: r.Name, Status: preflightStatus(r.Status), Detail: r.Detail})
	}
	return section
}

func preflightStatus(s kube.Status) ui.Status {
	switch s {
	case kube.StatusOK:
		return ui.StatusOK
	case kube.StatusWarn:
		return ui.StatusWarn
	default:
		return ui.StatusFail
	}
}
