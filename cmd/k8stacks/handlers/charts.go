package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/imamik/k8stacks/internal/apps"
	"github.com/imamik/k8stacks/internal/config"
	"github.com/imamik/k8stacks/internal/helm"
	"github.com/imamik/k8stacks/internal/util/async"
)

// Factory function variables for charts - can be replaced in tests.
var (
	// newLocator resolves charts through the Helm SDK.
	newLocator = func() helm.Locator {
		return helm.NewLocator()
	}

	// renderChart renders a planned release.
	renderChart = func(ctx context.Context, locator helm.Locator, plan *apps.ReleasePlan) ([]byte, error) {
		return helm.NewRenderer(plan.Release, plan.Namespace).RenderFromSpec(ctx, locator, plan.Chart, plan.Values)
	}
)

// chartPin is a resolved chart with the origin of its coordinates.
type chartPin struct {
	Addon      string
	Spec       helm.ChartSpec
	Overridden bool
}

// ChartsList prints the pinned charts. A project file, when found, applies
// its overrides.
func ChartsList(projectPath string) error {
	pins := resolvePins(optionalProject(projectPath))

	fmt.Printf("%-15s %-10s %-55s %s\n", "ADDON", "VERSION", "REPOSITORY", "SOURCE")
	for _, pin := range pins {
		source := "pinned"
		if pin.Overridden {
			source = "project"
		}
		fmt.Printf("%-15s %-10s %-55s %s\n", pin.Addon, pin.Spec.Version, pin.Spec.Repository, source)
	}
	return nil
}

// ChartsVerify validates every pin and downloads each chart in parallel.
func ChartsVerify(ctx context.Context, projectPath string) error {
	pins := resolvePins(optionalProject(projectPath))
	locator := newLocator()

	tasks := make([]async.Task, 0, len(pins))
	for _, pin := range pins {
		tasks = append(tasks, async.Task{
			Name: pin.Addon,
			Func: func(ctx context.Context) error {
				if err := pin.Spec.Validate(); err != nil {
					return err
				}
				path, err := locator.Locate(ctx, pin.Spec)
				if err != nil {
					return err
				}
				log.Printf("[Charts] %s %s -> %s", pin.Spec.Ref(), pin.Spec.Version, path)
				return nil
			},
		})
	}

	if err := async.RunParallel(ctx, tasks); err != nil {
		return fmt.Errorf("chart verification failed:\n%w", err)
	}
	fmt.Printf("All %d charts verified.\n", len(pins))
	return nil
}

// ChartsTemplate renders an addon chart with the values its release is
// declared with.
func ChartsTemplate(ctx context.Context, projectPath, addon, app string) error {
	args := apps.PlanArgs{App: app}
	if p := optionalProject(projectPath); p != nil {
		args = planArgs(p, addon, app)
	}

	plan, err := apps.PlanRelease(addon, args)
	if err != nil {
		return err
	}

	manifests, err := renderChart(ctx, newLocator(), plan)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", addon, err)
	}
	fmt.Print(string(manifests))
	return nil
}

// optionalProject loads the project file when one can be found.
func optionalProject(projectPath string) *config.Project {
	s, err := loadSession(projectPath)
	if err != nil {
		log.Printf("[Charts] Using default pins: %v", err)
		return nil
	}
	return s.Project
}

// resolvePins returns the chart of every addon, sorted by addon name.
func resolvePins(p *config.Project) []chartPin {
	overrides := map[string]helm.ChartSpec{}
	if p != nil {
		overrides = chartOverrides(p)
	}

	pins := make([]chartPin, 0, len(helm.DefaultChartSpecs))
	for _, addon := range helm.Addons() {
		override := overrides[addon]
		pins = append(pins, chartPin{
			Addon:      addon,
			Spec:       helm.GetChartSpec(addon, override),
			Overridden: override != (helm.ChartSpec{}),
		})
	}
	return pins
}

// chartOverrides collects the chart overrides of the addons and of the
// first database of each engine.
func chartOverrides(p *config.Project) map[string]helm.ChartSpec {
	overrides := map[string]helm.ChartSpec{
		helm.CertManager:  p.Addons.CertManager.Chart,
		helm.IngressNginx: p.Addons.IngressNginx.Chart,
		helm.ExternalDNS:  p.Addons.ExternalDNS.Chart,
		helm.ArgoCD:       p.Addons.ArgoCD.Chart,
	}
	for _, a := range p.Apps {
		if a.Database == nil {
			continue
		}
		engine := databaseEngine(a.Database)
		if _, seen := overrides[engine]; !seen {
			overrides[engine] = a.Database.Chart
		}
	}
	return overrides
}

// planArgs maps the project onto the settings of one addon release.
func planArgs(p *config.Project, addon, app string) apps.PlanArgs {
	args := apps.PlanArgs{
		Domain:  p.Domain,
		Owner:   p.Stack,
		ZoneID:  p.Cloudflare.ZoneID,
		Proxied: p.Cloudflare.Proxied,
		TLS:     p.Addons.CertManager.IsEnabled(true) && p.Acme.Scope == config.ScopeCluster && p.Acme.Email != "",
		App:     app,
	}

	var addonCfg config.AddonConfig
	switch addon {
	case helm.CertManager:
		addonCfg = p.Addons.CertManager
	case helm.IngressNginx:
		addonCfg = p.Addons.IngressNginx
	case helm.ExternalDNS:
		addonCfg = p.Addons.ExternalDNS
	case helm.ArgoCD:
		addonCfg = p.Addons.ArgoCD
	case helm.PostgreSQL, helm.MySQL:
		for _, a := range p.Apps {
			if a.Name == app && a.Database != nil {
				addonCfg = config.AddonConfig{Chart: a.Database.Chart, Values: a.Database.Values}
			}
		}
	}
	args.Chart = addonCfg.Chart
	args.Values = addonCfg.Values
	return args
}

func databaseEngine(db *config.DatabaseConfig) string {
	if db.Engine == "" {
		return helm.PostgreSQL
	}
	return db.Engine
}
