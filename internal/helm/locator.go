package helm

import (
	"context"
	"fmt"
	"io"
	"os"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/downloader"
	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/registry"
)

// Locator resolves chart coordinates to a chart archive on disk.
type Locator interface {
	// Locate downloads the chart described by spec and returns the archive path.
	Locate(ctx context.Context, spec ChartSpec) (string, error)
}

// SDKLocator locates charts with the Helm SDK, honouring the usual HELM_*
// environment (cache and repository config paths).
type SDKLocator struct {
	settings *cli.EnvSettings
}

// NewLocator creates a Locator backed by the Helm SDK.
func NewLocator() *SDKLocator {
	return &SDKLocator{settings: cli.New()}
}

// Locate implements Locator.
func (l *SDKLocator) Locate(ctx context.Context, spec ChartSpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if spec.IsOCI() {
		return l.locateOCI(spec)
	}

	cp := action.ChartPathOptions{
		RepoURL: spec.Repository,
		Version: spec.Version,
	}
	path, err := cp.LocateChart(spec.Name, l.settings)
	if err != nil {
		return "", fmt.Errorf("failed to find chart %s %s in repo %s: %w", spec.Name, spec.Version, spec.Repository, err)
	}
	return path, nil
}

func (l *SDKLocator) locateOCI(spec ChartSpec) (string, error) {
	registryClient, err := registry.NewClient(
		registry.ClientOptDebug(false),
		registry.ClientOptWriter(io.Discard),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create registry client: %w", err)
	}

	dest, err := os.MkdirTemp("", "k8stacks-chart-")
	if err != nil {
		return "", fmt.Errorf("failed to create chart download dir: %w", err)
	}

	dl := downloader.ChartDownloader{
		Out:              io.Discard,
		Getters:          getter.All(l.settings),
		Options:          []getter.Option{getter.WithRegistryClient(registryClient)},
		RegistryClient:   registryClient,
		RepositoryConfig: l.settings.RepositoryConfig,
		RepositoryCache:  l.settings.RepositoryCache,
	}

	path, _, err := dl.DownloadTo(spec.Ref(), spec.Version, dest)
	if err != nil {
		_ = os.RemoveAll(dest)
		return "", fmt.Errorf("failed to pull chart %s:%s: %w", spec.Ref(), spec.Version, err)
	}
	return path, nil
}

// Load locates and loads the chart described by spec.
func Load(ctx context.Context, locator Locator, spec ChartSpec) (*chart.Chart, error) {
	path, err := locator.Locate(ctx, spec)
	if err != nil {
		return nil, err
	}

	ch, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart %s: %w", spec.Name, err)
	}
	if ch.Metadata != nil && ch.Metadata.Version != "" && ch.Metadata.Version != trimV(spec.Version) && ch.Metadata.Version != spec.Version {
		return nil, fmt.Errorf("chart %s: located version %s does not match pin %s", spec.Name, ch.Metadata.Version, spec.Version)
	}
	return ch, nil
}

func trimV(version string) string {
	if len(version) > 0 && version[0] == 'v' {
		return version[1:]
	}
	return version
}
