package helm

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/engine"
)

// kubeVersion is the Kubernetes version templates are rendered against.
const kubeVersion = "v1.31.0"

// Renderer renders Helm charts with provided values.
type Renderer struct {
	releaseName string
	namespace   string
}

// NewRenderer creates a renderer for a release in namespace.
func NewRenderer(releaseName, namespace string) *Renderer {
	return &Renderer{
		releaseName: releaseName,
		namespace:   namespace,
	}
}

// RenderFromSpec locates a chart and renders it with the provided values.
func (r *Renderer) RenderFromSpec(ctx context.Context, locator Locator, spec ChartSpec, values Values) ([]byte, error) {
	loadedChart, err := Load(ctx, locator, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart: %w", err)
	}

	manifests, err := r.Render(loadedChart, values)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return manifests, nil
}

// Render uses the helm engine to render ch with values merged over the chart defaults.
func (r *Renderer) Render(ch *chart.Chart, values Values) ([]byte, error) {
	chartDefaults := make(Values)
	if len(ch.Values) > 0 {
		chartDefaults = Values(ch.Values)
	}

	// Deep merge so nested chart defaults survive partial overrides
	mergedValues := DeepMerge(chartDefaults, values)

	releaseOptions := chartutil.ReleaseOptions{
		Name:      r.releaseName,
		Namespace: r.namespace,
		IsInstall: true,
	}

	capabilities := chartutil.DefaultCapabilities.Copy()
	capabilities.KubeVersion.Version = kubeVersion
	capabilities.KubeVersion.Major = "1"
	capabilities.KubeVersion.Minor = "31"

	valuesToRender, err := chartutil.ToRenderValues(ch, chartutil.Values(mergedValues.ToMap()), releaseOptions, capabilities)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare values: %w", err)
	}

	eng := engine.Engine{
		Strict:   false,
		LintMode: false,
	}

	rendered, err := eng.Render(ch, valuesToRender)
	if err != nil {
		return nil, fmt.Errorf("failed to render templates: %w", err)
	}

	return combineManifests(rendered), nil
}

// combineManifests joins rendered templates into one multi-document YAML stream.
// Templates are emitted in name order so output is stable between runs.
func combineManifests(rendered map[string]string) []byte {
	names := make([]string, 0, len(rendered))
	for name := range rendered {
		names = append(names, name)
	}
	sort.Strings(names)

	var combined bytes.Buffer
	for _, name := range names {
		if filepath.Base(name) == "NOTES.txt" {
			continue
		}

		trimmed := strings.TrimSpace(rendered[name])
		if trimmed == "" {
			continue
		}

		if combined.Len() > 0 {
			combined.WriteString("\n---\n")
		}
		combined.WriteString(trimmed)
		combined.WriteString("\n")
	}

	return combined.Bytes()
}
