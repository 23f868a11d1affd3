package helm

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ChartSpec holds the coordinates of a Helm chart.
type ChartSpec struct {
	Repository string `yaml:"repository,omitempty" json:"repository,omitempty"`
	Name       string `yaml:"chart,omitempty" json:"chart,omitempty"`
	Version    string `yaml:"version,omitempty" json:"version,omitempty"`
}

// IsOCI reports whether the chart lives in an OCI registry.
func (s ChartSpec) IsOCI() bool {
	return strings.HasPrefix(s.Repository, "oci://")
}

// Ref returns the reference understood by the Helm downloader: the full
// oci:// path for registries, the bare chart name for classic repositories.
func (s ChartSpec) Ref() string {
	if s.IsOCI() {
		return strings.TrimSuffix(s.Repository, "/") + "/" + s.Name
	}
	return s.Name
}

// Validate checks that all coordinates are present and the version is a semver pin.
func (s ChartSpec) Validate() error {
	if s.Repository == "" {
		return fmt.Errorf("chart repository is required")
	}
	if s.Name == "" {
		return fmt.Errorf("chart name is required")
	}
	if s.Version == "" {
		return fmt.Errorf("chart %s: version is required", s.Name)
	}
	if _, err := semver.NewVersion(s.Version); err != nil {
		return fmt.Errorf("chart %s: invalid version %q: %w", s.Name, s.Version, err)
	}
	return nil
}

// GetChartSpec returns the chart spec for the given addon name,
// applying any non-empty field of override on top of the pinned default.
// Unknown addons return override unchanged.
func GetChartSpec(name string, override ChartSpec) ChartSpec {
	spec, ok := DefaultChartSpecs[name]
	if !ok {
		return override
	}

	if override.Repository != "" {
		spec.Repository = override.Repository
	}
	if override.Name != "" {
		spec.Name = override.Name
	}
	if override.Version != "" {
		spec.Version = override.Version
	}

	return spec
}
