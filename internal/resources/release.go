package resources

import (
	helmv3 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/helm/v3"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/imamik/k8stacks/internal/helm"
)

// defaultReleaseTimeout is the Helm wait timeout in seconds.
const defaultReleaseTimeout = 600

// ReleaseOptions describes a Helm release.
type ReleaseOptions struct {
	ScopedOptions

	Chart helm.ChartSpec

	// Defaults are the computed values; Values is the caller overlay merged
	// shallowly on top.
	Defaults helm.Values
	Values   helm.Values

	// Deferred values are placed into the merged values after the overlay.
	Deferred []DeferredValue

	CreateNamespace bool
	Atomic          bool
	// Timeout in seconds; defaults to 600.
	Timeout int
}

// DeferredValue places a value that is not known until deployment, such as a
// secret or another resource's output, at Path inside the release values.
type DeferredValue struct {
	Path  []string
	Value pulumi.Input
}

// values returns Defaults with Values layered over them.
func (o ReleaseOptions) values() helm.Values {
	return helm.Merge(o.Defaults, o.Values)
}

// NewHelmRelease declares a Helm release named o.Name.
func NewHelmRelease(ctx *pulumi.Context, o ReleaseOptions) (*helmv3.Release, error) {
	if err := o.validate("release"); err != nil {
		return nil, err
	}
	if err := o.Chart.Validate(); err != nil {
		return nil, optionsErrorf("release", o.Name, "%v", err)
	}
	for _, d := range o.Deferred {
		if len(d.Path) == 0 || d.Value == nil {
			return nil, optionsErrorf("release", o.Name, "deferred values need a path and a value")
		}
	}

	timeout := o.Timeout
	if timeout == 0 {
		timeout = defaultReleaseTimeout
	}

	plain := o.values().ToMap()
	if plain == nil {
		plain = map[string]any{}
	}
	for _, d := range o.Deferred {
		setPath(plain, d.Path, d.Value)
	}
	values := pulumi.ToMap(plain)

	args := &helmv3.ReleaseArgs{
		Name:            pulumi.StringPtr(o.Name),
		Chart:           pulumi.String(o.Chart.Ref()),
		Version:         pulumi.StringPtr(o.Chart.Version),
		Values:          values,
		CreateNamespace: pulumi.BoolPtr(o.CreateNamespace),
		Atomic:          pulumi.BoolPtr(o.Atomic),
		Timeout:         pulumi.IntPtr(timeout),
	}
	if o.Namespace != nil {
		args.Namespace = o.Namespace.ToStringOutput().ToStringPtrOutput()
	}
	if !o.Chart.IsOCI() {
		args.RepositoryOpts = &helmv3.RepositoryOptsArgs{
			Repo: pulumi.StringPtr(o.Chart.Repository),
		}
	}

	return helmv3.NewRelease(ctx, o.Name, args, o.Options()...)
}

// setPath stores v at the nested key path, creating intermediate maps and
// replacing non-map values along the way.
func setPath(m map[string]any, path []string, v any) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}
