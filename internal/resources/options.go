package resources

import (
	"strings"

	metav1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/meta/v1"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/imamik/k8stacks/internal/util/inputs"
	"github.com/imamik/k8stacks/internal/util/labels"
)

// CommonOptions carries the fields every factory accepts.
type CommonOptions struct {
	// Name must be a DNS-1123 label, unique per resource kind within its scope.
	Name string

	// Parent owns the declared resource.
	Parent pulumi.Resource

	// After is a single dependency; when set it replaces DependsOn.
	After pulumi.Resource

	// DependsOn lists explicit dependency edges.
	DependsOn []pulumi.Resource

	// Provider selects the provider instance.
	Provider pulumi.ProviderResource

	// Labels are merged over the standard app.kubernetes.io labels.
	Labels map[string]string

	// Annotations are copied onto the object metadata.
	Annotations map[string]string
}

// Options returns the Pulumi resource options derived from the common fields,
// followed by extra.
func (o CommonOptions) Options(extra ...pulumi.ResourceOption) []pulumi.ResourceOption {
	var opts []pulumi.ResourceOption
	if o.Parent != nil {
		opts = append(opts, pulumi.Parent(o.Parent))
	}
	if deps := inputs.NormalizeInputArray(o.After, o.DependsOn); len(deps) > 0 {
		opts = append(opts, pulumi.DependsOn(deps))
	}
	if o.Provider != nil {
		opts = append(opts, pulumi.Provider(o.Provider))
	}
	return append(opts, extra...)
}

// validate checks the name and labels for kind.
func (o CommonOptions) validate(kind string) error {
	if o.Name == "" {
		return optionsErrorf(kind, "", "name is required")
	}
	if errs := validation.IsDNS1123Label(o.Name); len(errs) > 0 {
		return optionsErrorf(kind, o.Name, "name %s", strings.Join(errs, "; "))
	}
	if err := labels.Validate(o.Labels); err != nil {
		return optionsErrorf(kind, o.Name, "%v", err)
	}
	return nil
}

// objectLabels returns the standard labels for o merged with o.Labels.
func (o CommonOptions) objectLabels(component string) map[string]string {
	lb := labels.NewLabelBuilder(o.Name)
	if component != "" {
		lb.WithComponent(component)
	}
	return lb.Merge(o.Labels).Build()
}

// ScopedOptions adds the namespace-versus-cluster scope choice.
type ScopedOptions struct {
	CommonOptions

	// Namespace is ignored when ClusterScoped is set.
	Namespace pulumi.StringInput

	// ClusterScoped selects the cluster-scoped variant of polymorphic kinds.
	ClusterScoped bool
}

func (o ScopedOptions) validate(kind string) error {
	if err := o.CommonOptions.validate(kind); err != nil {
		return err
	}
	if !o.ClusterScoped && o.Namespace == nil {
		return optionsErrorf(kind, o.Name, "namespace is required for namespaced resources")
	}
	return nil
}

// metadata builds object metadata named name. The namespace is omitted for
// cluster-scoped objects. Caller annotations from o are applied over annotations.
func (o ScopedOptions) metadata(name string, objLabels map[string]string, annotations pulumi.StringMap) *metav1.ObjectMetaArgs {
	meta := &metav1.ObjectMetaArgs{
		Name:   pulumi.String(name),
		Labels: pulumi.ToStringMap(objLabels),
	}
	if !o.ClusterScoped && o.Namespace != nil {
		meta.Namespace = o.Namespace.ToStringOutput().ToStringPtrOutput()
	}

	merged := pulumi.StringMap{}
	for k, v := range annotations {
		merged[k] = v
	}
	for k, v := range o.Annotations {
		merged[k] = pulumi.String(v)
	}
	if len(merged) > 0 {
		meta.Annotations = merged
	}
	return meta
}
