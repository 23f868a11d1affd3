package labels

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

// Recommended label keys.
// See: https://kubernetes.io/docs/concepts/overview/working-with-objects/common-labels/
const (
	// KeyName identifies the application
	KeyName = "app.kubernetes.io/name"

	// KeyInstance identifies the instance of the application
	KeyInstance = "app.kubernetes.io/instance"

	// KeyComponent identifies the role within the architecture (web, database)
	KeyComponent = "app.kubernetes.io/component"

	// KeyPartOf identifies the higher level application
	KeyPartOf = "app.kubernetes.io/part-of"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "app.kubernetes.io/managed-by"

	// KeyStack identifies the Pulumi stack that declared the object
	KeyStack = "k8stacks.io/stack"
)

// ManagedBy value stamped on every object.
const ManagedBy = "k8stacks"

// LabelBuilder provides a fluent interface for building object labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the name and managed-by labels pre-set.
func NewLabelBuilder(name string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyName:      name,
			KeyManagedBy: ManagedBy,
		},
	}
}

// WithInstance adds an instance label.
func (lb *LabelBuilder) WithInstance(instance string) *LabelBuilder {
	lb.labels[KeyInstance] = instance
	return lb
}

// WithComponent adds a component label (e.g., "web", "database").
func (lb *LabelBuilder) WithComponent(component string) *LabelBuilder {
	lb.labels[KeyComponent] = component
	return lb
}

// WithPartOf adds a part-of label.
func (lb *LabelBuilder) WithPartOf(app string) *LabelBuilder {
	lb.labels[KeyPartOf] = app
	return lb
}

// WithStackIfSet adds the stack label only if stack is non-empty.
func (lb *LabelBuilder) WithStackIfSet(stack string) *LabelBuilder {
	if stack != "" {
		lb.labels[KeyStack] = stack
	}
	return lb
}

// Merge adds all labels from the provided map, overriding existing keys.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// Selector returns the subset of labels that is stable enough for a pod selector.
// Selectors are immutable on Deployments, so only name and instance are used.
func Selector(name, instance string) map[string]string {
	sel := map[string]string{KeyName: name}
	if instance != "" {
		sel[KeyInstance] = instance
	}
	return sel
}

// Validate checks every key and value against Kubernetes label syntax.
func Validate(labels map[string]string) error {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if errs := validation.IsQualifiedName(k); len(errs) > 0 {
			return fmt.Errorf("invalid label key %q: %s", k, strings.Join(errs, "; "))
		}
		if errs := validation.IsValidLabelValue(labels[k]); len(errs) > 0 {
			return fmt.Errorf("invalid value for label %q: %s", k, strings.Join(errs, "; "))
		}
	}
	return nil
}
