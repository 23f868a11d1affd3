// Package labels provides consistent labeling utilities for Kubernetes objects.
//
// This package enforces the recommended app.kubernetes.io label set across all
// declared resources, enabling selection of everything belonging to one
// application or stack.
package labels
