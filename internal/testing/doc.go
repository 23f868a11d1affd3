// Package testing provides shared helpers for unit tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - Resources: a recording Pulumi mock for running programs without an engine
//   - Lookup/LookupString: navigation of recorded resource inputs
//   - ProjectBuilder: fluent builder for k8stacks.yaml project configs
//
// Usage:
//
//	mocks := testing.NewResources()
//	err := testing.Run(mocks, func(ctx *pulumi.Context) error {
//	    _, err := resources.NewNamespace(ctx, resources.NamespaceOptions{...})
//	    return err
//	})
//	ns := mocks.ByType("kubernetes:core/v1:Namespace")
package testing
