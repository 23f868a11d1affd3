// Package resources contains one factory per declared resource kind.
//
// Every factory follows the same contract: validate the options, compute
// derived names, merge caller overrides over defaults, select the concrete
// kind when scope is polymorphic, and declare the resource with explicit
// parent, dependency and provider wiring. Handles are returned for
// composition; nothing is awaited. Provider-side failures surface from the
// Pulumi engine unmodified.
package resources
