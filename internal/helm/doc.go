// Package helm provides chart coordinates and values handling for Helm releases.
//
// It includes a registry mapping addon names to pinned chart specifications,
// the Values type with shallow and deep merge semantics used to overlay
// caller-supplied values over computed defaults, and a locator/renderer that
// uses the Helm SDK to verify pins and render charts offline for inspection.
//
// Releases themselves are declared through the Pulumi Helm provider; nothing
// in this package installs into a cluster.
package helm
