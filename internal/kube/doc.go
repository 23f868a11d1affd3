// Package kube runs read-only preflight checks against the target cluster.
//
// Resources are never created here; the stacks own every object. The
// checks confirm the API is reachable, the server version is supported,
// and the CRDs and ingress class a stack relies on are present.
package kube
