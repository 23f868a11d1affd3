// Package stacks holds the Pulumi programs behind the k8stacks projects.
//
// The platform program installs the shared cluster services (cert-manager
// with its ACME issuers, ingress-nginx, external-dns, Argo CD) and exports
// the names the apps program needs. The apps program imports those through
// a stack reference and deploys one web application per configured entry.
//
// [Programs] maps Pulumi project names to the programs. The same functions
// run standalone through cmd/stacks/* and inline through the Automation API.
package stacks
