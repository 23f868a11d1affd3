package apps

import (
	corev1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/core/v1"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/imamik/k8stacks/internal/resources"
)

// componentType returns the type token for an application kind.
func componentType(kind string) string {
	return "k8stacks:apps:" + kind
}

// child returns options for a resource owned by parent.
func child(parent pulumi.Resource, name string) resources.CommonOptions {
	return resources.CommonOptions{Name: name, Parent: parent}
}

// inNamespace returns scoped options for a child living in namespace.
func inNamespace(parent pulumi.Resource, name string, namespace pulumi.StringInput) resources.ScopedOptions {
	return resources.ScopedOptions{CommonOptions: child(parent, name), Namespace: namespace}
}

// namespaceName returns the declared name of ns. Passing it on instead of the
// literal makes every consumer depend on the namespace.
func namespaceName(ns *corev1.Namespace) pulumi.StringOutput {
	return ns.Metadata.Name().Elem()
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// appURL returns the public URL for host; https when TLS is issued.
func appURL(host string, tls bool) string {
	if host == "" {
		return ""
	}
	if tls {
		return "https://" + host
	}
	return "http://" + host
}
