package resources

import (
	"strings"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	ktesting "github.com/imamik/k8stacks/internal/testing"
)

const (
	typeNamespace  = "kubernetes:core/v1:Namespace"
	typeSecret     = "kubernetes:core/v1:Secret"
	typeConfigMap  = "kubernetes:core/v1:ConfigMap"
	typeService    = "kubernetes:core/v1:Service"
	typeDeployment = "kubernetes:apps/v1:Deployment"
	typeIngress    = "kubernetes:networking.k8s.io/v1:Ingress"
	typeRelease    = "kubernetes:helm.sh/v3:Release"
	typeRecord     = "cloudflare:index/record:Record"
)

// namespaced returns scoped options in the "apps" namespace.
func namespaced(name string) ScopedOptions {
	return ScopedOptions{
		CommonOptions: CommonOptions{Name: name},
		Namespace:     pulumi.String("apps"),
	}
}

// findByKind returns the registration named name whose kind input is kind.
func findByKind(mocks *ktesting.Resources, name, kind string) (pulumi.MockResourceArgs, bool) {
	for _, args := range mocks.All() {
		if args.Name == name && ktesting.LookupString(args.Inputs, "kind") == kind {
			return args, true
		}
	}
	return pulumi.MockResourceArgs{}, false
}

// hasURNSuffix reports whether any URN in urns names a resource called name.
func hasURNSuffix(urns []string, name string) bool {
	for _, urn := range urns {
		if strings.HasSuffix(urn, "::"+name) {
			return true
		}
	}
	return false
}
