// Command apps runs the k8stacks-apps program under the Pulumi CLI.
package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/imamik/k8stacks/internal/stacks"
)

func main() {
	pulumi.Run(stacks.Apps)
}
