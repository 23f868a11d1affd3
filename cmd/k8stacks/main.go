// Package main is the entry point for the k8stacks CLI.
//
// k8stacks deploys a Kubernetes platform (cert-manager, ingress-nginx,
// external-dns, Argo CD) and the web applications on top of it as two
// Pulumi stacks, driven through the Automation API from a single
// k8stacks.yaml project file.
//
// Commands: init, up, preview, refresh, destroy, outputs, charts, doctor,
// backend, secrets.
//
// For detailed usage information, run:
//
//	k8stacks --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/k8stacks/cmd/k8stacks/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
