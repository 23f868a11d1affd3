// Package config holds the k8stacks configuration model.
//
// Three sources feed it:
//
//   - the k8stacks.yaml project file ([LoadFile], [Project.Validate]),
//     written by the init wizard and read by every CLI command;
//   - K8STACKS_* environment variables ([LoadEnv]), validated against a
//     JSON schema;
//   - Pulumi stack configuration inside the stack programs
//     ([ParsePlatform], [ParseApps]), which the CLI derives from the
//     project file with [Project.PlatformValues] and [Project.AppsValues].
package config
