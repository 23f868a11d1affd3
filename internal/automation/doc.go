// Package automation drives the stack programs through the Pulumi
// Automation API.
//
// Programs run inline in the CLI process. The Pulumi CLI must be on PATH;
// it hosts the engine and talks to the state backend named in the
// request.
package automation
