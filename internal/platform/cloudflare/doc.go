// Package cloudflare is a small Cloudflare API v4 client.
//
// The CLI uses it to verify API tokens and zones before a stack operation
// and to remove records left behind by external-dns when the platform
// stack is destroyed. Records themselves are managed by the stacks.
package cloudflare
