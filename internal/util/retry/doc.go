// Package retry retries transient failures with exponential backoff.
//
// [WithExponentialBackoff] is used for Cloudflare API calls and S3 state
// bucket probes. Errors wrapped with [Fatal] stop the loop immediately.
package retry
