// Package naming provides the derived names used across resource factories.
//
// Derived names follow the pattern {name}-{suffix} (for example the ACME
// account key secret {issuer}-issuer or the TLS secret {app}-tls) and are
// truncated to the 63 character DNS label limit. Hosts are composed as
// {sub}.{domain} with "@" or an empty sub meaning the apex.
package naming
