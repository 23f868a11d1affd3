package naming

import (
	"fmt"
	"strings"
)

// maxNameLength is the DNS-1123 label limit most Kubernetes names share.
const maxNameLength = 63

// Apex is the record name denoting the zone apex.
const Apex = "@"

// FullName prefixes name with prefix unless it is already prefixed.
func FullName(prefix, name string) string {
	if prefix == "" || name == prefix || strings.HasPrefix(name, prefix+"-") {
		return truncate(name)
	}
	return truncate(fmt.Sprintf("%s-%s", prefix, name))
}

// IssuerSecretName is the secret holding an ACME issuer's account private key.
func IssuerSecretName(issuer string) string {
	return truncate(fmt.Sprintf("%s-issuer", issuer))
}

// StagingIssuer is the name of the staging twin of an ACME issuer.
func StagingIssuer(issuer string) string {
	return truncate(fmt.Sprintf("%s-staging", issuer))
}

func TLSSecretName(name string) string {
	return truncate(fmt.Sprintf("%s-tls", name))
}

func DatabaseSecretName(app string) string {
	return truncate(fmt.Sprintf("%s-db", app))
}

func DatabaseRelease(app string) string {
	return truncate(fmt.Sprintf("%s-db", app))
}

func ConfigMapName(app string) string {
	return truncate(fmt.Sprintf("%s-config", app))
}

func BasicAuthSecretName(name string) string {
	return truncate(fmt.Sprintf("%s-basic-auth", name))
}

// Host joins a subdomain and a domain. An empty sub or Apex yields the domain.
func Host(sub, domain string) string {
	sub = strings.Trim(sub, ".")
	domain = strings.Trim(domain, ".")
	if sub == "" || sub == Apex {
		return domain
	}
	if domain == "" {
		return sub
	}
	return sub + "." + domain
}

// RecordName returns host relative to domain, or Apex when host is the domain.
// Hosts outside the domain are returned unchanged.
func RecordName(host, domain string) string {
	host = strings.Trim(host, ".")
	domain = strings.Trim(domain, ".")
	if host == domain {
		return Apex
	}
	if rel, ok := strings.CutSuffix(host, "."+domain); ok {
		return rel
	}
	return host
}

func truncate(name string) string {
	if len(name) <= maxNameLength {
		return name
	}
	return strings.TrimRight(name[:maxNameLength], "-.")
}
