// Package apps assembles resource factories into named applications.
//
// Each composer registers a component resource of type k8stacks:apps:<Kind>,
// parents every child to it and registers its outputs, so a stack sees one
// node per application in its resource tree:
//
//	CertManager   namespace, cert-manager release, ACME issuers
//	IngressNginx  namespace, ingress-nginx release, load balancer address
//	ExternalDNS   namespace, Cloudflare token secret, external-dns release
//	ArgoCD        namespace, argo-cd release with TLS ingress
//	Database      PostgreSQL or MySQL release with its credentials secret
//	WebApp        namespace, config map, database, workload, ingress, DNS record
package apps
