package kube

import (
	"context"
	"fmt"
)

// Status is the outcome of one check.
type Status int

// Check outcomes.
const (
	StatusOK Status = iota
	StatusWarn
	StatusFail
)

// Result is one preflight finding.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// PreflightOptions select the checks to run.
type PreflightOptions struct {
	// MinVersion defaults to MinVersion.
	MinVersion string

	// CertManager expects the cert-manager CRDs, as the apps stack does
	// when issuers are in use.
	CertManager bool

	// IngressClass expects the class to exist; empty skips the check.
	IngressClass string

	// IngressService is namespace/name of the ingress controller service
	// whose load balancer address is reported.
	IngressNamespace string
	IngressService   string
}

// Preflight runs the selected checks. A failed API connection stops the
// run after the first result.
func Preflight(ctx context.Context, c Client, opts PreflightOptions) []Result {
	minVersion := opts.MinVersion
	if minVersion == "" {
		minVersion = MinVersion
	}

	version, err := c.ServerVersion(ctx)
	if err != nil {
		return []Result{{Name: "Kubernetes API", Status: StatusFail, Detail: err.Error()}}
	}

	results := []Result{{Name: "Kubernetes API", Status: StatusOK, Detail: version}}
	if err := CheckVersion(version, minVersion); err != nil {
		results = append(results, Result{Name: "Kubernetes version", Status: StatusFail, Detail: err.Error()})
	} else {
		results = append(results, Result{Name: "Kubernetes version", Status: StatusOK, Detail: ">= " + minVersion})
	}

	if opts.CertManager {
		results = append(results, crdResult(ctx, c, "cert-manager CRDs", "cert-manager.io/v1", "ClusterIssuer"))
	}

	if opts.IngressClass != "" {
		ok, err := c.HasIngressClass(ctx, opts.IngressClass)
		switch {
		case err != nil:
			results = append(results, Result{Name: "Ingress class", Status: StatusFail, Detail: err.Error()})
		case ok:
			results = append(results, Result{Name: "Ingress class", Status: StatusOK, Detail: opts.IngressClass})
		default:
			results = append(results, Result{Name: "Ingress class", Status: StatusWarn, Detail: fmt.Sprintf("%s not found; deploy the platform stack first", opts.IngressClass)})
		}
	}

	if opts.IngressService != "" {
		addr, err := c.LoadBalancerAddress(ctx, opts.IngressNamespace, opts.IngressService)
		switch {
		case err != nil:
			results = append(results, Result{Name: "Ingress address", Status: StatusFail, Detail: err.Error()})
		case addr == "":
			results = append(results, Result{Name: "Ingress address", Status: StatusWarn, Detail: "no load balancer address assigned"})
		default:
			results = append(results, Result{Name: "Ingress address", Status: StatusOK, Detail: addr})
		}
	}

	return results
}

func crdResult(ctx context.Context, c Client, name, groupVersion, kind string) Result {
	ok, err := c.HasAPIResource(ctx, groupVersion, kind)
	switch {
	case err != nil:
		return Result{Name: name, Status: StatusFail, Detail: err.Error()}
	case ok:
		return Result{Name: name, Status: StatusOK, Detail: groupVersion + " " + kind}
	default:
		return Result{Name: name, Status: StatusWarn, Detail: fmt.Sprintf("%s %s not served; deploy the platform stack first", groupVersion, kind)}
	}
}

// Failed reports whether any result failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}
