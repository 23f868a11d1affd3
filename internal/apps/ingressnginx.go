package apps

import (
	"fmt"

	corev1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/core/v1"
	helmv3 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/helm/v3"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/imamik/k8stacks/internal/helm"
	"github.com/imamik/k8stacks/internal/resources"
)

const (
	defaultIngressNamespace = "ingress-nginx"
	defaultIngressClass     = "nginx"

	// ingressFullname pins the chart's resource names so the controller
	// service is always ingress-nginx-controller.
	ingressFullname   = "ingress-nginx"
	ingressController = ingressFullname + "-controller"
)

// IngressNginxArgs configures NewIngressNginx.
type IngressNginxArgs struct {
	// Namespace defaults to "ingress-nginx".
	Namespace string

	// ClassName defaults to "nginx"; the class is marked default.
	ClassName string

	// ServiceType defaults to LoadBalancer.
	ServiceType string

	// ExternalTrafficPolicy defaults to Local.
	ExternalTrafficPolicy string

	// Replicas defaults to 2.
	Replicas int

	// Config entries are added to the controller config map.
	Config map[string]string

	Chart  helm.ChartSpec
	Values helm.Values
}

// IngressNginx is the ingress-nginx component.
type IngressNginx struct {
	pulumi.ResourceState

	Namespace *corev1.Namespace
	Release   *helmv3.Release

	NamespaceName pulumi.StringOutput
	ClassName     pulumi.StringOutput

	// Address is the load balancer IP or hostname; empty for other service types.
	Address pulumi.StringOutput
}

func ingressNginxValues(args IngressNginxArgs) helm.Values {
	replicas := args.Replicas
	if replicas == 0 {
		replicas = 2
	}

	config := helm.Values{
		"compute-full-forwarded-for": "true",
		"use-forwarded-headers":      "true",
	}
	for k, v := range args.Config {
		config[k] = v
	}

	return helm.Values{
		"fullnameOverride": ingressFullname,
		"controller": helm.Values{
			"replicaCount":   replicas,
			"maxUnavailable": 1,
			"ingressClassResource": helm.Values{
				"name":    defaultString(args.ClassName, defaultIngressClass),
				"default": true,
			},
			"ingressClass": defaultString(args.ClassName, defaultIngressClass),
			"admissionWebhooks": helm.Values{
				"enabled": false,
			},
			"metrics": helm.Values{
				"enabled": false,
			},
			"service": helm.Values{
				"type":                  defaultString(args.ServiceType, "LoadBalancer"),
				"externalTrafficPolicy": defaultString(args.ExternalTrafficPolicy, "Local"),
			},
			"config": config,
		},
	}
}

// NewIngressNginx installs the ingress-nginx controller.
func NewIngressNginx(ctx *pulumi.Context, name string, args IngressNginxArgs, opts ...pulumi.ResourceOption) (*IngressNginx, error) {
	in := &IngressNginx{}
	if err := ctx.RegisterComponentResource(componentType("IngressNginx"), name, in, opts...); err != nil {
		return nil, err
	}

	nsName := defaultString(args.Namespace, defaultIngressNamespace)
	ns, err := resources.NewNamespace(ctx, resources.NamespaceOptions{CommonOptions: child(in, nsName)})
	if err != nil {
		return nil, fmt.Errorf("failed to create ingress-nginx namespace: %w", err)
	}
	in.Namespace = ns
	in.NamespaceName = namespaceName(ns)

	release, err := resources.NewHelmRelease(ctx, resources.ReleaseOptions{
		ScopedOptions: inNamespace(in, name, in.NamespaceName),
		Chart:         helm.GetChartSpec(helm.IngressNginx, args.Chart),
		Defaults:      ingressNginxValues(args),
		Values:        args.Values,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ingress-nginx release: %w", err)
	}
	in.Release = release
	in.ClassName = pulumi.String(defaultString(args.ClassName, defaultIngressClass)).ToStringOutput()

	in.Address = pulumi.String("").ToStringOutput()
	if defaultString(args.ServiceType, "LoadBalancer") == "LoadBalancer" {
		svc, err := corev1.GetService(ctx, name+"-controller",
			pulumi.ID(nsName+"/"+ingressController), nil,
			pulumi.Parent(in), pulumi.DependsOn([]pulumi.Resource{release}))
		if err != nil {
			return nil, fmt.Errorf("failed to read ingress controller service: %w", err)
		}
		in.Address = svc.Status.LoadBalancer().Ingress().ApplyT(loadBalancerAddress).(pulumi.StringOutput)
	}

	if err := ctx.RegisterResourceOutputs(in, pulumi.Map{
		"namespace": in.NamespaceName,
		"className": in.ClassName,
		"address":   in.Address,
	}); err != nil {
		return nil, err
	}
	return in, nil
}

// loadBalancerAddress picks the first IP, falling back to the first hostname.
func loadBalancerAddress(ingress []corev1.LoadBalancerIngress) string {
	for _, ing := range ingress {
		if ing.Ip != nil && *ing.Ip != "" {
			return *ing.Ip
		}
	}
	for _, ing := range ingress {
		if ing.Hostname != nil && *ing.Hostname != "" {
			return *ing.Hostname
		}
	}
	return ""
}
