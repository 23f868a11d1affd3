package kube

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// MinVersion is the oldest Kubernetes release the pinned charts support.
const MinVersion = "1.26.0"

// Client provides the cluster reads the preflight checks need.
type Client interface {
	// ServerVersion returns the API server git version, e.g. v1.31.2.
	ServerVersion(ctx context.Context) (string, error)

	// HasAPIResource reports whether groupVersion serves kind.
	HasAPIResource(ctx context.Context, groupVersion, kind string) (bool, error)

	// HasIngressClass reports whether the ingress class exists.
	HasIngressClass(ctx context.Context, name string) (bool, error)

	// LoadBalancerAddress returns the first load balancer IP or hostname of
	// a service, or an empty string while none is assigned.
	LoadBalancerAddress(ctx context.Context, namespace, service string) (string, error)
}

type client struct {
	clientset kubernetes.Interface
}

// NewFromKubeconfig creates a Client from a kubeconfig path and context.
// Empty values follow the usual KUBECONFIG loading rules.
func NewFromKubeconfig(path, kubeContext string) (Client, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path != "" {
		rules.ExplicitPath = path
	}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: kubeContext}

	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}
	return &client{clientset: clientset}, nil
}

// NewFromClientset wraps an existing clientset. Tests pass the fake one.
func NewFromClientset(clientset kubernetes.Interface) Client {
	return &client{clientset: clientset}
}

func (c *client) ServerVersion(_ context.Context) (string, error) {
	info, err := c.clientset.Discovery().ServerVersion()
	if err != nil {
		return "", fmt.Errorf("failed to get server version: %w", err)
	}
	return info.GitVersion, nil
}

func (c *client) HasAPIResource(_ context.Context, groupVersion, kind string) (bool, error) {
	list, err := c.clientset.Discovery().ServerResourcesForGroupVersion(groupVersion)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to discover %s: %w", groupVersion, err)
	}
	for _, r := range list.APIResources {
		if r.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (c *client) HasIngressClass(ctx context.Context, name string) (bool, error) {
	_, err := c.clientset.NetworkingV1().IngressClasses().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get ingress class %s: %w", name, err)
	}
	return true, nil
}

func (c *client) LoadBalancerAddress(ctx context.Context, namespace, service string) (string, error) {
	svc, err := c.clientset.CoreV1().Services(namespace).Get(ctx, service, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get service %s/%s: %w", namespace, service, err)
	}
	for _, ing := range svc.Status.LoadBalancer.Ingress {
		if ing.IP != "" {
			return ing.IP, nil
		}
		if ing.Hostname != "" {
			return ing.Hostname, nil
		}
	}
	return "", nil
}

// CheckVersion returns an error when gitVersion is older than minVersion.
// Provider suffixes such as +k3s1 or -gke.100 are tolerated.
func CheckVersion(gitVersion, minVersion string) error {
	v, err := semver.NewVersion(gitVersion)
	if err != nil {
		return fmt.Errorf("unparsable server version %q: %w", gitVersion, err)
	}
	floor, err := semver.NewVersion(minVersion)
	if err != nil {
		return fmt.Errorf("invalid minimum version %q: %w", minVersion, err)
	}

	core, _ := v.SetPrerelease("")
	if core.LessThan(floor) {
		return fmt.Errorf("kubernetes %s is older than the supported minimum %s", gitVersion, minVersion)
	}
	return nil
}
