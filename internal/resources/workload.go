package resources

import (
	"sort"

	appsv1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/apps/v1"
	corev1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/core/v1"
	metav1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/meta/v1"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/imamik/k8stacks/internal/util/labels"
	"github.com/imamik/k8stacks/internal/util/naming"
)

const (
	defaultReplicas      = 1
	defaultContainerPort = 8080
	servicePort          = 80
)

// SecretEnv maps a secret key onto a container environment variable.
type SecretEnv struct {
	Var    string
	Secret pulumi.StringInput
	Key    string
}

// WorkloadOptions describes a single-container Deployment fronted by a
// ClusterIP Service.
type WorkloadOptions struct {
	ScopedOptions

	// Prefix is prepended to Name to form the object names.
	Prefix string

	Image    string
	Replicas int
	Port     int

	Env       map[string]string
	EnvFrom   []pulumi.StringInput
	SecretEnv []SecretEnv

	// HealthPath enables an HTTP readiness probe.
	HealthPath string
}

// Workload is the handle returned by NewWorkload.
type Workload struct {
	Deployment  *appsv1.Deployment
	Service     *corev1.Service
	FullName    string
	ServiceName pulumi.StringOutput
}

func (o WorkloadOptions) validate() error {
	if err := o.ScopedOptions.validate("workload"); err != nil {
		return err
	}
	if o.ClusterScoped {
		return optionsErrorf("workload", o.Name, "workloads are always namespaced")
	}
	if o.Image == "" {
		return optionsErrorf("workload", o.Name, "image is required")
	}
	if o.Replicas < 0 {
		return optionsErrorf("workload", o.Name, "replicas must not be negative")
	}
	if o.Port < 0 || o.Port > 65535 {
		return optionsErrorf("workload", o.Name, "invalid port %d", o.Port)
	}
	if errs := validation.IsDNS1123Label(o.fullName()); len(errs) > 0 {
		return optionsErrorf("workload", o.Name, "invalid full name %q", o.fullName())
	}
	for _, se := range o.SecretEnv {
		if se.Var == "" || se.Secret == nil || se.Key == "" {
			return optionsErrorf("workload", o.Name, "secret env entries need var, secret and key")
		}
	}
	return nil
}

func (o WorkloadOptions) fullName() string {
	return naming.FullName(o.Prefix, o.Name)
}

func (o WorkloadOptions) replicas() int {
	if o.Replicas == 0 {
		return defaultReplicas
	}
	return o.Replicas
}

func (o WorkloadOptions) port() int {
	if o.Port == 0 {
		return defaultContainerPort
	}
	return o.Port
}

// env returns plain variables sorted by name followed by secret references.
func (o WorkloadOptions) env() corev1.EnvVarArray {
	keys := make([]string, 0, len(o.Env))
	for k := range o.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make(corev1.EnvVarArray, 0, len(keys)+len(o.SecretEnv))
	for _, k := range keys {
		env = append(env, corev1.EnvVarArgs{
			Name:  pulumi.String(k),
			Value: pulumi.String(o.Env[k]),
		})
	}
	for _, se := range o.SecretEnv {
		env = append(env, corev1.EnvVarArgs{
			Name: pulumi.String(se.Var),
			ValueFrom: &corev1.EnvVarSourceArgs{
				SecretKeyRef: &corev1.SecretKeySelectorArgs{
					Name: se.Secret.ToStringOutput().ToStringPtrOutput(),
					Key:  pulumi.String(se.Key),
				},
			},
		})
	}
	return env
}

func (o WorkloadOptions) envFrom() corev1.EnvFromSourceArray {
	if len(o.EnvFrom) == 0 {
		return nil
	}
	from := make(corev1.EnvFromSourceArray, 0, len(o.EnvFrom))
	for _, cm := range o.EnvFrom {
		from = append(from, corev1.EnvFromSourceArgs{
			ConfigMapRef: &corev1.ConfigMapEnvSourceArgs{
				Name: cm.ToStringOutput().ToStringPtrOutput(),
			},
		})
	}
	return from
}

// NewWorkload declares a Deployment and a Service, both named {prefix}-{name}.
// The Service listens on port 80 and targets the container port.
func NewWorkload(ctx *pulumi.Context, o WorkloadOptions) (*Workload, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}

	fullName := o.fullName()
	selector := labels.Selector(fullName, o.Prefix)
	// Selector keys are applied last so caller labels cannot break matching.
	objLabels := labels.NewLabelBuilder(fullName).
		WithComponent("web").
		Merge(o.Labels).
		Merge(selector).
		Build()

	container := corev1.ContainerArgs{
		Name:  pulumi.String(o.Name),
		Image: pulumi.String(o.Image),
		Ports: corev1.ContainerPortArray{
			corev1.ContainerPortArgs{
				Name:          pulumi.String("http"),
				ContainerPort: pulumi.Int(o.port()),
			},
		},
		Env:     o.env(),
		EnvFrom: o.envFrom(),
	}
	if o.HealthPath != "" {
		container.ReadinessProbe = &corev1.ProbeArgs{
			HttpGet: &corev1.HTTPGetActionArgs{
				Path: pulumi.String(o.HealthPath),
				Port: pulumi.Int(o.port()),
			},
		}
	}

	deployment, err := appsv1.NewDeployment(ctx, fullName, &appsv1.DeploymentArgs{
		Metadata: o.metadata(fullName, objLabels, nil),
		Spec: &appsv1.DeploymentSpecArgs{
			Replicas: pulumi.Int(o.replicas()),
			Selector: &metav1.LabelSelectorArgs{
				MatchLabels: pulumi.ToStringMap(selector),
			},
			Template: &corev1.PodTemplateSpecArgs{
				Metadata: &metav1.ObjectMetaArgs{
					Labels: pulumi.ToStringMap(objLabels),
				},
				Spec: &corev1.PodSpecArgs{
					Containers: corev1.ContainerArray{container},
				},
			},
		},
	}, o.Options()...)
	if err != nil {
		return nil, err
	}

	service, err := corev1.NewService(ctx, fullName, &corev1.ServiceArgs{
		Metadata: o.metadata(fullName, objLabels, nil),
		Spec: &corev1.ServiceSpecArgs{
			Type:     pulumi.String("ClusterIP"),
			Selector: pulumi.ToStringMap(selector),
			Ports: corev1.ServicePortArray{
				corev1.ServicePortArgs{
					Name:       pulumi.String("http"),
					Port:       pulumi.Int(servicePort),
					TargetPort: pulumi.Int(o.port()),
				},
			},
		},
	}, o.Options()...)
	if err != nil {
		return nil, err
	}

	return &Workload{
		Deployment:  deployment,
		Service:     service,
		FullName:    fullName,
		ServiceName: service.Metadata.Name().Elem(),
	}, nil
}
