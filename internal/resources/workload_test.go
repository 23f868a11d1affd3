package resources

import (
	"testing"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ktesting "github.com/imamik/k8stacks/internal/testing"
)

func TestWorkloadOptions_Defaults(t *testing.T) {
	opts := WorkloadOptions{ScopedOptions: namespaced("web"), Prefix: "shop", Image: "nginx:1.27"}
	require.NoError(t, opts.validate())
	assert.Equal(t, "shop-web", opts.fullName())
	assert.Equal(t, 1, opts.replicas())
	assert.Equal(t, 8080, opts.port())
}

func TestWorkloadOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		opts WorkloadOptions
	}{
		{name: "missing image", opts: WorkloadOptions{ScopedOptions: namespaced("web")}},
		{name: "negative replicas", opts: WorkloadOptions{ScopedOptions: namespaced("web"), Image: "x", Replicas: -1}},
		{name: "port out of range", opts: WorkloadOptions{ScopedOptions: namespaced("web"), Image: "x", Port: 70000}},
		{
			name: "incomplete secret env",
			opts: WorkloadOptions{ScopedOptions: namespaced("web"), Image: "x", SecretEnv: []SecretEnv{{Var: "DB_PASSWORD"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.opts.validate())
		})
	}
}

func TestNewWorkload(t *testing.T) {
	mocks := ktesting.NewResources()
	var workload *Workload
	err := ktesting.Run(mocks, func(ctx *pulumi.Context) error {
		var err error
		workload, err = NewWorkload(ctx, WorkloadOptions{
			ScopedOptions: namespaced("web"),
			Prefix:        "shop",
			Image:         "ghcr.io/example/shop:1.0.0",
			Env:           map[string]string{"B": "2", "A": "1"},
			EnvFrom:       []pulumi.StringInput{pulumi.String("shop-config")},
			SecretEnv:     []SecretEnv{{Var: "DB_PASSWORD", Secret: pulumi.String("shop-db"), Key: "password"}},
			HealthPath:    "/healthz",
		})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "shop-web", workload.FullName)

	dep := mocks.MustFind(typeDeployment, "shop-web")
	assert.Equal(t, float64(1), ktesting.Lookup(dep.Inputs, "spec", "replicas").NumberValue())
	assert.Equal(t, "shop-web", ktesting.LookupString(dep.Inputs, "spec", "selector", "matchLabels", "app.kubernetes.io/name"))

	containers := ktesting.Lookup(dep.Inputs, "spec", "template", "spec", "containers").ArrayValue()
	require.Len(t, containers, 1)
	env := containers[0].ObjectValue()["env"].ArrayValue()
	require.Len(t, env, 3)
	assert.Equal(t, "A", env[0].ObjectValue()["name"].StringValue())
	assert.Equal(t, "B", env[1].ObjectValue()["name"].StringValue())
	assert.Equal(t, "DB_PASSWORD", env[2].ObjectValue()["name"].StringValue())

	svc := mocks.MustFind(typeService, "shop-web")
	assert.Equal(t, "ClusterIP", ktesting.LookupString(svc.Inputs, "spec", "type"))
	ports := ktesting.Lookup(svc.Inputs, "spec", "ports").ArrayValue()
	require.Len(t, ports, 1)
	assert.Equal(t, float64(80), ports[0].ObjectValue()["port"].NumberValue())
	assert.Equal(t, float64(8080), ports[0].ObjectValue()["targetPort"].NumberValue())
}
