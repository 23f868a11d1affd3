package testing

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pulumi/pulumi/sdk/v3/go/common/resource"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Project and stack names used for mocked runs.
const (
	MockProject = "k8stacks"
	MockStack   = "test"
)

// Resources is a pulumi.MockResourceMonitor that records every registration.
// Outputs echo the inputs, overlaid with any properties seeded in Outputs.
type Resources struct {
	// Outputs seeds extra output properties keyed by type token.
	Outputs map[string]resource.PropertyMap

	// CallResults seeds invoke results keyed by function token.
	CallResults map[string]resource.PropertyMap

	mu         sync.Mutex
	registered []pulumi.MockResourceArgs
	calls      []pulumi.MockCallArgs
}

// NewResources creates an empty recorder.
func NewResources() *Resources {
	return &Resources{
		Outputs:     map[string]resource.PropertyMap{},
		CallResults: map[string]resource.PropertyMap{},
	}
}

// NewResource implements pulumi.MockResourceMonitor.
func (r *Resources) NewResource(args pulumi.MockResourceArgs) (string, resource.PropertyMap, error) {
	r.mu.Lock()
	r.registered = append(r.registered, args)
	r.mu.Unlock()

	outputs := args.Inputs.Copy()
	for k, v := range r.Outputs[args.TypeToken] {
		outputs[k] = v
	}
	id := args.ID
	if id == "" {
		id = args.Name + "-id"
	}
	return id, outputs, nil
}

// Call implements pulumi.MockResourceMonitor.
func (r *Resources) Call(args pulumi.MockCallArgs) (resource.PropertyMap, error) {
	r.mu.Lock()
	r.calls = append(r.calls, args)
	r.mu.Unlock()

	if result, ok := r.CallResults[args.Token]; ok {
		return result, nil
	}
	return resource.PropertyMap{}, nil
}

// All returns every registration in order.
func (r *Resources) All() []pulumi.MockResourceArgs {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pulumi.MockResourceArgs(nil), r.registered...)
}

// ByType returns the registrations with the given type token.
func (r *Resources) ByType(token string) []pulumi.MockResourceArgs {
	var matched []pulumi.MockResourceArgs
	for _, args := range r.All() {
		if args.TypeToken == token {
			matched = append(matched, args)
		}
	}
	return matched
}

// Find returns the registration with the given type token and name.
func (r *Resources) Find(token, name string) (pulumi.MockResourceArgs, bool) {
	for _, args := range r.ByType(token) {
		if args.Name == name {
			return args, true
		}
	}
	return pulumi.MockResourceArgs{}, false
}

// MustFind is Find that panics when nothing matches.
func (r *Resources) MustFind(token, name string) pulumi.MockResourceArgs {
	args, ok := r.Find(token, name)
	if !ok {
		panic(fmt.Sprintf("no %s named %q registered; have %v", token, name, r.Names(token)))
	}
	return args
}

// Names returns the sorted names registered under token.
func (r *Resources) Names(token string) []string {
	var names []string
	for _, args := range r.ByType(token) {
		names = append(names, args.Name)
	}
	sort.Strings(names)
	return names
}

// Calls returns the recorded invokes.
func (r *Resources) Calls() []pulumi.MockCallArgs {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pulumi.MockCallArgs(nil), r.calls...)
}

// Run executes fn against mocks and waits for all registrations to settle.
func Run(mocks *Resources, fn pulumi.RunFunc) error {
	return pulumi.RunErr(fn, pulumi.WithMocks(MockProject, MockStack, mocks))
}

// StringValue collects the resolved value of a string output.
type StringValue struct {
	wg    sync.WaitGroup
	value string
}

// CaptureString must be called inside a mocked run; Get blocks until out resolves.
func CaptureString(out pulumi.StringOutput) *StringValue {
	s := &StringValue{}
	s.wg.Add(1)
	out.ApplyT(func(v string) string {
		s.value = v
		s.wg.Done()
		return v
	})
	return s
}

// Get returns the resolved value.
func (s *StringValue) Get() string {
	s.wg.Wait()
	return s.value
}

// RunWithConfig is Run with stack configuration. Keys are namespaced, for
// example "k8stacks:domain"; secretKeys marks entries as secret.
func RunWithConfig(mocks *Resources, config map[string]string, secretKeys []string, fn pulumi.RunFunc) error {
	return pulumi.RunErr(fn, pulumi.WithMocks(MockProject, MockStack, mocks), func(info *pulumi.RunInfo) {
		info.Config = config
		info.ConfigSecretKeys = secretKeys
	})
}
