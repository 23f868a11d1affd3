package handlers

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/k8stacks/internal/automation"
	"github.com/imamik/k8stacks/internal/config"
)

const testProject = `
domain: example.com
acme:
  email: ops@example.com
cloudflare:
  zoneId: zone-123
addons:
  externalDNS:
    enabled: true
  argoCD:
    chart:
      version: 9.4.0
apps:
  - name: shop
    image: ghcr.io/acme/shop:1.2.3
    port: 3000
    database:
      engine: mysql
`

// captureOutput captures stdout during function execution.
func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// writeTestProject writes content to a project file in a temp dir.
func writeTestProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultProjectFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// saveAndRestoreFactories saves and restores every factory function.
func saveAndRestoreFactories(t *testing.T) {
	origLoadEnv := loadEnv
	origGetwd := getwd
	origLoadProjectFile := loadProjectFile
	origResolveSecrets := resolveSecrets
	origIsInteractiveTTY := isInteractiveTTY
	origNewRunner := newRunner
	origNewRecorder := newRecorder
	origCheckTools := checkTools
	origConfirmDestroy := confirmDestroy
	origNewDNSCleaner := newDNSCleaner
	origNow := now
	origNewLocator := newLocator
	origRenderChart := renderChart
	origNewStateBucket := newStateBucket
	origCheckAllTools := checkAllTools
	origNewKubeClient := newKubeClient
	origNewDNSAPI := newDNSAPI
	origSetSecret := setSecret
	origGetSecret := getSecret
	origDeleteSecret := deleteSecret
	origLookupEnv := lookupEnv
	origStdin := stdin
	origPromptSecret := promptSecret
	origFileExists := fileExists
	origRunWizard := runWizard
	origWriteProject := writeProject

	t.Cleanup(func() {
		loadEnv = origLoadEnv
		getwd = origGetwd
		loadProjectFile = origLoadProjectFile
		resolveSecrets = origResolveSecrets
		isInteractiveTTY = origIsInteractiveTTY
		newRunner = origNewRunner
		newRecorder = origNewRecorder
		checkTools = origCheckTools
		confirmDestroy = origConfirmDestroy
		newDNSCleaner = origNewDNSCleaner
		now = origNow
		newLocator = origNewLocator
		renderChart = origRenderChart
		newStateBucket = origNewStateBucket
		checkAllTools = origCheckAllTools
		newKubeClient = origNewKubeClient
		newDNSAPI = origNewDNSAPI
		setSecret = origSetSecret
		getSecret = origGetSecret
		deleteSecret = origDeleteSecret
		lookupEnv = origLookupEnv
		stdin = origStdin
		promptSecret = origPromptSecret
		fileExists = origFileExists
		runWizard = origRunWizard
		writeProject = origWriteProject
	})

	// Never touch the real keyring, PATH or terminal.
	resolveSecrets = func(*config.Env) (config.Secrets, error) { return config.Secrets{}, nil }
	checkTools = func() error { return nil }
	isInteractiveTTY = func() bool { return false }
}

// useEnv makes loadEnv return env.
func useEnv(env *config.Env) {
	loadEnv = func() (*config.Env, error) { return env, nil }
}

// fakeRunner records the operations it is asked to run.
type fakeRunner struct {
	ops      []automation.Operation
	requests []automation.Request

	result  *automation.Result
	outputs automation.Outputs
	err     error
}

func (f *fakeRunner) Run(_ context.Context, op automation.Operation, req automation.Request) (*automation.Result, error) {
	f.ops = append(f.ops, op)
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &automation.Result{Operation: op, Stack: req.StackName(), Summary: "succeeded", Changes: map[string]int{}}, nil
}

func (f *fakeRunner) Outputs(_ context.Context, req automation.Request) (automation.Outputs, error) {
	f.requests = append(f.requests, req)
	return f.outputs, f.err
}

// useRunner installs runner as the Automation API runner.
func useRunner(runner *fakeRunner) {
	newRunner = func() automation.Runner { return runner }
}
