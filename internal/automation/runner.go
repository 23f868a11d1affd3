package automation

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pulumi/pulumi/sdk/v3/go/auto"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optdestroy"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optpreview"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optrefresh"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optup"
	"github.com/pulumi/pulumi/sdk/v3/go/common/apitype"
	"github.com/pulumi/pulumi/sdk/v3/go/common/tokens"
	"github.com/pulumi/pulumi/sdk/v3/go/common/workspace"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/imamik/k8stacks/internal/config"
)

// Operation is a stack lifecycle operation.
type Operation string

// Supported operations.
const (
	OpUp      Operation = "up"
	OpPreview Operation = "preview"
	OpDestroy Operation = "destroy"
	OpRefresh Operation = "refresh"
)

// Request selects a stack and the program that backs it.
type Request struct {
	Organization string
	Project      string
	Stack        string
	Program      pulumi.RunFunc

	// BackendURL is the state backend, e.g. s3://bucket or file://~/.
	// Empty uses the Pulumi CLI login.
	BackendURL string

	// SecretsProvider defaults to the backend's provider.
	SecretsProvider string

	// Config replaces the stack configuration before the operation.
	Config map[string]config.Value

	// Progress receives the engine event stream.
	Progress io.Writer

	// EnvVars are passed to the Pulumi CLI.
	EnvVars map[string]string

	// Remove deletes the stack and its configuration after a destroy.
	Remove bool
}

// StackName returns the fully qualified stack name.
func (r Request) StackName() string {
	return auto.FullyQualifiedStackName(r.Organization, r.Project, r.Stack)
}

// Result summarises a finished operation.
type Result struct {
	Operation Operation
	Stack     string

	// Summary is the engine result, e.g. "succeeded".
	Summary string

	// Changes counts resources per operation type.
	Changes map[string]int
	Outputs Outputs
}

// Runner runs stack operations.
type Runner interface {
	Run(ctx context.Context, op Operation, req Request) (*Result, error)
	Outputs(ctx context.Context, req Request) (Outputs, error)
}

// LocalRunner runs operations with a local Automation API workspace.
type LocalRunner struct{}

// NewLocalRunner creates a LocalRunner.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

// Run implements Runner.
func (l *LocalRunner) Run(ctx context.Context, op Operation, req Request) (*Result, error) {
	stack, err := auto.UpsertStackInlineSource(ctx, req.StackName(), req.Project, req.Program, workspaceOptions(req)...)
	if err != nil {
		return nil, fmt.Errorf("failed to select stack %s: %w", req.StackName(), err)
	}

	if req.Config != nil {
		if err := stack.SetAllConfig(ctx, configMap(req.Config)); err != nil {
			return nil, fmt.Errorf("failed to set stack config: %w", err)
		}
	}

	progress := req.Progress
	if progress == nil {
		progress = io.Discard
	}

	result := &Result{Operation: op, Stack: req.StackName()}
	switch op {
	case OpUp:
		res, err := stack.Up(ctx, optup.ProgressStreams(progress))
		if err != nil {
			return nil, fmt.Errorf("failed to update stack %s: %w", req.StackName(), err)
		}
		result.Summary = res.Summary.Result
		result.Changes = summaryChanges(res.Summary.ResourceChanges)
		result.Outputs = fromOutputMap(res.Outputs)

	case OpPreview:
		res, err := stack.Preview(ctx, optpreview.ProgressStreams(progress))
		if err != nil {
			return nil, fmt.Errorf("failed to preview stack %s: %w", req.StackName(), err)
		}
		result.Summary = "previewed"
		result.Changes = previewChanges(res.ChangeSummary)

	case OpRefresh:
		res, err := stack.Refresh(ctx, optrefresh.ProgressStreams(progress))
		if err != nil {
			return nil, fmt.Errorf("failed to refresh stack %s: %w", req.StackName(), err)
		}
		result.Summary = res.Summary.Result
		result.Changes = summaryChanges(res.Summary.ResourceChanges)

	case OpDestroy:
		res, err := stack.Destroy(ctx, optdestroy.ProgressStreams(progress))
		if err != nil {
			return nil, fmt.Errorf("failed to destroy stack %s: %w", req.StackName(), err)
		}
		result.Summary = res.Summary.Result
		result.Changes = summaryChanges(res.Summary.ResourceChanges)

		if req.Remove {
			if err := stack.Workspace().RemoveStack(ctx, req.StackName()); err != nil {
				return result, fmt.Errorf("failed to remove stack %s: %w", req.StackName(), err)
			}
		}

	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}

	return result, nil
}

// Outputs implements Runner. The stack must already exist.
func (l *LocalRunner) Outputs(ctx context.Context, req Request) (Outputs, error) {
	stack, err := auto.SelectStackInlineSource(ctx, req.StackName(), req.Project, req.Program, workspaceOptions(req)...)
	if err != nil {
		return nil, fmt.Errorf("failed to select stack %s: %w", req.StackName(), err)
	}
	out, err := stack.Outputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read outputs of %s: %w", req.StackName(), err)
	}
	return fromOutputMap(out), nil
}

func projectSettings(req Request) workspace.Project {
	project := workspace.Project{
		Name:    tokens.PackageName(req.Project),
		Runtime: workspace.NewProjectRuntimeInfo("go", nil),
	}
	if req.BackendURL != "" {
		project.Backend = &workspace.ProjectBackend{URL: req.BackendURL}
	}
	return project
}

func workspaceOptions(req Request) []auto.LocalWorkspaceOption {
	opts := []auto.LocalWorkspaceOption{auto.Project(projectSettings(req))}
	if req.SecretsProvider != "" {
		opts = append(opts, auto.SecretsProvider(req.SecretsProvider))
	}
	if len(req.EnvVars) > 0 {
		opts = append(opts, auto.EnvVars(req.EnvVars))
	}
	return opts
}

func configMap(values map[string]config.Value) auto.ConfigMap {
	cm := make(auto.ConfigMap, len(values))
	for k, v := range values {
		cm[k] = auto.ConfigValue{Value: v.Value, Secret: v.Secret}
	}
	return cm
}

func summaryChanges(changes *map[string]int) map[string]int {
	out := map[string]int{}
	if changes == nil {
		return out
	}
	for k, v := range *changes {
		out[k] = v
	}
	return out
}

func previewChanges(changes map[apitype.OpType]int) map[string]int {
	out := make(map[string]int, len(changes))
	for k, v := range changes {
		out[string(k)] = v
	}
	return out
}

// FormatChanges renders change counts as "create=3 same=10", sorted by type.
func FormatChanges(changes map[string]int) string {
	if len(changes) == 0 {
		return "no changes"
	}
	kinds := make([]string, 0, len(changes))
	for k := range changes {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	s := ""
	for i, k := range kinds {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%d", k, changes[k])
	}
	return s
}
