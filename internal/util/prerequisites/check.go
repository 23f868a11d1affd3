// Package prerequisites checks for the client tools the CLI shells out to.
package prerequisites

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// MinPulumiVersion is the oldest pulumi CLI the Automation API calls are
// tested against.
const MinPulumiVersion = "3.100.0"

var versionRegex = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)

// Tool describes a client tool looked up in PATH.
type Tool struct {
	Name     string
	Required bool
	// VersionArgs are passed to the tool to print its version.
	VersionArgs []string
	// MinVersion is a semver floor; empty skips the version check.
	MinVersion  string
	Description string
	InstallURL  string
}

// DefaultTools returns the tools every stack operation needs. The
// Automation API drives the pulumi binary.
func DefaultTools() []Tool {
	return []Tool{
		{
			Name:        "pulumi",
			Required:    true,
			VersionArgs: []string{"version"},
			MinVersion:  MinPulumiVersion,
			Description: "Runs stack operations for the Automation API",
			InstallURL:  "https://www.pulumi.com/docs/install/",
		},
	}
}

// OptionalTools returns tools that help inspecting what the stacks deploy.
func OptionalTools() []Tool {
	return []Tool{
		{
			Name:        "kubectl",
			VersionArgs: []string{"version", "--client"},
			Description: "Inspects deployed workloads",
			InstallURL:  "https://kubernetes.io/docs/tasks/tools/",
		},
		{
			Name:        "helm",
			VersionArgs: []string{"version", "--short"},
			Description: "Inspects releases installed by the stacks",
			InstallURL:  "https://helm.sh/docs/intro/install/",
		},
	}
}

// CheckResult is the outcome for a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
	// Outdated is set when Version is below Tool.MinVersion.
	Outdated bool
}

// CheckResults collects the outcome for several tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors reports whether a required tool is missing or outdated.
func (r *CheckResults) HasErrors() bool {
	return r.Error() != nil
}

// Error describes every required tool that is missing or outdated.
func (r *CheckResults) Error() error {
	var problems []string
	for _, tool := range r.Missing {
		if tool.Required {
			problems = append(problems, fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL))
		}
	}
	for _, res := range r.Results {
		if res.Outdated && res.Tool.Required {
			problems = append(problems, fmt.Sprintf("%s %s is older than %s", res.Tool.Name, res.Version, res.Tool.MinVersion))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(problems, ", "))
}

// Check looks up each tool and compares its version to the tool's floor.
func Check(tools []Tool) *CheckResults {
	results := &CheckResults{}
	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := exec.LookPath(tool.Name)
		if err != nil {
			results.Missing = append(results.Missing, tool)
			results.Results = append(results.Results, result)
			continue
		}
		result.Found = true
		result.Path = path
		if len(tool.VersionArgs) > 0 {
			result.Version = toolVersion(tool.Name, tool.VersionArgs)
		}
		result.Outdated = Outdated(result.Version, tool.MinVersion)
		results.Results = append(results.Results, result)
	}
	return results
}

// CheckDefault checks the required tools.
func CheckDefault() *CheckResults {
	return Check(DefaultTools())
}

// CheckAll checks the required and optional tools.
func CheckAll() *CheckResults {
	return Check(append(DefaultTools(), OptionalTools()...))
}

// ParseVersion extracts the first x.y.z version from tool output.
func ParseVersion(output string) string {
	m := versionRegex.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	return m[1]
}

// Outdated reports whether version is below floor. Unknown versions and
// empty floors never count as outdated.
func Outdated(version, floor string) bool {
	if version == "" || floor == "" {
		return false
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	floorVersion, err := semver.NewVersion(floor)
	if err != nil {
		return false
	}
	return v.LessThan(floorVersion)
}

func toolVersion(name string, args []string) string {
	// #nosec G204 - name and args come from the Tool definitions above
	output, err := exec.Command(name, args...).Output()
	if err != nil {
		return ""
	}
	return ParseVersion(string(output))
}
