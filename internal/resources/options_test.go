package resources

import (
	"errors"
	"strings"
	"testing"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ktesting "github.com/imamik/k8stacks/internal/testing"
)

func TestCommonOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    CommonOptions
		wantErr string
	}{
		{name: "valid", opts: CommonOptions{Name: "web"}},
		{name: "missing name", opts: CommonOptions{}, wantErr: "name is required"},
		{name: "uppercase name", opts: CommonOptions{Name: "Web"}, wantErr: "name"},
		{name: "name too long", opts: CommonOptions{Name: strings.Repeat("a", 64)}, wantErr: "name"},
		{
			name:    "invalid label key",
			opts:    CommonOptions{Name: "web", Labels: map[string]string{"bad key": "x"}},
			wantErr: "invalid label key",
		},
		{
			name:    "invalid label value",
			opts:    CommonOptions{Name: "web", Labels: map[string]string{"tier": "has space"}},
			wantErr: "invalid value for label",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate("namespace")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var optsErr *OptionsError
			require.True(t, errors.As(err, &optsErr))
			assert.Equal(t, "namespace", optsErr.Kind)
			assert.Contains(t, optsErr.Reason, tt.wantErr)
		})
	}
}

func TestScopedOptions_Validate(t *testing.T) {
	err := ScopedOptions{CommonOptions: CommonOptions{Name: "web"}}.validate("secret")
	var optsErr *OptionsError
	require.True(t, errors.As(err, &optsErr))
	assert.Contains(t, optsErr.Reason, "namespace is required")

	clusterScoped := ScopedOptions{CommonOptions: CommonOptions{Name: "web"}, ClusterScoped: true}
	assert.NoError(t, clusterScoped.validate("issuer"))

	assert.NoError(t, namespaced("web").validate("secret"))
}

func TestOptionsError_Error(t *testing.T) {
	assert.Equal(t, "invalid secret options: name is required",
		(&OptionsError{Kind: "secret", Reason: "name is required"}).Error())
	assert.Equal(t, `invalid secret options for "db": bad`,
		(&OptionsError{Kind: "secret", Name: "db", Reason: "bad"}).Error())
}

func TestCommonOptions_Options_Empty(t *testing.T) {
	assert.Empty(t, CommonOptions{Name: "web"}.Options())
}

func TestCommonOptions_Options_WiresParentAndDependencies(t *testing.T) {
	mocks := ktesting.NewResources()
	err := ktesting.Run(mocks, func(ctx *pulumi.Context) error {
		first, err := NewNamespace(ctx, NamespaceOptions{CommonOptions{Name: "first"}})
		if err != nil {
			return err
		}
		second, err := NewNamespace(ctx, NamespaceOptions{CommonOptions{Name: "second"}})
		if err != nil {
			return err
		}
		_, err = NewNamespace(ctx, NamespaceOptions{CommonOptions{
			Name:      "third",
			Parent:    first,
			After:     second,
			DependsOn: []pulumi.Resource{first},
		}})
		return err
	})
	require.NoError(t, err)

	third := mocks.MustFind(typeNamespace, "third")
	require.NotNil(t, third.RegisterRPC)
	assert.True(t, strings.HasSuffix(third.RegisterRPC.GetParent(), "::first"))

	// After replaces DependsOn.
	deps := third.RegisterRPC.GetDependencies()
	assert.True(t, hasURNSuffix(deps, "second"))
	assert.False(t, hasURNSuffix(deps, "first"))
}

func TestNewNamespace_IsClusterScoped(t *testing.T) {
	mocks := ktesting.NewResources()
	err := ktesting.Run(mocks, func(ctx *pulumi.Context) error {
		_, err := NewNamespace(ctx, NamespaceOptions{CommonOptions{
			Name:   "apps",
			Labels: map[string]string{"team": "platform"},
		}})
		return err
	})
	require.NoError(t, err)

	ns := mocks.MustFind(typeNamespace, "apps")
	assert.Equal(t, "apps", ktesting.LookupString(ns.Inputs, "metadata", "name"))
	assert.True(t, ktesting.Lookup(ns.Inputs, "metadata", "namespace").IsNull())
	assert.Equal(t, "platform", ktesting.LookupString(ns.Inputs, "metadata", "labels", "team"))
	assert.Equal(t, "k8stacks", ktesting.LookupString(ns.Inputs, "metadata", "labels", "app.kubernetes.io/managed-by"))
}

func TestNewNamespace_RejectsInvalidName(t *testing.T) {
	mocks := ktesting.NewResources()
	var factoryErr error
	err := ktesting.Run(mocks, func(ctx *pulumi.Context) error {
		_, factoryErr = NewNamespace(ctx, NamespaceOptions{CommonOptions{Name: "Not_Valid"}})
		return nil
	})
	require.NoError(t, err)
	var optsErr *OptionsError
	require.True(t, errors.As(factoryErr, &optsErr))
	assert.Empty(t, mocks.ByType(typeNamespace))
}
