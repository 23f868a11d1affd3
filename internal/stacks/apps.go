package stacks

import (
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	pulumiconfig "github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/imamik/k8stacks/internal/apps"
	"github.com/imamik/k8stacks/internal/config"
	"github.com/imamik/k8stacks/internal/resources"
)

// Apps stack outputs.
const (
	ExportURLs       = "urls"
	ExportNamespaces = "namespaces"
)

// AppsOutputs are the values the apps program exports, keyed by app name.
type AppsOutputs struct {
	URLs       pulumi.StringMap
	Namespaces pulumi.StringMap
}

// Apps is the program of the k8stacks-apps project.
func Apps(ctx *pulumi.Context) error {
	ac, err := config.ParseApps(
		pulumiconfig.New(ctx, config.Namespace),
		pulumiconfig.New(ctx, config.CloudflareNamespace),
	)
	if err != nil {
		return err
	}

	out, err := DeployApps(ctx, ac)
	if err != nil {
		return err
	}
	ctx.Export(ExportURLs, out.URLs)
	ctx.Export(ExportNamespaces, out.Namespaces)
	return nil
}

// DeployApps declares one web application per entry of ac.Apps, wired to
// the issuer and ingress address exported by the platform stack.
func DeployApps(ctx *pulumi.Context, ac *config.AppsConfig) (*AppsOutputs, error) {
	platform, err := pulumi.NewStackReference(ctx, "platform", &pulumi.StackReferenceArgs{
		Name: pulumi.String(ac.PlatformStack),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reference platform stack %s: %w", ac.PlatformStack, err)
	}

	provider, err := newProvider(ctx, ac.Kubeconfig, ac.KubeContext)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes provider: %w", err)
	}
	opts := []pulumi.ResourceOption{pulumi.Providers(provider)}

	var issuer *resources.IssuerRef
	var acme *apps.AcmeArgs
	switch ac.IssuerScope {
	case config.ScopeCluster:
		issuer = &resources.IssuerRef{
			Name:          platform.GetStringOutput(pulumi.String(ExportClusterIssuerName)),
			ClusterScoped: true,
		}
	case config.ScopeNamespace:
		acme = &apps.AcmeArgs{Email: ac.AcmeEmail, IssuerName: ac.IssuerName}
	}
	address := platform.GetStringOutput(pulumi.String(ExportIngressAddress))

	out := &AppsOutputs{URLs: pulumi.StringMap{}, Namespaces: pulumi.StringMap{}}
	for _, app := range ac.Apps {
		args, err := webAppArgs(ac, app, issuer, acme, address)
		if err != nil {
			return nil, err
		}
		web, err := apps.NewWebApp(ctx, app.Name, args, opts...)
		if err != nil {
			return nil, err
		}
		out.URLs[app.Name] = web.URL
		out.Namespaces[app.Name] = web.NamespaceName
	}

	_ = ctx.Log.Info(fmt.Sprintf("declared %d apps against %s", len(ac.Apps), ac.PlatformStack), nil)
	return out, nil
}

func webAppArgs(ac *config.AppsConfig, app config.AppConfig, issuer *resources.IssuerRef, acme *apps.AcmeArgs, address pulumi.StringOutput) (apps.WebAppArgs, error) {
	args := apps.WebAppArgs{
		Domain:       ac.Domain,
		Subdomain:    app.Host(),
		Image:        app.Image,
		Port:         app.Port,
		Replicas:     app.Replicas,
		HealthPath:   app.HealthPath,
		Env:          app.Env,
		Issuer:       issuer,
		Acme:         acme,
		IngressClass: ac.IngressClass,
	}

	if db := app.Database; db != nil {
		dbArgs := &apps.DatabaseArgs{
			Engine:      apps.Engine(db.Engine),
			Database:    db.Database,
			Username:    db.Username,
			StorageSize: db.StorageSize,
			Chart:       db.Chart,
			Values:      db.Values,
		}
		if ac.HasRootPassword {
			dbArgs.RootPassword = ac.RootPassword
		}
		args.Database = dbArgs
	}

	if app.BasicAuthUser != "" {
		if !ac.HasRootPassword {
			return apps.WebAppArgs{}, fmt.Errorf("app %s: basic auth requires %s:%s", app.Name, config.Namespace, config.KeyRootPassword)
		}
		args.BasicAuth = &apps.BasicAuthArgs{Username: app.BasicAuthUser, Password: ac.RootPassword}
	}

	if app.DNS {
		args.DNS = &apps.DNSArgs{
			ZoneID:  pulumi.String(ac.ZoneID),
			Target:  address,
			Proxied: ac.Proxied,
		}
	}
	return args, nil
}
