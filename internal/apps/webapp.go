package apps

import (
	"fmt"
	"strconv"

	corev1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/core/v1"
	networkingv1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/networking/v1"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/imamik/k8stacks/internal/resources"
	"github.com/imamik/k8stacks/internal/util/naming"
)

// DNSArgs publishes the app host as a Cloudflare record.
type DNSArgs struct {
	ZoneID pulumi.StringInput
	// Target is the record content, usually the ingress load balancer address.
	Target  pulumi.StringInput
	Type    string
	Proxied bool
}

// BasicAuthArgs protects the ingress with basic auth.
type BasicAuthArgs struct {
	Username string
	Password pulumi.StringInput
}

// WebAppArgs configures NewWebApp.
type WebAppArgs struct {
	// Domain and Subdomain form the host; an empty or "@" Subdomain uses the apex.
	Domain    string
	Subdomain string

	Image      string
	Port       int
	Replicas   int
	HealthPath string
	Env        map[string]string

	// Database adds a database release; App and Namespace are filled in.
	Database *DatabaseArgs

	Issuer *resources.IssuerRef
	// Acme declares a namespaced HTTP01 issuer next to the app and uses it
	// instead of Issuer. Namespaced issuers cannot be shared across namespaces.
	Acme         *AcmeArgs
	IngressClass string
	BasicAuth    *BasicAuthArgs
	DNS          *DNSArgs
}

// WebApp is the bundle of handles for a deployed web application.
type WebApp struct {
	pulumi.ResourceState

	Namespace *corev1.Namespace
	Issuer    *resources.Issuer
	ConfigMap *corev1.ConfigMap
	Database  *Database
	Workload  *resources.Workload
	Ingress   *networkingv1.Ingress
	DNSRecord *resources.DNSRecord

	Host          string
	URL           pulumi.StringOutput
	NamespaceName pulumi.StringOutput
	ServiceName   pulumi.StringOutput
}

// NewWebApp deploys name into its own namespace: config map, optional
// database, workload, ingress and optional DNS record.
func NewWebApp(ctx *pulumi.Context, name string, args WebAppArgs, opts ...pulumi.ResourceOption) (*WebApp, error) {
	if args.Domain == "" {
		return nil, fmt.Errorf("web app %s: domain is required", name)
	}
	if args.Image == "" {
		return nil, fmt.Errorf("web app %s: image is required", name)
	}

	app := &WebApp{Host: naming.Host(args.Subdomain, args.Domain)}
	if err := ctx.RegisterComponentResource(componentType("WebApp"), name, app, opts...); err != nil {
		return nil, err
	}

	ns, err := resources.NewNamespace(ctx, resources.NamespaceOptions{CommonOptions: child(app, name)})
	if err != nil {
		return nil, fmt.Errorf("failed to create namespace for %s: %w", name, err)
	}
	app.Namespace = ns
	app.NamespaceName = namespaceName(ns)

	issuer := args.Issuer
	if args.Acme != nil {
		ref, err := app.addIssuer(ctx, name, *args.Acme, args.IngressClass)
		if err != nil {
			return nil, err
		}
		issuer = ref
	}

	env := map[string]string{
		"APP_NAME": name,
		"APP_HOST": app.Host,
	}
	for k, v := range args.Env {
		env[k] = v
	}

	var secretEnv []resources.SecretEnv
	if args.Database != nil {
		dbArgs := *args.Database
		dbArgs.App = name
		dbArgs.Namespace = app.NamespaceName
		db, err := NewDatabase(ctx, name+"-db", dbArgs, pulumi.Parent(app))
		if err != nil {
			return nil, fmt.Errorf("failed to create database for %s: %w", name, err)
		}
		app.Database = db

		env["DB_ENGINE"] = string(db.Engine)
		env["DB_HOST"] = fmt.Sprintf("%s.%s.svc.cluster.local", db.SecretName, name)
		env["DB_PORT"] = strconv.Itoa(db.Port)
		env["DB_NAME"] = db.DatabaseName
		env["DB_USER"] = db.Username
		secretEnv = append(secretEnv, resources.SecretEnv{
			Var:    "DB_PASSWORD",
			Secret: pulumi.String(db.SecretName),
			Key:    db.UserPasswordKey,
		})
	}

	cm, err := resources.NewConfigMap(ctx, resources.ConfigMapOptions{
		ScopedOptions: inNamespace(app, naming.ConfigMapName(name), app.NamespaceName),
		Data:          env,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config map for %s: %w", name, err)
	}
	app.ConfigMap = cm

	workloadScope := inNamespace(app, "web", app.NamespaceName)
	if app.Database != nil {
		workloadScope.After = app.Database.Release
	}
	workload, err := resources.NewWorkload(ctx, resources.WorkloadOptions{
		ScopedOptions: workloadScope,
		Prefix:        name,
		Image:         args.Image,
		Replicas:      args.Replicas,
		Port:          args.Port,
		EnvFrom:       []pulumi.StringInput{cm.Metadata.Name().Elem()},
		SecretEnv:     secretEnv,
		HealthPath:    args.HealthPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create workload for %s: %w", name, err)
	}
	app.Workload = workload
	app.ServiceName = workload.ServiceName

	var basicAuthSecret pulumi.StringInput
	if args.BasicAuth != nil {
		secret, err := resources.NewBasicAuthSecret(ctx, resources.BasicAuthOptions{
			ScopedOptions: inNamespace(app, name, app.NamespaceName),
			Username:      args.BasicAuth.Username,
			Password:      args.BasicAuth.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create basic auth secret for %s: %w", name, err)
		}
		basicAuthSecret = secret.Metadata.Name().Elem()
	}

	ingress, err := resources.NewIngress(ctx, resources.IngressOptions{
		ScopedOptions:   inNamespace(app, name, app.NamespaceName),
		Host:            app.Host,
		ServiceName:     workload.ServiceName,
		ClassName:       args.IngressClass,
		Issuer:          issuer,
		BasicAuthSecret: basicAuthSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ingress for %s: %w", name, err)
	}
	app.Ingress = ingress

	if args.DNS != nil {
		record, err := resources.NewDNSRecord(ctx, resources.DNSRecordOptions{
			CommonOptions: child(app, name),
			ZoneID:        args.DNS.ZoneID,
			Domain:        args.Domain,
			Subdomain:     args.Subdomain,
			Type:          args.DNS.Type,
			Content:       args.DNS.Target,
			Proxied:       args.DNS.Proxied,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create DNS record for %s: %w", name, err)
		}
		app.DNSRecord = record
	}

	app.URL = pulumi.String(appURL(app.Host, issuer != nil)).ToStringOutput()

	if err := ctx.RegisterResourceOutputs(app, pulumi.Map{
		"url":         app.URL,
		"namespace":   app.NamespaceName,
		"serviceName": app.ServiceName,
	}); err != nil {
		return nil, err
	}
	return app, nil
}

// addIssuer declares the app's own ACME issuer, named {app}-{issuer}.
func (app *WebApp) addIssuer(ctx *pulumi.Context, name string, acme AcmeArgs, ingressClass string) (*resources.IssuerRef, error) {
	if acme.Solver != "" && acme.Solver != resources.SolverHTTP01 {
		return nil, fmt.Errorf("web app %s: namespaced issuers support only the http01 solver", name)
	}
	issuerName := naming.FullName(name, defaultString(acme.IssuerName, defaultIssuerName))
	issuer, err := resources.NewAcmeIssuer(ctx, resources.AcmeIssuerOptions{
		ScopedOptions: inNamespace(app, issuerName, app.NamespaceName),
		Email:         acme.Email,
		Solver:        resources.SolverHTTP01,
		IngressClass:  defaultString(acme.IngressClass, ingressClass),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create issuer for %s: %w", name, err)
	}
	app.Issuer = issuer
	return &resources.IssuerRef{Name: issuer.Resource.Metadata.Name().Elem(), ClusterScoped: false}, nil
}
