package apps

import (
	"fmt"

	corev1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/core/v1"
	helmv3 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/helm/v3"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/imamik/k8stacks/internal/helm"
	"github.com/imamik/k8stacks/internal/resources"
	"github.com/imamik/k8stacks/internal/util/naming"
)

// Engine selects the database chart.
type Engine string

const (
	EnginePostgreSQL Engine = "postgresql"
	EngineMySQL      Engine = "mysql"
)

// engineSpec describes how a bitnami chart stores its credentials.
type engineSpec struct {
	chart string
	port  int

	// Secret keys read by the chart when auth.existingSecret is set.
	rootKey string
	userKey string
}

var engines = map[Engine]engineSpec{
	EnginePostgreSQL: {chart: helm.PostgreSQL, port: 5432, rootKey: "postgres-password", userKey: "password"},
	EngineMySQL:      {chart: helm.MySQL, port: 3306, rootKey: "mysql-root-password", userKey: "mysql-password"},
}

// DatabaseArgs configures NewDatabase.
type DatabaseArgs struct {
	// App names the owning application; objects are named {app}-db.
	App string

	Namespace pulumi.StringInput

	// Engine defaults to PostgreSQL.
	Engine Engine

	// Database and Username default to App.
	Database string
	Username string

	// RootPassword is stored in the {app}-db secret. When nil the chart
	// generates one into a secret of the same name.
	RootPassword pulumi.StringInput
	// Password is the application user's password; defaults to RootPassword.
	Password pulumi.StringInput

	// StorageSize defaults to 8Gi.
	StorageSize string

	Chart  helm.ChartSpec
	Values helm.Values
}

// Database is the database component.
type Database struct {
	pulumi.ResourceState

	Release *helmv3.Release
	// Secret is nil when the chart generates the credentials.
	Secret *corev1.Secret

	Engine     Engine
	SecretName string
	// UserPasswordKey is the key of the application password in SecretName.
	UserPasswordKey string
	Port            int
	DatabaseName    string
	Username        string

	Host pulumi.StringOutput
}

func (a DatabaseArgs) engine() (Engine, engineSpec, error) {
	engine := a.Engine
	if engine == "" {
		engine = EnginePostgreSQL
	}
	spec, ok := engines[engine]
	if !ok {
		return "", engineSpec{}, fmt.Errorf("unsupported database engine %q", a.Engine)
	}
	return engine, spec, nil
}

func databaseValues(args DatabaseArgs, fullname string, existingSecret bool) helm.Values {
	auth := helm.Values{
		"username": defaultString(args.Username, args.App),
		"database": defaultString(args.Database, args.App),
	}
	if existingSecret {
		auth["existingSecret"] = fullname
	}

	return helm.Values{
		"fullnameOverride": fullname,
		"auth":             auth,
		"primary": helm.Values{
			"persistence": helm.Values{
				"size": defaultString(args.StorageSize, "8Gi"),
			},
		},
	}
}

// NewDatabase installs a single-primary PostgreSQL or MySQL release named
// {app}-db whose credentials live in the {app}-db secret.
func NewDatabase(ctx *pulumi.Context, name string, args DatabaseArgs, opts ...pulumi.ResourceOption) (*Database, error) {
	if args.App == "" {
		return nil, fmt.Errorf("database app name is required")
	}
	if args.Namespace == nil {
		return nil, fmt.Errorf("database namespace is required")
	}
	engine, spec, err := args.engine()
	if err != nil {
		return nil, err
	}

	db := &Database{
		Engine:          engine,
		SecretName:      naming.DatabaseSecretName(args.App),
		UserPasswordKey: spec.userKey,
		Port:            spec.port,
		DatabaseName:    defaultString(args.Database, args.App),
		Username:        defaultString(args.Username, args.App),
	}
	if err := ctx.RegisterComponentResource(componentType("Database"), name, db, opts...); err != nil {
		return nil, err
	}

	releaseScope := inNamespace(db, naming.DatabaseRelease(args.App), args.Namespace)

	existingSecret := args.RootPassword != nil
	if existingSecret {
		password := args.Password
		if password == nil {
			password = args.RootPassword
		}
		secret, err := resources.NewSecret(ctx, resources.SecretOptions{
			ScopedOptions: inNamespace(db, db.SecretName, args.Namespace),
			Data: map[string]pulumi.StringInput{
				spec.rootKey: args.RootPassword,
				spec.userKey: password,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create database secret: %w", err)
		}
		db.Secret = secret
		releaseScope.After = secret
	}

	release, err := resources.NewHelmRelease(ctx, resources.ReleaseOptions{
		ScopedOptions: releaseScope,
		Chart:         helm.GetChartSpec(spec.chart, args.Chart),
		Defaults:      databaseValues(args, db.SecretName, existingSecret),
		Values:        args.Values,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create database release: %w", err)
	}
	db.Release = release

	// fullnameOverride makes the primary service share the release name.
	db.Host = pulumi.Sprintf("%s.%s.svc.cluster.local", db.SecretName, args.Namespace)

	if err := ctx.RegisterResourceOutputs(db, pulumi.Map{
		"host":       db.Host,
		"secretName": pulumi.String(db.SecretName),
		"port":       pulumi.Int(db.Port),
	}); err != nil {
		return nil, err
	}
	return db, nil
}
