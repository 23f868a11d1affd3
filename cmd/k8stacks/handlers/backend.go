package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/imamik/k8stacks/internal/config"
	"github.com/imamik/k8stacks/internal/platform/s3"
)

// stateBucket is the subset of the S3 client used for state buckets.
type stateBucket interface {
	EnsureBucket(ctx context.Context, bucket string) (bool, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	CountObjects(ctx context.Context, bucket, prefix string) (int, error)
}

// Factory function variables for the state backend - can be replaced in tests.
var (
	// newStateBucket creates an S3 client for the backend's bucket.
	newStateBucket = func(ctx context.Context, b *s3.Backend) (stateBucket, error) {
		return s3.NewClientForBackend(ctx, b)
	}
)

// BackendInit creates the S3 bucket of an s3:// state backend and enables
// versioning on it.
func BackendInit(ctx context.Context, projectPath, backendURL string) error {
	env, err := loadEnv()
	if err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}

	if backendURL == "" {
		backendURL = env.BackendURL
	}
	if backendURL == "" {
		s, err := loadSession(projectPath)
		if err != nil {
			return err
		}
		backendURL = s.Project.Backend
	}
	if backendURL == "" {
		return fmt.Errorf("no backend configured: pass --url, set %s or add 'backend' to the project file", config.EnvBackendURL)
	}

	backend, err := parseBackend(backendURL, env)
	if err != nil {
		return err
	}

	client, err := newStateBucket(ctx, backend)
	if err != nil {
		return err
	}

	created, err := client.EnsureBucket(ctx, backend.Bucket)
	if err != nil {
		return err
	}
	if created {
		log.Printf("[Backend] Created bucket %s", backend.Bucket)
	} else {
		log.Printf("[Backend] Bucket %s already exists", backend.Bucket)
	}

	fmt.Println()
	fmt.Println("State backend ready.")
	fmt.Println()
	fmt.Printf("  Bucket:     %s\n", backend.Bucket)
	fmt.Printf("  Versioning: enabled\n")
	fmt.Printf("  URL:        %s\n", backendURL)
	fmt.Println()
	return nil
}

// parseBackend parses an s3:// URL, filling region and endpoint from the
// environment when the URL leaves them out.
func parseBackend(backendURL string, env *config.Env) (*s3.Backend, error) {
	backend, err := s3.ParseBackendURL(backendURL)
	if err != nil {
		return nil, err
	}
	if backend.Region == "" {
		backend.Region = env.StateRegion
	}
	if backend.Endpoint == "" {
		backend.Endpoint = env.StateEndpoint
	}
	return backend, nil
}
