package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackendURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    *Backend
		wantErr string
	}{
		{
			name: "bucket only",
			raw:  "s3://state",
			want: &Backend{Bucket: "state"},
		},
		{
			name: "prefix and region",
			raw:  "s3://state/teams/web/?region=eu-west-1",
			want: &Backend{Bucket: "state", Prefix: "teams/web", Region: "eu-west-1"},
		},
		{
			name: "endpoint without scheme",
			raw:  "s3://state?region=fsn1&endpoint=fsn1.your-objectstorage.com&s3ForcePathStyle=true",
			want: &Backend{Bucket: "state", Region: "fsn1", Endpoint: "https://fsn1.your-objectstorage.com", PathStyle: true},
		},
		{
			name: "endpoint with scheme",
			raw:  "s3://state?endpoint=http://localhost:9000",
			want: &Backend{Bucket: "state", Endpoint: "http://localhost:9000"},
		},
		{name: "wrong scheme", raw: "gs://state", wantErr: "not an s3:// URL"},
		{name: "no bucket", raw: "s3:///prefix", wantErr: "has no bucket"},
		{name: "bad path style", raw: "s3://state?s3ForcePathStyle=maybe", wantErr: "invalid s3ForcePathStyle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseBackendURL(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBackend_StacksPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".pulumi/stacks/", (&Backend{Bucket: "b"}).StacksPrefix())
	assert.Equal(t, "teams/web/.pulumi/stacks/", (&Backend{Bucket: "b", Prefix: "teams/web"}).StacksPrefix())
}
