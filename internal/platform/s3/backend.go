package s3

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// stacksPrefix is where Pulumi keeps stack checkpoints inside the bucket.
const stacksPrefix = ".pulumi/stacks/"

// Backend is a parsed s3:// state backend URL.
type Backend struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// ParseBackendURL parses an s3:// backend URL. Query parameters region,
// endpoint and s3ForcePathStyle are honoured.
func ParseBackendURL(raw string) (*Backend, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if u.Scheme != "s3" {
		return nil, fmt.Errorf("backend %q is not an s3:// URL", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("backend %q has no bucket", raw)
	}

	q := u.Query()
	b := &Backend{
		Bucket:   u.Host,
		Prefix:   strings.Trim(u.Path, "/"),
		Region:   q.Get("region"),
		Endpoint: q.Get("endpoint"),
	}
	if b.Endpoint != "" && !strings.Contains(b.Endpoint, "://") {
		b.Endpoint = "https://" + b.Endpoint
	}
	if v := q.Get("s3ForcePathStyle"); v != "" {
		b.PathStyle, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid s3ForcePathStyle %q: %w", v, err)
		}
	}
	return b, nil
}

// StacksPrefix returns the object prefix of the stack checkpoints.
func (b *Backend) StacksPrefix() string {
	if b.Prefix == "" {
		return stacksPrefix
	}
	return b.Prefix + "/" + stacksPrefix
}
