package testing

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/pulumi/pulumi/sdk/v3/go/common/resource"
)

// TestContext returns a context with a reasonable timeout for tests.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Lookup walks nested properties along path, unwrapping secrets and outputs
// on the way. Numeric keys index arrays. Missing keys yield a null value.
func Lookup(props resource.PropertyMap, path ...string) resource.PropertyValue {
	v := resource.NewObjectProperty(props)
	for _, key := range path {
		v = unwrap(v)
		next, ok := step(v, key)
		if !ok {
			return resource.NewNullProperty()
		}
		v = next
	}
	return unwrap(v)
}

func step(v resource.PropertyValue, key string) (resource.PropertyValue, bool) {
	switch {
	case v.IsObject():
		next, ok := v.ObjectValue()[resource.PropertyKey(key)]
		return next, ok
	case v.IsArray():
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(v.ArrayValue()) {
			return resource.PropertyValue{}, false
		}
		return v.ArrayValue()[i], true
	default:
		return resource.PropertyValue{}, false
	}
}

// LookupString returns the string at path, or "" when absent.
func LookupString(props resource.PropertyMap, path ...string) string {
	v := Lookup(props, path...)
	if v.IsString() {
		return v.StringValue()
	}
	return ""
}

// IsSecret reports whether the value at path is marked secret, either
// itself or through a secret container on the way to it.
func IsSecret(props resource.PropertyMap, path ...string) bool {
	v := resource.NewObjectProperty(props)
	for _, key := range path {
		next, ok := step(unwrap(v), key)
		if !ok {
			return false
		}
		if markedSecret(next) {
			return true
		}
		v = next
	}
	return v.ContainsSecrets()
}

func markedSecret(v resource.PropertyValue) bool {
	for {
		switch {
		case v.IsSecret():
			return true
		case v.IsOutput():
			if v.OutputValue().Secret {
				return true
			}
			v = v.OutputValue().Element
		default:
			return false
		}
	}
}

func unwrap(v resource.PropertyValue) resource.PropertyValue {
	for {
		switch {
		case v.IsSecret():
			v = v.SecretValue().Element
		case v.IsOutput():
			v = v.OutputValue().Element
		default:
			return v
		}
	}
}
