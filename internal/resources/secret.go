package resources

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/GehirnInc/crypt/sha512_crypt"
	corev1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/core/v1"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"golang.org/x/crypto/hkdf"
	k8scorev1 "k8s.io/api/core/v1"

	"github.com/imamik/k8stacks/internal/util/naming"
)

// SecretOptions describes an opaque secret holding either a single Key/Value
// pair or a Data map. The two forms are mutually exclusive.
type SecretOptions struct {
	ScopedOptions

	Key   string
	Value pulumi.StringInput

	Data map[string]pulumi.StringInput

	// Type defaults to Opaque.
	Type string
}

// stringData resolves the single-or-map choice.
func (o SecretOptions) stringData() (pulumi.StringMap, error) {
	single := o.Key != "" || o.Value != nil
	switch {
	case single && len(o.Data) > 0:
		return nil, optionsErrorf("secret", o.Name, "key/value and data are mutually exclusive")
	case single:
		if o.Key == "" || o.Value == nil {
			return nil, optionsErrorf("secret", o.Name, "both key and value are required")
		}
		return pulumi.StringMap{o.Key: o.Value}, nil
	case len(o.Data) > 0:
		data := make(pulumi.StringMap, len(o.Data))
		for k, v := range o.Data {
			data[k] = v
		}
		return data, nil
	default:
		return nil, optionsErrorf("secret", o.Name, "one of key/value or data is required")
	}
}

// NewSecret declares a secret named o.Name. Values are marked secret in state.
func NewSecret(ctx *pulumi.Context, o SecretOptions) (*corev1.Secret, error) {
	if err := o.validate("secret"); err != nil {
		return nil, err
	}
	data, err := o.stringData()
	if err != nil {
		return nil, err
	}

	secretType := o.Type
	if secretType == "" {
		secretType = string(k8scorev1.SecretTypeOpaque)
	}

	return corev1.NewSecret(ctx, o.Name, &corev1.SecretArgs{
		Metadata:   o.metadata(o.Name, o.objectLabels(""), nil),
		Type:       pulumi.String(secretType),
		StringData: data,
	}, o.Options(pulumi.AdditionalSecretOutputs([]string{"data", "stringData"}))...)
}

// BasicAuthOptions describes an htpasswd secret for ingress-nginx basic auth.
type BasicAuthOptions struct {
	ScopedOptions

	Username string
	Password pulumi.StringInput
}

// NewBasicAuthSecret declares a secret named {name}-basic-auth whose "auth" key
// holds a SHA-512-crypt htpasswd line for Username.
func NewBasicAuthSecret(ctx *pulumi.Context, o BasicAuthOptions) (*corev1.Secret, error) {
	if o.Username == "" {
		return nil, optionsErrorf("basic auth secret", o.Name, "username is required")
	}
	if o.Password == nil {
		return nil, optionsErrorf("basic auth secret", o.Name, "password is required")
	}

	username := o.Username
	auth := o.Password.ToStringOutput().ApplyT(func(password string) (string, error) {
		return htpasswd(username, password)
	}).(pulumi.StringOutput)

	scoped := o.ScopedOptions
	scoped.Name = naming.BasicAuthSecretName(o.Name)

	return NewSecret(ctx, SecretOptions{
		ScopedOptions: scoped,
		Key:           "auth",
		Value:         pulumi.ToSecret(auth).(pulumi.StringOutput),
	})
}

// cryptEncoding is the crypt(3) salt alphabet.
var cryptEncoding = base64.NewEncoding("./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz").WithPadding(base64.NoPadding)

// htpasswd renders a single SHA-512-crypt htpasswd entry. The salt is derived
// from the credentials, so the same username and password always render the
// same line and the secret only changes when they do.
func htpasswd(username, password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("empty password for %s", username)
	}
	salt := make([]byte, 12)
	kdf := hkdf.New(sha256.New, []byte(password), []byte(username), []byte("k8stacks basic-auth"))
	if _, err := io.ReadFull(kdf, salt); err != nil {
		return "", fmt.Errorf("failed to derive salt for %s: %w", username, err)
	}
	hash, err := sha512_crypt.New().Generate([]byte(password), []byte("$6$"+cryptEncoding.EncodeToString(salt)))
	if err != nil {
		return "", fmt.Errorf("failed to hash password for %s: %w", username, err)
	}
	return username + ":" + hash, nil
}
