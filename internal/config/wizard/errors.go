package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errDomainInvalid  = errors.New("domain must look like example.com")
	errEmailInvalid   = errors.New("email must be a valid address")
	errStackInvalid   = errors.New("stack must be 1-100 letters, digits, '-', '_' or '.'")
	errBackendInvalid = errors.New("backend must start with s3://, file://, https://, gs:// or azblob://")
)
