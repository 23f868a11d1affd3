// Package s3 manages the S3-compatible bucket that holds Pulumi state for
// s3:// backends.
//
// The backend URL follows the Pulumi convention:
//
//	s3://bucket/prefix?region=eu-central&endpoint=fsn1.your-objectstorage.com
package s3
