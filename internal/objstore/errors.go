package objstore

import "errors"

var (
	// ErrNoEndpoint is returned when the endpoint is empty.
	ErrNoEndpoint = errors.New("object storage endpoint is required")

	// ErrNoCredentials is returned when the access key or secret key is empty.
	ErrNoCredentials = errors.New("object storage access key and secret key are required")

	// ErrNoBucket is returned when the bucket name is empty.
	ErrNoBucket = errors.New("object storage bucket is required")

	// ErrNoRunID is returned when an object is addressed without a run id.
	ErrNoRunID = errors.New("run id is required")

	// ErrNoName is returned when an object is addressed without a name.
	ErrNoName = errors.New("object name is required")
)
