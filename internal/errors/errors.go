package errors

import "errors"

var (
	ErrExternalService       = errors.New("external service call failed")
	ErrConfigurationNotFound = errors.New("build configuration not found")
	ErrEntityNotRegistered   = errors.New("entity not registered in catalog")
	ErrNotFound              = errors.New("resource not found")
	ErrBulkOperationFailed   = errors.New("one or more bulk operations failed")
	ErrDefaultTargetRequired = errors.New("default deployment target configuration is required")
	ErrInvalidEntityRef      = errors.New("invalid entity reference format")
)
