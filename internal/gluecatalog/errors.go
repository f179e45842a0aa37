package gluecatalog

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/aws/smithy-go"
)

// Glue error codes reported in BatchCreatePartition entries.
const (
	CodeAlreadyExists = "AlreadyExistsException"
	CodeNotFound      = "EntityNotFoundException"
	CodeInvalidInput  = "InvalidInputException"
)

// IsAlreadyExists reports whether err means the entity already exists.
func IsAlreadyExists(err error) bool {
	var target *types.AlreadyExistsException
	return errors.As(err, &target)
}

// IsNotFound reports whether err means the entity does not exist.
func IsNotFound(err error) bool {
	var target *types.EntityNotFoundException
	return errors.As(err, &target)
}

// IsInvalidInput reports whether Glue rejected the request as malformed.
func IsInvalidInput(err error) bool {
	var target *types.InvalidInputException
	return errors.As(err, &target)
}

// ErrorCode returns the service error code carried by err, or "" when err
// did not come from the Glue API.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// PartitionErrorCode returns the error code of a BatchCreatePartition entry.
func PartitionErrorCode(pe types.PartitionError) string {
	if pe.ErrorDetail == nil || pe.ErrorDetail.ErrorCode == nil {
		return ""
	}
	return *pe.ErrorDetail.ErrorCode
}
