package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Microsite domain errors
var (
	ErrSubdomainTaken   = errors.New("subdomain taken")
	ErrInvalidSubdomain = errors.New("invalid subdomain")
	ErrOrphanedRow      = errors.New("orphaned row")
	ErrOrphanedBlob     = errors.New("orphaned blob")
	ErrPartialFailure   = errors.New("partial failure")
	ErrStorage          = errors.New("storage operation failed")
	ErrProjectMismatch  = errors.New("project mismatch")
)

const (
	subdomainTakenMessage   = "This subdomain is already taken"
	invalidSubdomainMessage = "Subdomain can only have lowercase letters, numbers, and hyphens. Please try again."
)

func NewSubdomainTakenError(slug string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        errors.New(subdomainTakenMessage),
		kind:       ErrSubdomainTaken,
		Field:      "subdomain",
		Details:    slug,
	}
}

func NewInvalidSubdomainError(raw string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        errors.New(invalidSubdomainMessage),
		kind:       ErrInvalidSubdomain,
		Field:      "subdomain",
	}
}

// NewOrphanedRowError reports that the object behind a row was removed but the
// row itself could not be deleted. Operators reconcile these by hand.
func NewOrphanedRowError(entity, id string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        fmt.Errorf("%s %s points at a removed object", entity, id),
		kind:       ErrOrphanedRow,
		Field:      "orphaned_row",
		Cause:      cause,
	}
}

// NewOrphanedBlobError reports an uploaded object whose row insert failed and
// whose compensating removal failed as well.
func NewOrphanedBlobError(bucket, key string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        fmt.Errorf("object %s/%s was uploaded but not recorded", bucket, key),
		kind:       ErrOrphanedBlob,
		Field:      "orphaned_blob",
		Cause:      cause,
	}
}

func NewPartialFailureError(operation string, failedSteps []string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrPartialFailure,
		Details:    fmt.Sprintf("%s partially failed: %s", operation, strings.Join(failedSteps, ", ")),
		Field:      "partial_failure",
		Cause:      cause,
	}
}

func NewStorageError(operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrStorage,
		Details:    fmt.Sprintf("STORAGE: %s", operation),
		Cause:      cause,
	}
}

// NewProjectMismatchError is returned when a batch references rows owned by
// another project. code is IMAGE_PROJECT_MISMATCH or ASSET_PROJECT_MISMATCH.
func NewProjectMismatchError(code string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        errors.New(code),
		kind:       ErrProjectMismatch,
	}
}

func IsSubdomainTaken(err error) bool {
	return errors.Is(err, ErrSubdomainTaken)
}

func IsOrphanedRow(err error) bool {
	return errors.Is(err, ErrOrphanedRow)
}

func IsOrphanedBlob(err error) bool {
	return errors.Is(err, ErrOrphanedBlob)
}

func IsPartialFailureError(err error) bool {
	return errors.Is(err, ErrPartialFailure)
}
