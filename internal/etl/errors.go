package etl

import (
	"errors"
	"fmt"

	"github.com/skincare-catalog/backend/internal/retailers"
)

var (
	ErrMalformedPayload = retailers.ErrMalformedPayload
	ErrMissingField     = retailers.ErrMissingField
	ErrUnknownRetailer  = errors.New("unknown retailer")
)

// FailureKind classifies why a row was dropped from a batch.
type FailureKind string

const (
	FailureMalformedPayload FailureKind = "malformed_payload"
	FailureUnknownRetailer  FailureKind = "unknown_retailer"
	FailureMissingField     FailureKind = "missing_field"
	FailurePanic            FailureKind = "panic"
	FailureOther            FailureKind = "other"
)

// ExtractionError is a per-row failure. The row is dropped; the batch continues.
type ExtractionError struct {
	OfferID  string
	Retailer string
	Kind     FailureKind
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("offer %s (%s): %s: %v", e.OfferID, e.Retailer, e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func newExtractionError(offerID, retailer string, err error) *ExtractionError {
	kind := FailureOther
	switch {
	case errors.Is(err, ErrMalformedPayload):
		kind = FailureMalformedPayload
	case errors.Is(err, ErrUnknownRetailer):
		kind = FailureUnknownRetailer
	case errors.Is(err, ErrMissingField):
		kind = FailureMissingField
	}
	return &ExtractionError{OfferID: offerID, Retailer: retailer, Kind: kind, Err: err}
}

// LoadError means the whole batch was rolled back and nothing was marked synced.
type LoadError struct {
	Records int
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load of %d records rolled back: %v", e.Records, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
