package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken      = errors.New("INVALID_TOKEN")
	ErrMissingSignature  = errors.New("MISSING_SIGNATURE")
	ErrInvalidSignature  = errors.New("INVALID_SIGNATURE")
	ErrInvalidPayload    = errors.New("INVALID_PAYLOAD")
	ErrProductNotFound   = errors.New("PRODUCT_NOT_FOUND")
	ErrInvalidProduct    = errors.New("INVALID_PRODUCT")
	ErrInvalidTransition = errors.New("INVALID_STATUS_TRANSITION")
	ErrStorageDisabled   = errors.New("STORAGE_DISABLED")
)
