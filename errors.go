package sia

import "github.com/hugr-lab/sia-go/dalerr"

// Error kinds returned by the client. They are re-exported from dalerr so
// callers can match them without importing it.
type (
	ValidationError    = dalerr.ValidationError
	ConfigurationError = dalerr.ConfigurationError
	ServiceError       = dalerr.ServiceError
	QueryError         = dalerr.QueryError
	FormatError        = dalerr.FormatError
	MissingFieldError  = dalerr.MissingFieldError
)

// Sentinels for errors.Is.
var (
	ErrValidation    = dalerr.ErrValidation
	ErrConfiguration = dalerr.ErrConfiguration
	ErrService       = dalerr.ErrService
	ErrQuery         = dalerr.ErrQuery
	ErrFormat        = dalerr.ErrFormat
	ErrMissingField  = dalerr.ErrMissingField
)
