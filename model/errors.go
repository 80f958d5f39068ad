package model

import "fmt"

// Standard error codes.
const (
	ErrBadRequest      = "BAD_REQUEST"
	ErrNotFound        = "NOT_FOUND"
	ErrConflict        = "CONFLICT"
	ErrValidationError = "VALIDATION_ERROR"
	ErrInternalError   = "INTERNAL_ERROR"
)

// Payment and fulfillment error codes.
const (
	ErrPaymentSession     = "PAYMENT_SESSION_ERROR"
	ErrSignatureInvalid   = "SIGNATURE_INVALID"
	ErrMetadataDecode     = "METADATA_DECODE_ERROR"
	ErrDocumentGeneration = "DOCUMENT_GENERATION_ERROR"
	ErrDelivery           = "DELIVERY_ERROR"
)

// Field-level validation codes.
const (
	FieldMissing           = "MISSING_FIELD"
	FieldBadEmailFormat    = "BAD_EMAIL_FORMAT"
	FieldBadDateFormat     = "BAD_DATE_FORMAT"
	FieldDateRangeInverted = "DATE_RANGE_INVERTED"
)

// ErrorEnvelope is the standard error returned by the service. The JSON
// shape matches the public intake API contract: the message is exposed as
// "error" and the machine code as "code".
type ErrorEnvelope struct {
	Code    string       `json:"code"`
	Message string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewBadRequestError returns a BAD_REQUEST error.
func NewBadRequestError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrBadRequest, Message: msg}
}

// NewValidationError returns a VALIDATION_ERROR. The message of the first
// field error doubles as the envelope message so the intake endpoint can
// surface a single localized string, the way the original form expects it.
func NewValidationError(details []FieldError) *ErrorEnvelope {
	msg := "Un ou plusieurs champs sont invalides."
	if len(details) > 0 {
		msg = details[0].Message
	}
	return &ErrorEnvelope{
		Code:    ErrValidationError,
		Message: msg,
		Details: details,
	}
}

// NewPaymentSessionError returns a PAYMENT_SESSION_ERROR. The underlying
// processor failure is logged, never exposed to the client.
func NewPaymentSessionError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrPaymentSession,
		Message: "Impossible de créer la session de paiement. Veuillez réessayer.",
	}
}

// NewSignatureInvalidError returns a SIGNATURE_INVALID error.
func NewSignatureInvalidError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrSignatureInvalid, Message: msg}
}

// NewMetadataDecodeError returns a METADATA_DECODE_ERROR.
func NewMetadataDecodeError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrMetadataDecode, Message: msg}
}

// NewDocumentGenerationError returns a DOCUMENT_GENERATION_ERROR.
func NewDocumentGenerationError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrDocumentGeneration, Message: msg}
}

// NewDeliveryError returns a DELIVERY_ERROR.
func NewDeliveryError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrDelivery, Message: msg}
}

// NewInternalError returns an INTERNAL_ERROR.
func NewInternalError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrInternalError,
		Message: "Une erreur interne est survenue.",
	}
}
