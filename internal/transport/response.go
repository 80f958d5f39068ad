// Package transport contains the HTTP router, middleware chain, and all
// request handlers for the intake and fulfillment API.
package transport

import (
	"encoding/json"
	"net/http"

	"github.com/medipause/certserve/model"
)

// statusForCode maps ErrorEnvelope codes to HTTP status codes.
var statusForCode = map[string]int{
	model.ErrBadRequest:         http.StatusBadRequest,
	model.ErrNotFound:           http.StatusNotFound,
	model.ErrConflict:           http.StatusConflict,
	model.ErrValidationError:    http.StatusBadRequest,
	model.ErrSignatureInvalid:   http.StatusBadRequest,
	model.ErrPaymentSession:     http.StatusBadGateway,
	model.ErrMetadataDecode:     http.StatusUnprocessableEntity,
	model.ErrDocumentGeneration: http.StatusInternalServerError,
	model.ErrDelivery:           http.StatusInternalServerError,
	model.ErrInternalError:      http.StatusInternalServerError,
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// WriteError writes an ErrorEnvelope as a JSON response with the correct
// HTTP status code. The envelope marshals its message under "error", which
// is the shape the form's client expects. If err is not an *ErrorEnvelope,
// a generic 500 is returned.
func WriteError(w http.ResponseWriter, err error) {
	ee, ok := err.(*model.ErrorEnvelope)
	if !ok {
		ee = model.NewInternalError()
	}

	status := statusForCode[ee.Code]
	if status == 0 {
		status = http.StatusInternalServerError
	}

	WriteJSON(w, status, ee)
}
