package transport

import (
	"encoding/json"
	"net/http"

	"github.com/medipause/certserve/model"
)

// handleCreateCheckout validates the submission and opens a checkout session
// at the payment processor. The client only ever receives the redirect URL.
func (h *Handlers) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req model.IntakeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.metrics.RecordCheckoutSession("unparseable")
		WriteError(w, model.NewBadRequestError("corps de requête invalide"))
		return
	}

	session, err := h.initiator.Initiate(r.Context(), &req)
	if err != nil {
		if ee, ok := err.(*model.ErrorEnvelope); ok && ee.Code == model.ErrValidationError {
			h.metrics.RecordCheckoutSession("rejected")
		} else {
			h.metrics.RecordCheckoutSession("error")
		}
		WriteError(w, err)
		return
	}

	h.metrics.RecordCheckoutSession("created")
	WriteJSON(w, http.StatusOK, map[string]string{"url": session.URL})
}
