package transport

import (
	"io"
	"net/http"

	"github.com/medipause/certserve/internal/fulfillment"
	"github.com/medipause/certserve/model"
)

// maxNotificationBytes bounds the raw webhook body. The signature covers the
// exact bytes, so the body is read whole before any parsing.
const maxNotificationBytes = 1 << 20

// handlePaymentWebhook verifies and acknowledges payment notifications.
// Only a bad signature or an unparseable body produce a 400; every verified
// notification is acknowledged promptly and fulfilled in the background, so
// a slow renderer or mail server never makes the sender see a failure.
func (h *Handlers) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBytes))
	if err != nil {
		WriteError(w, model.NewBadRequestError("unreadable notification body"))
		return
	}

	if err := h.pipeline.Accept(r.Header.Get(fulfillment.SignatureHeader), body); err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
