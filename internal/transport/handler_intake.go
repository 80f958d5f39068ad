package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/medipause/certserve/internal/intake"
	"github.com/medipause/certserve/internal/observability"
	"github.com/medipause/certserve/internal/pricing"
	"github.com/medipause/certserve/model"
)

// handleValidateIntake re-runs the wizard's validation rules server-side.
// The response mirrors what the form shows inline: 200 with success, or 400
// with the first failing rule's message under "error".
func (h *Handlers) handleValidateIntake(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		h.metrics.RecordIntakeValidation("unparseable")
		WriteError(w, model.NewBadRequestError("corps de requête invalide"))
		return
	}
	var req model.IntakeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.metrics.RecordIntakeValidation("unparseable")
		WriteError(w, model.NewBadRequestError("corps de requête invalide"))
		return
	}

	if envErr := intake.Validate(&req); envErr != nil {
		h.metrics.RecordIntakeValidation("rejected")
		log := observability.LoggerFrom(r.Context(), h.log)
		if ce := log.Check(zap.DebugLevel, "intake rejected"); ce != nil {
			var raw map[string]any
			if json.Unmarshal(body, &raw) == nil {
				ce.Write(
					zap.String("code", envErr.Code),
					zap.Any("fields", observability.RedactBody(raw, nil)),
				)
			}
		}
		WriteError(w, envErr)
		return
	}

	h.metrics.RecordIntakeValidation("accepted")
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// stepsResponse publishes the wizard configuration and the pricing table so
// the client renders and prices from the same source the server charges by.
type stepsResponse struct {
	Steps   []stepDescriptor  `json:"steps"`
	Pricing pricingDescriptor `json:"pricing"`
}

type stepDescriptor struct {
	Position int    `json:"position"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Review   bool   `json:"review,omitempty"`
	Fields   any    `json:"fields,omitempty"`
}

type pricingDescriptor struct {
	BaseCents        int64            `json:"baseCents"`
	OptionSurcharges map[string]int64 `json:"optionSurcharges"`
	DurationTiers    []durationTier   `json:"durationTiers"`
}

// durationTier describes one duration surcharge band. MaxDays of zero means
// unbounded.
type durationTier struct {
	MaxDays        int   `json:"maxDays,omitempty"`
	SurchargeCents int64 `json:"surchargeCents"`
}

func (h *Handlers) handleSteps(w http.ResponseWriter, _ *http.Request) {
	resp := stepsResponse{
		Pricing: pricingDescriptor{
			BaseCents:        pricing.BaseCents,
			OptionSurcharges: pricing.OptionSurcharges(),
			DurationTiers: []durationTier{
				{MaxDays: 3, SurchargeCents: 0},
				{MaxDays: 7, SurchargeCents: pricing.Tier1Cents},
				{MaxDays: 14, SurchargeCents: pricing.Tier2Cents},
				{SurchargeCents: pricing.Tier3Cents},
			},
		},
	}
	for i, st := range h.steps.Steps {
		resp.Steps = append(resp.Steps, stepDescriptor{
			Position: i + 1,
			ID:       st.ID,
			Title:    st.Title,
			Review:   st.Review,
			Fields:   st.Fields,
		})
	}
	WriteJSON(w, http.StatusOK, resp)
}
