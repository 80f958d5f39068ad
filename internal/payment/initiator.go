package payment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/medipause/certserve/internal/intake"
	"github.com/medipause/certserve/internal/observability"
	"github.com/medipause/certserve/internal/pricing"
	"github.com/medipause/certserve/model"
)

const (
	productName = "Consultation médicale en ligne"
	currency    = "eur"
)

// Initiator validates a submission, computes the charge server-side, and
// opens a checkout session at the processor. The client-displayed price is
// never trusted; a mismatch is logged and the recomputed amount is charged.
type Initiator struct {
	processor  Processor
	successURL string
	cancelURL  string
	log        *zap.Logger
}

// NewInitiator builds an initiator. successURL and cancelURL are where the
// processor sends the user back after payment.
func NewInitiator(processor Processor, successURL, cancelURL string, log *zap.Logger) *Initiator {
	return &Initiator{
		processor:  processor,
		successURL: successURL,
		cancelURL:  cancelURL,
		log:        log,
	}
}

// Initiate validates the submission and creates the checkout session. A
// validation failure surfaces as the validator's envelope; a processor
// failure surfaces as a single PAYMENT_SESSION_ERROR with the cause logged,
// and no retry is attempted.
func (i *Initiator) Initiate(ctx context.Context, req *model.IntakeRequest) (*Session, error) {
	if envErr := intake.Validate(req); envErr != nil {
		return nil, envErr
	}
	rng, err := intake.Range(req)
	if err != nil {
		// Unreachable after Validate, but a malformed range must never
		// reach the pricing of a real charge.
		return nil, model.NewValidationError([]model.FieldError{{
			Field: "startDate", Code: model.FieldBadDateFormat, Message: intake.MsgBadDate,
		}})
	}

	amount := pricing.Price(req.OptionFlags(), rng)
	if clientCents, perr := pricing.ParseEuros(req.FinalPrice); perr == nil && clientCents != amount {
		i.log.Warn("client price disagrees with server price",
			zap.Int64("client_cents", clientCents),
			zap.Int64("server_cents", amount))
	}

	metadata, err := EncodeMetadata(req, amount)
	if err != nil {
		i.log.Error("encoding session metadata failed", zap.Error(err))
		return nil, model.NewPaymentSessionError()
	}

	spanCtx, span := observability.StartSpan(ctx, "payment.create_session")
	session, err := i.processor.CreateSession(spanCtx, &SessionRequest{
		AmountCents:   amount,
		Currency:      currency,
		ProductName:   productName,
		Description:   fmt.Sprintf("Consultation du %s au %s", req.StartDate, req.EndDate),
		CustomerEmail: req.Email,
		SuccessURL:    i.successURL,
		CancelURL:     i.cancelURL,
		Metadata:      metadata,
	})
	if err != nil {
		observability.EndSpanWithError(span, err)
		i.log.Error("checkout session creation failed", zap.Error(err))
		return nil, model.NewPaymentSessionError()
	}
	span.SetAttributes(observability.AttrSessionID.String(session.ID))
	observability.EndSpanWithError(span, nil)

	i.log.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.Int64("amount_cents", amount))
	return session, nil
}
