package model

// EventTypePaymentCompleted is the single event type the fulfillment
// pipeline handles. All other types are acknowledged and ignored.
const EventTypePaymentCompleted = "checkout.session.completed"

// FulfillmentEvent is a verified payment-processor notification. EventID is
// globally unique per logical payment completion; redelivery of the same
// EventID must be a no-op after the first successful processing attempt.
type FulfillmentEvent struct {
	EventID  string            `json:"id"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata"`
}
