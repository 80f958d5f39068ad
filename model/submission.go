// Package model holds the shared domain types exchanged between the wizard,
// the intake API, the payment initiator, and the fulfillment pipeline.
package model

import "time"

// DateFormat is the wire format for all user-facing dates (French locale).
const DateFormat = "02/01/2006"

// PricingOptions is the fixed set of billable option flags. The surcharge
// for each flag lives in the pricing package; client and server price from
// the same table.
type PricingOptions struct {
	LongLeave   bool `json:"longLeave"`
	PastDate    bool `json:"pastDate"`
	ComplexCase bool `json:"complexCase"`
	Urgent      bool `json:"urgentOption"`
	SSN         bool `json:"ssnOption"`
}

// DateRange is an inclusive leave period. Both bounds are required once the
// range exists; an absent range is represented by a nil *DateRange.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days returns the inclusive day count of the range, never less than 1.
func (r DateRange) Days() int {
	d := int(r.End.Sub(r.Start).Hours()/24) + 1
	if d < 1 {
		return 1
	}
	return d
}

// IntakeRequest is the raw submission payload posted by the wizard. Dates
// arrive as dd/mm/yyyy strings and are only parsed by the validator.
type IntakeRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Birthdate string `json:"birthdate"`

	Address    string `json:"address"`
	Profession string `json:"profession"`

	Symptoms        []string `json:"symptoms"`
	OtherSymptoms   string   `json:"otherSymptoms"`
	SymptomDuration string   `json:"symptomDuration"`
	HealthCenter    string   `json:"healthCenter"`
	MedicalHistory  string   `json:"medicalHistory"`
	AdditionalNotes string   `json:"additionalNotes"`

	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`

	// Option flags are flattened in the JSON body, matching the form's
	// field names rather than a nested object.
	LongLeave   bool `json:"longLeave"`
	PastDate    bool `json:"pastDate"`
	ComplexCase bool `json:"complexCase"`
	Urgent      bool `json:"urgentOption"`
	SSN         bool `json:"ssnOption"`

	SSNNumber string `json:"ssnNumber"`

	// FinalPrice is the client-displayed price in decimal euros. It is a
	// cross-check only; the server always recomputes before charging.
	FinalPrice string `json:"finalPrice"`
}

// OptionFlags collects the flattened option booleans into a PricingOptions.
func (r *IntakeRequest) OptionFlags() PricingOptions {
	return PricingOptions{
		LongLeave:   r.LongLeave,
		PastDate:    r.PastDate,
		ComplexCase: r.ComplexCase,
		Urgent:      r.Urgent,
		SSN:         r.SSN,
	}
}

// Submission is the immutable snapshot of a validated intake plus the price
// computed at freeze time, in euro cents. Once built it is handed to the
// payment initiator and never mutated; recomputing produces a new Submission.
type Submission struct {
	ID         string
	Intake     IntakeRequest
	Range      *DateRange
	PriceCents int64
	FrozenAt   time.Time
}
