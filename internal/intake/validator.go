// Package intake validates raw wizard submissions on the server. It mirrors
// the wizard's own gating so a well-behaved client never sees a rejection
// here, but every rule is re-checked because the payload crosses a trust
// boundary.
package intake

import (
	"regexp"
	"strings"
	"time"

	"github.com/medipause/certserve/model"
)

// User-facing messages, kept identical to what the form displays.
const (
	MsgMissingFields = "Certains champs requis sont manquants."
	MsgBadEmail      = "Format d'email invalide."
	MsgBadDate       = "Format de date invalide."
	MsgRangeInverted = "La date de fin doit être postérieure à la date de début."
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// requiredFields lists the unconditionally required fields in form order.
// The order fixes the order of reported field errors.
var requiredFields = []string{
	"firstname", "lastname", "email", "phone", "birthdate",
	"address", "profession", "symptoms", "symptomDuration",
	"startDate", "endDate",
}

// Validate checks a submission and returns a VALIDATION_ERROR envelope
// listing every failing field, or nil. The checks run in a fixed order:
// presence first, then formats, then the range relation, so the same input
// always produces the same first message.
func Validate(req *model.IntakeRequest) *model.ErrorEnvelope {
	var details []model.FieldError

	for _, f := range requiredFields {
		if strings.TrimSpace(fieldValue(req, f)) == "" {
			details = append(details, missing(f))
		}
	}
	if req.SSN && strings.TrimSpace(req.SSNNumber) == "" {
		details = append(details, missing("ssnNumber"))
	}
	if hasSymptom(req, "other") && strings.TrimSpace(req.OtherSymptoms) == "" {
		details = append(details, missing("otherSymptoms"))
	}
	if len(details) > 0 {
		return model.NewValidationError(details)
	}

	if !emailPattern.MatchString(strings.TrimSpace(req.Email)) {
		details = append(details, model.FieldError{
			Field: "email", Code: model.FieldBadEmailFormat, Message: MsgBadEmail,
		})
	}
	start, startErr := time.Parse(model.DateFormat, strings.TrimSpace(req.StartDate))
	if startErr != nil {
		details = append(details, badDate("startDate"))
	}
	end, endErr := time.Parse(model.DateFormat, strings.TrimSpace(req.EndDate))
	if endErr != nil {
		details = append(details, badDate("endDate"))
	}
	if len(details) > 0 {
		return model.NewValidationError(details)
	}

	if end.Before(start) {
		return model.NewValidationError([]model.FieldError{{
			Field: "endDate", Code: model.FieldDateRangeInverted, Message: MsgRangeInverted,
		}})
	}
	return nil
}

// Range parses the leave period of an already validated submission.
func Range(req *model.IntakeRequest) (*model.DateRange, error) {
	start, err := time.Parse(model.DateFormat, strings.TrimSpace(req.StartDate))
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(model.DateFormat, strings.TrimSpace(req.EndDate))
	if err != nil {
		return nil, err
	}
	return &model.DateRange{Start: start, End: end}, nil
}

func missing(field string) model.FieldError {
	return model.FieldError{Field: field, Code: model.FieldMissing, Message: MsgMissingFields}
}

func badDate(field string) model.FieldError {
	return model.FieldError{Field: field, Code: model.FieldBadDateFormat, Message: MsgBadDate}
}

func hasSymptom(req *model.IntakeRequest, s string) bool {
	for _, v := range req.Symptoms {
		if strings.TrimSpace(v) == s {
			return true
		}
	}
	return false
}

func fieldValue(req *model.IntakeRequest, field string) string {
	switch field {
	case "firstname":
		return req.Firstname
	case "lastname":
		return req.Lastname
	case "email":
		return req.Email
	case "phone":
		return req.Phone
	case "birthdate":
		return req.Birthdate
	case "address":
		return req.Address
	case "profession":
		return req.Profession
	case "symptoms":
		return strings.Join(req.Symptoms, ",")
	case "symptomDuration":
		return req.SymptomDuration
	case "startDate":
		return req.StartDate
	case "endDate":
		return req.EndDate
	default:
		return ""
	}
}
