// Package payment turns a validated submission into a checkout session at
// the external payment processor and carries the submission across the
// payment boundary as flat session metadata.
package payment

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/medipause/certserve/internal/pricing"
	"github.com/medipause/certserve/model"
)

// The processor only accepts flat string pairs, so the symptom list travels
// JSON-encoded and booleans travel as "true"/"false". EncodeMetadata and
// DecodeMetadata share this convention; the two sides must never drift.

// requiredMetadataKeys must be present and non-empty on decode. Everything
// else is optional free text or defaults to false/empty.
var requiredMetadataKeys = []string{
	"firstname", "lastname", "email", "startDate", "endDate",
}

// EncodeMetadata projects a submission into the processor's flat metadata.
func EncodeMetadata(req *model.IntakeRequest, priceCents int64) (map[string]string, error) {
	symptoms, err := json.Marshal(req.Symptoms)
	if err != nil {
		return nil, fmt.Errorf("payment: encoding symptoms: %w", err)
	}
	return map[string]string{
		"firstname":       req.Firstname,
		"lastname":        req.Lastname,
		"email":           req.Email,
		"phone":           req.Phone,
		"birthdate":       req.Birthdate,
		"address":         req.Address,
		"profession":      req.Profession,
		"symptoms":        string(symptoms),
		"otherSymptoms":   req.OtherSymptoms,
		"symptomDuration": req.SymptomDuration,
		"startDate":       req.StartDate,
		"endDate":         req.EndDate,
		"longLeave":       strconv.FormatBool(req.LongLeave),
		"pastDate":        strconv.FormatBool(req.PastDate),
		"complexCase":     strconv.FormatBool(req.ComplexCase),
		"urgentOption":    strconv.FormatBool(req.Urgent),
		"ssnOption":       strconv.FormatBool(req.SSN),
		"ssnNumber":       req.SSNNumber,
		"healthCenter":    req.HealthCenter,
		"medicalHistory":  req.MedicalHistory,
		"additionalNotes": req.AdditionalNotes,
		"finalPrice":      pricing.FormatEuros(priceCents),
	}, nil
}

// DecodeMetadata rebuilds the submission from event metadata. A missing
// required key or an undecodable symptom list yields a METADATA_DECODE_ERROR
// so the pipeline can park the event instead of producing a hollow document.
func DecodeMetadata(md map[string]string) (*model.IntakeRequest, error) {
	for _, k := range requiredMetadataKeys {
		if md[k] == "" {
			return nil, model.NewMetadataDecodeError(
				fmt.Sprintf("metadata key %q is missing or empty", k))
		}
	}

	var symptoms []string
	if raw := md["symptoms"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &symptoms); err != nil {
			return nil, model.NewMetadataDecodeError(
				fmt.Sprintf("metadata key %q is not a JSON string array", "symptoms"))
		}
	}

	return &model.IntakeRequest{
		Firstname:       md["firstname"],
		Lastname:        md["lastname"],
		Email:           md["email"],
		Phone:           md["phone"],
		Birthdate:       md["birthdate"],
		Address:         md["address"],
		Profession:      md["profession"],
		Symptoms:        symptoms,
		OtherSymptoms:   md["otherSymptoms"],
		SymptomDuration: md["symptomDuration"],
		StartDate:       md["startDate"],
		EndDate:         md["endDate"],
		LongLeave:       md["longLeave"] == "true",
		PastDate:        md["pastDate"] == "true",
		ComplexCase:     md["complexCase"] == "true",
		Urgent:          md["urgentOption"] == "true",
		SSN:             md["ssnOption"] == "true",
		SSNNumber:       md["ssnNumber"],
		HealthCenter:    md["healthCenter"],
		MedicalHistory:  md["medicalHistory"],
		AdditionalNotes: md["additionalNotes"],
		FinalPrice:      md["finalPrice"],
	}, nil
}
