package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medipause/certserve/model"
)

func validRequest() *model.IntakeRequest {
	return &model.IntakeRequest{
		Firstname:       "Claire",
		Lastname:        "Moreau",
		Email:           "claire.moreau@example.com",
		Phone:           "0612345678",
		Birthdate:       "14/02/1990",
		Address:         "12 rue des Lilas, 75011 Paris",
		Profession:      "Comptable",
		Symptoms:        []string{"fievre", "fatigue"},
		SymptomDuration: "3-5 jours",
		StartDate:       "10/03/2025",
		EndDate:         "12/03/2025",
		FinalPrice:      "29.99",
	}
}

func TestValidateAcceptsCompleteSubmission(t *testing.T) {
	assert.Nil(t, Validate(validRequest()))
}

func TestValidateMissingFields(t *testing.T) {
	req := validRequest()
	req.Firstname = ""
	req.Phone = "   "

	envErr := Validate(req)
	require.NotNil(t, envErr)
	assert.Equal(t, model.ErrValidationError, envErr.Code)
	assert.Equal(t, MsgMissingFields, envErr.Message)

	require.Len(t, envErr.Details, 2)
	assert.Equal(t, "firstname", envErr.Details[0].Field)
	assert.Equal(t, "phone", envErr.Details[1].Field)
	for _, d := range envErr.Details {
		assert.Equal(t, model.FieldMissing, d.Code)
	}
}

func TestValidateConditionalSSN(t *testing.T) {
	req := validRequest()
	req.SSN = true

	envErr := Validate(req)
	require.NotNil(t, envErr)
	assert.Equal(t, "ssnNumber", envErr.Details[0].Field)

	req.SSNNumber = "290027512345678"
	assert.Nil(t, Validate(req))
}

func TestValidateConditionalOtherSymptoms(t *testing.T) {
	req := validRequest()
	req.Symptoms = append(req.Symptoms, "other")

	envErr := Validate(req)
	require.NotNil(t, envErr)
	assert.Equal(t, "otherSymptoms", envErr.Details[0].Field)

	req.OtherSymptoms = "Vertiges au réveil"
	assert.Nil(t, Validate(req))
}

func TestValidateEmailFormat(t *testing.T) {
	for _, bad := range []string{"plainaddress", "a b@x.fr", "x@nodot", "@missing.fr"} {
		req := validRequest()
		req.Email = bad
		envErr := Validate(req)
		require.NotNil(t, envErr, bad)
		assert.Equal(t, MsgBadEmail, envErr.Message, bad)
		assert.Equal(t, model.FieldBadEmailFormat, envErr.Details[0].Code, bad)
	}
}

func TestValidateDateFormat(t *testing.T) {
	req := validRequest()
	req.StartDate = "2025-03-10" // ISO instead of dd/mm/yyyy
	envErr := Validate(req)
	require.NotNil(t, envErr)
	assert.Equal(t, MsgBadDate, envErr.Message)
	assert.Equal(t, "startDate", envErr.Details[0].Field)

	req = validRequest()
	req.EndDate = "32/03/2025"
	envErr = Validate(req)
	require.NotNil(t, envErr)
	assert.Equal(t, "endDate", envErr.Details[0].Field)
}

func TestValidateInvertedRange(t *testing.T) {
	req := validRequest()
	req.StartDate = "12/03/2025"
	req.EndDate = "10/03/2025"

	envErr := Validate(req)
	require.NotNil(t, envErr)
	assert.Equal(t, MsgRangeInverted, envErr.Message)
	assert.Equal(t, model.FieldDateRangeInverted, envErr.Details[0].Code)
}

func TestValidateSingleDayRangeAllowed(t *testing.T) {
	req := validRequest()
	req.StartDate = "10/03/2025"
	req.EndDate = "10/03/2025"
	assert.Nil(t, Validate(req))
}

func TestValidateDeterministicFirstMessage(t *testing.T) {
	// Presence errors are reported before format errors, in form order.
	req := validRequest()
	req.Email = "not-an-email"
	req.Lastname = ""

	envErr := Validate(req)
	require.NotNil(t, envErr)
	assert.Equal(t, MsgMissingFields, envErr.Message)
	assert.Equal(t, "lastname", envErr.Details[0].Field)
}

func TestRange(t *testing.T) {
	rng, err := Range(validRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, rng.Days())

	bad := validRequest()
	bad.EndDate = "garbage"
	_, err = Range(bad)
	assert.Error(t, err)
}
