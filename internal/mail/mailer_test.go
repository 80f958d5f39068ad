package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medipause/certserve/model"
)

func TestBuildCertificateMessage(t *testing.T) {
	req := &model.IntakeRequest{
		Firstname: "Claire",
		Email:     "claire.moreau@example.com",
		StartDate: "10/03/2025",
		EndDate:   "12/03/2025",
	}
	pdf := []byte("%PDF-1.4 fake")

	msg := BuildCertificateMessage(req, pdf)

	assert.Equal(t, "claire.moreau@example.com", msg.To)
	assert.Equal(t, "Votre certificat médical - MediPause", msg.Subject)
	assert.Equal(t, "certificat-medical.pdf", msg.AttachmentName)
	assert.Equal(t, pdf, msg.Attachment)
	assert.Contains(t, msg.HTMLBody, "Bonjour Claire")
	assert.Contains(t, msg.HTMLBody, "du 10/03/2025 au 12/03/2025")
}
