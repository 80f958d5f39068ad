// Package document renders the medical certificate: an HTML template filled
// from the submission, converted to PDF by an external rendering service.
package document

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/medipause/certserve/model"
)

// AttachmentFilename is the name the certificate carries in the delivery
// email.
const AttachmentFilename = "certificat-medical.pdf"

var certificateTmpl = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #1a1a2e; margin: 40px; }
  h1 { font-size: 22px; text-align: center; text-transform: uppercase; letter-spacing: 2px; }
  .header { border-bottom: 2px solid #1a1a2e; padding-bottom: 12px; margin-bottom: 24px; }
  .brand { font-size: 16px; font-weight: bold; }
  .urgent { color: #c0392b; font-weight: bold; text-align: center; margin: 12px 0; }
  .section { margin: 16px 0; }
  .section h2 { font-size: 14px; text-transform: uppercase; border-bottom: 1px solid #ccc; padding-bottom: 4px; }
  table { width: 100%; border-collapse: collapse; }
  td { padding: 4px 8px; vertical-align: top; }
  td.label { width: 40%; color: #555; }
  .footer { margin-top: 40px; font-size: 11px; color: #777; text-align: center; }
</style>
</head>
<body>
  <div class="header">
    <div class="brand">MediPause</div>
    <div>Service de consultation médicale en ligne</div>
  </div>

  <h1>Certificat médical</h1>
  {{if .Urgent}}<div class="urgent">TRAITEMENT URGENT</div>{{end}}

  <div class="section">
    <h2>Patient</h2>
    <table>
      <tr><td class="label">Nom</td><td>{{.Lastname}}</td></tr>
      <tr><td class="label">Prénom</td><td>{{.Firstname}}</td></tr>
      <tr><td class="label">Date de naissance</td><td>{{.Birthdate}}</td></tr>
      <tr><td class="label">Adresse</td><td>{{.Address}}</td></tr>
      <tr><td class="label">Profession</td><td>{{.Profession}}</td></tr>
      {{if .SSNNumber}}<tr><td class="label">N° de sécurité sociale</td><td>{{.SSNNumber}}</td></tr>{{end}}
    </table>
  </div>

  <div class="section">
    <h2>Arrêt de travail</h2>
    <p>Je soussigné(e), certifie avoir examiné ce jour le patient désigné
    ci-dessus et atteste que son état de santé justifie un arrêt de travail
    du <strong>{{.StartDate}}</strong> au <strong>{{.EndDate}}</strong> inclus.</p>
  </div>

  <div class="section">
    <h2>Motif</h2>
    <table>
      <tr><td class="label">Symptômes</td><td>{{.Symptoms}}</td></tr>
      {{if .OtherSymptoms}}<tr><td class="label">Précisions</td><td>{{.OtherSymptoms}}</td></tr>{{end}}
      <tr><td class="label">Durée des symptômes</td><td>{{.SymptomDuration}}</td></tr>
      {{if .HealthCenter}}<tr><td class="label">Centre de santé</td><td>{{.HealthCenter}}</td></tr>{{end}}
    </table>
  </div>

  {{if .MedicalHistory}}
  <div class="section">
    <h2>Antécédents médicaux</h2>
    <p>{{.MedicalHistory}}</p>
  </div>
  {{end}}

  {{if .AdditionalNotes}}
  <div class="section">
    <h2>Remarques</h2>
    <p>{{.AdditionalNotes}}</p>
  </div>
  {{end}}

  <div class="footer">
    Certificat établi le {{.IssuedAt}} &middot; MediPause &middot; support@medipause.com
  </div>
</body>
</html>
`))

type certificateData struct {
	Firstname       string
	Lastname        string
	Birthdate       string
	Address         string
	Profession      string
	SSNNumber       string
	StartDate       string
	EndDate         string
	Symptoms        string
	OtherSymptoms   string
	SymptomDuration string
	HealthCenter    string
	MedicalHistory  string
	AdditionalNotes string
	Urgent          bool
	IssuedAt        string
}

// BuildCertificateHTML fills the certificate template from a submission. The
// SSN line only appears when the option was purchased, and the urgency
// marker only when urgent treatment was requested.
func BuildCertificateHTML(req *model.IntakeRequest, issuedAt time.Time) ([]byte, error) {
	data := certificateData{
		Firstname:       req.Firstname,
		Lastname:        req.Lastname,
		Birthdate:       req.Birthdate,
		Address:         req.Address,
		Profession:      req.Profession,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Symptoms:        strings.Join(req.Symptoms, ", "),
		OtherSymptoms:   req.OtherSymptoms,
		SymptomDuration: req.SymptomDuration,
		HealthCenter:    req.HealthCenter,
		MedicalHistory:  req.MedicalHistory,
		AdditionalNotes: req.AdditionalNotes,
		Urgent:          req.Urgent,
		IssuedAt:        issuedAt.Format(model.DateFormat),
	}
	if req.SSN {
		data.SSNNumber = req.SSNNumber
	}

	var buf bytes.Buffer
	if err := certificateTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("document: executing certificate template: %w", err)
	}
	return buf.Bytes(), nil
}
