// Package mail delivers the rendered certificate to the patient by SMTP.
package mail

import (
	"context"
	"fmt"
	"io"

	gomail "gopkg.in/gomail.v2"

	"github.com/medipause/certserve/internal/document"
	"github.com/medipause/certserve/model"
)

const (
	fromAddress = "support@medipause.com"
	fromName    = "MediPause"
	subject     = "Votre certificat médical - MediPause"
)

// Message is one outbound delivery.
type Message struct {
	To             string
	Subject        string
	HTMLBody       string
	AttachmentName string
	Attachment     []byte
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// BuildCertificateMessage composes the delivery email for a submission with
// the certificate attached.
func BuildCertificateMessage(req *model.IntakeRequest, pdf []byte) *Message {
	body := fmt.Sprintf(`<p>Bonjour %s,</p>
<p>Votre consultation a bien été prise en compte. Vous trouverez votre
certificat médical en pièce jointe, couvrant la période du %s au %s.</p>
<p>Conservez ce document, il pourra vous être demandé par votre employeur
ou votre organisme d'assurance maladie.</p>
<p>Cordialement,<br>L'équipe MediPause</p>`,
		req.Firstname, req.StartDate, req.EndDate)

	return &Message{
		To:             req.Email,
		Subject:        subject,
		HTMLBody:       body,
		AttachmentName: document.AttachmentFilename,
		Attachment:     pdf,
	}
}

// SMTPMailer sends mail over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
}

// NewSMTPMailer builds a mailer for the given SMTP server. secure selects
// implicit TLS (port 465 style) instead of STARTTLS.
func NewSMTPMailer(host string, port int, user, pass string, secure bool) *SMTPMailer {
	d := gomail.NewDialer(host, port, user, pass)
	d.SSL = secure
	return &SMTPMailer{dialer: d}
}

// Send dials the server and sends the message. gomail has no context
// support, so the dial-and-send runs on its own goroutine and the context
// bounds how long we wait for it.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	gm := gomail.NewMessage()
	gm.SetHeader("From", gm.FormatAddress(fromAddress, fromName))
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTMLBody)
	if len(msg.Attachment) > 0 {
		gm.Attach(msg.AttachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(msg.Attachment)
			return err
		}))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.dialer.DialAndSend(gm)
	}()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mail: sending to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mail: sending to %s: %w", msg.To, ctx.Err())
	}
}
