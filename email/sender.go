// Package email sends account-lifecycle mail. Delivery failures are logged by
// callers but never surfaced to clients, so mail problems cannot be used to
// probe which addresses are registered.
package email

import (
	"bytes"
	"html/template"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

// Sender is the narrow interface the auth service depends on.
type Sender interface {
	SendVerificationEmail(to, name, link string) error
	SendPasswordResetEmail(to, name, link string) error
}

var _ Sender = (*SMTPSender)(nil)

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

var verificationTemplate = template.Must(template.New("verification").Parse(`
<p>Hi {{.Name}},</p>
<p>Welcome to Storytail! Please confirm your email address so we can keep your
stories safe:</p>
<p><a href="{{.Link}}">Verify my email</a></p>
<p>This link expires in 24 hours. If you didn't create a Storytail account,
you can ignore this message.</p>
`))

var resetTemplate = template.Must(template.New("reset").Parse(`
<p>Hi {{.Name}},</p>
<p>Someone asked to reset the password for your Storytail account. If it was
you, follow this link within the next hour:</p>
<p><a href="{{.Link}}">Reset my password</a></p>
<p>If you didn't ask for this, your password is unchanged and you can ignore
this message.</p>
`))

func (s *SMTPSender) SendVerificationEmail(to, name, link string) error {
	body, err := render(verificationTemplate, name, link)
	if err != nil {
		return err
	}
	return s.send(to, "Verify your Storytail email address", body)
}

func (s *SMTPSender) SendPasswordResetEmail(to, name, link string) error {
	body, err := render(resetTemplate, name, link)
	if err != nil {
		return err
	}
	return s.send(to, "Reset your Storytail password", body)
}

func (s *SMTPSender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return errors.Wrap(err, "[SMTPSender.send] DialAndSend")
	}
	return nil
}

func render(t *template.Template, name, link string) (string, error) {
	buf := new(bytes.Buffer)
	err := t.Execute(buf, struct{ Name, Link string }{Name: name, Link: link})
	if err != nil {
		return "", errors.Wrap(err, "[email.render] Execute")
	}
	return buf.String(), nil
}
