package mailer

import (
	"io"

	"quizmaster/config"

	"gopkg.in/gomail.v2"
)

// Mailer sends HTML email, optionally with attachments, over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

type Attachment struct {
	Name string
	MIME string
	Data []byte
}

func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *Mailer) Send(to, subject, htmlBody string, attachments ...Attachment) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	for _, attachment := range attachments {
		data := attachment.Data
		msg.Attach(attachment.Name,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{
				"Content-Type": {attachment.MIME},
			}),
		)
	}

	return m.dialer.DialAndSend(msg)
}
