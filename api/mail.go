package api

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"

	"boxoffice/entities"

	"github.com/domodwyer/mailyak/v3"
)

type MailClient struct {
	addr string
	auth smtp.Auth
	from string
}

func NewMailClient(addr string, user string, password string, from string) (*MailClient, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp address %q: %w", addr, err)
	}

	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, password, host)
	}

	return &MailClient{
		addr: addr,
		auth: auth,
		from: from,
	}, nil
}

func (c *MailClient) Send(ctx context.Context, mail entities.Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mailyak.New(c.addr, c.auth)
	m.To(mail.To)
	m.From(c.from)
	m.Subject(mail.Subject)
	m.HTML().Set(mail.HTML)

	for _, attachment := range mail.Attachments {
		m.AttachWithMimeType(attachment.FileName, bytes.NewReader(attachment.Content), attachment.ContentType)
	}

	if err := m.Send(); err != nil {
		return entities.UpstreamError{Service: "smtp", Err: err}
	}

	return nil
}
