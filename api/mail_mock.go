package api

import (
	"context"
	"sync"

	"boxoffice/entities"
)

type MailMock struct {
	mock sync.Mutex

	Sent []entities.Mail
	Err  error
}

func (m *MailMock) Send(ctx context.Context, mail entities.Mail) error {
	m.mock.Lock()
	defer m.mock.Unlock()

	if m.Err != nil {
		return m.Err
	}

	m.Sent = append(m.Sent, mail)
	return nil
}

func (m *MailMock) SentMails() []entities.Mail {
	m.mock.Lock()
	defer m.mock.Unlock()

	return append([]entities.Mail(nil), m.Sent...)
}
