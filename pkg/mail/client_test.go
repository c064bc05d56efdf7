package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/nbox-app/nbox-backend/pkg/config"
)

type stubSender struct {
	impl     *mailgun.MailgunImpl
	lastMsg  *mailgun.Message
	sendErr  error
	sendID   string
	sentMsgs int
}

func (s *stubSender) NewMessage(from, subject, text string, to ...string) *mailgun.Message {
	return s.impl.NewMessage(from, subject, text, to...)
}

func (s *stubSender) Send(_ context.Context, m *mailgun.Message) (string, string, error) {
	s.sentMsgs++
	s.lastMsg = m
	if s.sendErr != nil {
		return "", "", s.sendErr
	}
	return "Queued", s.sendID, nil
}

func newStubClient(stub *stubSender) *Client {
	stub.impl = mailgun.NewMailgun("mg.nbox.app", "key-test")
	return &Client{
		mg:          stub,
		defaultFrom: "Nbox <no-reply@nbox.app>",
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(config.MailgunConfig{APIKey: "key"}, nil); !errors.Is(err, errDomainRequired) {
		t.Fatalf("expected domain error, got %v", err)
	}
	if _, err := NewClient(config.MailgunConfig{Domain: "mg.nbox.app"}, nil); !errors.Is(err, errAPIKeyRequired) {
		t.Fatalf("expected api key error, got %v", err)
	}
	c, err := NewClient(config.MailgunConfig{Domain: "mg.nbox.app", APIKey: "key", DefaultFrom: "Nbox <no-reply@nbox.app>"}, nil)
	if err != nil {
		t.Fatalf("expected client, got %v", err)
	}
	if c.defaultFrom != "Nbox <no-reply@nbox.app>" {
		t.Fatalf("unexpected default from %q", c.defaultFrom)
	}
}

func TestSendTemplate(t *testing.T) {
	stub := &stubSender{sendID: "<20260829.1@mg.nbox.app>"}
	client := newStubClient(stub)

	id, err := client.SendTemplate(context.Background(), TemplateMessage{
		To:       "buyer@example.com",
		Subject:  "Your order is on the way",
		Template: TemplateOrderOutForDelivery,
		Variables: map[string]any{
			"order_number": "NB-1042",
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != stub.sendID {
		t.Fatalf("expected message id %q, got %q", stub.sendID, id)
	}
	if stub.sentMsgs != 1 {
		t.Fatalf("expected one send, got %d", stub.sentMsgs)
	}
}

func TestSendTemplatePropagatesErrors(t *testing.T) {
	wantErr := errors.New("mailgun unavailable")
	stub := &stubSender{sendErr: wantErr}
	client := newStubClient(stub)

	_, err := client.SendTemplate(context.Background(), TemplateMessage{
		To:       "merchant@example.com",
		Subject:  "Low stock",
		Template: TemplateMerchantLowStock,
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected send error, got %v", err)
	}
}
