package mail

import (
	"context"
	"errors"
	"strings"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/nbox-app/nbox-backend/pkg/config"
	"github.com/nbox-app/nbox-backend/pkg/logger"
)

// Stored template names managed in the Mailgun dashboard.
const (
	TemplateOrderNotificationBuyer    = "nbox-order-notification-buyer"
	TemplateOrderNotificationMerchant = "nbox-order-notification-merchant"
	TemplateOrderOutForDelivery       = "nbox-order-out-for-delivery-notification"
	TemplateOrderCompletionFeedback   = "nbox-order-completion-and-feedback-request"
	TemplateOrderDeliveredMerchant    = "nbox-order-delivered-merchant-notification"
	TemplateMerchantLowStock          = "nbox-merchant-low-stock-notification"
)

var (
	errDomainRequired = errors.New("mailgun domain is required")
	errAPIKeyRequired = errors.New("mailgun api key is required")
)

// sender is the slice of the Mailgun API the client uses.
type sender interface {
	NewMessage(from, subject, text string, to ...string) *mailgun.Message
	Send(ctx context.Context, m *mailgun.Message) (string, string, error)
}

// Client wraps Mailgun's API client with template-based sends.
type Client struct {
	mg          sender
	defaultFrom string
	logg        *logger.Logger
}

// NewClient initializes Mailgun once with the configured domain and key.
func NewClient(cfg config.MailgunConfig, logg *logger.Logger) (*Client, error) {
	domain := strings.TrimSpace(cfg.Domain)
	if domain == "" {
		return nil, errDomainRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	return &Client{
		mg:          mailgun.NewMailgun(domain, apiKey),
		defaultFrom: cfg.DefaultFrom,
		logg:        logg,
	}, nil
}

// TemplateMessage describes a templated send.
type TemplateMessage struct {
	To        string
	Subject   string
	Template  string
	Variables map[string]any
}

// SendTemplate renders and sends a stored template to a single recipient.
// Returns the Mailgun message id on success.
func (c *Client) SendTemplate(ctx context.Context, msg TemplateMessage) (string, error) {
	m := c.mg.NewMessage(c.defaultFrom, msg.Subject, "", msg.To)
	m.SetTemplate(msg.Template)
	for name, value := range msg.Variables {
		if err := m.AddTemplateVariable(name, value); err != nil {
			return "", err
		}
	}

	_, id, err := c.mg.Send(ctx, m)
	if err != nil {
		if c.logg != nil {
			c.logg.Error(ctx, "mailgun send failed", err)
		}
		return "", err
	}
	return id, nil
}
