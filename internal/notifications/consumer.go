package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/nbox-app/nbox-backend/pkg/db/models"
	"github.com/nbox-app/nbox-backend/pkg/enums"
	"github.com/nbox-app/nbox-backend/pkg/logger"
	"github.com/nbox-app/nbox-backend/pkg/mail"
	"github.com/nbox-app/nbox-backend/pkg/outbox"
	"github.com/nbox-app/nbox-backend/pkg/outbox/payloads"
)

const orderNotificationConsumer = "order-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type storeDirectory interface {
	GetConfig(ctx context.Context, merchantID uuid.UUID) (*models.MerchantConfig, error)
}

type addressDirectory interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
}

type mailer interface {
	SendTemplate(ctx context.Context, msg mail.TemplateMessage) (string, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer drains the orders subscription and fans each event out into
// in-app notification rows plus templated emails. Mail failures nack the
// message; redelivery is deduplicated by the idempotency manager.
type Consumer struct {
	repo         repository
	users        userDirectory
	stores       storeDirectory
	addresses    addressDirectory
	mail         mailer
	subscription *pubsub.Subscriber
	idempotency  idempotencyChecker
	logg         *logger.Logger
}

// ConsumerParams bundles the consumer's dependencies.
type ConsumerParams struct {
	Repo         Repository
	Users        userDirectory
	Stores       storeDirectory
	Addresses    addressDirectory
	Mail         mailer
	Subscription *pubsub.Subscriber
	Idempotency  idempotencyChecker
	Logger       *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store directory required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address directory required")
	}
	if params.Mail == nil {
		return nil, fmt.Errorf("mail client required")
	}
	if params.Subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         params.Repo,
		users:        params.Users,
		stores:       params.Stores,
		addresses:    params.Addresses,
		mail:         params.Mail,
		subscription: params.Subscription,
		idempotency:  params.Idempotency,
		logg:         params.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handleEvent(ctx, eventType, envelope, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handleEvent(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope, logCtx context.Context) error {
	switch eventType {
	case enums.EventOrderPlaced:
		var payload payloads.OrderPlacedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode order placed payload: %w", err)
		}
		return c.handleOrderPlaced(ctx, payload, logCtx)
	case enums.EventOrderAccepted, enums.EventOrderPreparing, enums.EventOrderOutForDelivery,
		enums.EventOrderDelivered, enums.EventOrderCompleted:
		var payload payloads.OrderStatusEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode order status payload: %w", err)
		}
		return c.handleStatusChange(ctx, eventType, payload, envelope, logCtx)
	case enums.EventOrderCanceled:
		var payload payloads.OrderCanceledEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode order canceled payload: %w", err)
		}
		return c.handleOrderCanceled(ctx, payload, logCtx)
	case enums.EventInventoryLowStock:
		var payload payloads.LowStockEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode low stock payload: %w", err)
		}
		return c.handleLowStock(ctx, payload, logCtx)
	default:
		c.logg.Info(logCtx, "event type not handled")
		return nil
	}
}

func (c *Consumer) handleOrderPlaced(ctx context.Context, payload payloads.OrderPlacedEvent, logCtx context.Context) error {
	buyer, err := c.users.FindByID(ctx, payload.BuyerID)
	if err != nil {
		return fmt.Errorf("resolve buyer: %w", err)
	}
	merchant, err := c.users.FindByID(ctx, payload.MerchantID)
	if err != nil {
		return fmt.Errorf("resolve merchant: %w", err)
	}
	storeName := c.storeNameFor(ctx, payload.MerchantID)

	buyerMessage := fmt.Sprintf("Your order #%d with %s has been placed and accepted.", payload.OrderNumber, storeName)
	if payload.StartingStatus == enums.OrderStatusPending {
		buyerMessage = fmt.Sprintf("Your order #%d with %s is now awaiting acceptance by the merchant.", payload.OrderNumber, storeName)
	}

	var errs error
	errs = multierr.Append(errs, c.repo.Create(ctx, &models.Notification{
		RecipientID: buyer.ID,
		Role:        enums.ActorRoleBuyer,
		Type:        enums.NotificationTypeOrder,
		Title:       "Order placed",
		Message:     buyerMessage,
		OrderID:     &payload.OrderID,
	}))
	errs = multierr.Append(errs, c.repo.Create(ctx, &models.Notification{
		RecipientID: merchant.ID,
		Role:        enums.ActorRoleMerchant,
		Type:        enums.NotificationTypeOrder,
		Title:       "New order received",
		Message:     fmt.Sprintf("You received a new order #%d.", payload.OrderNumber),
		OrderID:     &payload.OrderID,
	}))

	buyerVars := map[string]any{
		"first_name":   buyer.FirstName,
		"order_number": payload.OrderNumber,
		"store_name":   storeName,
		"total":        payload.Total.StringFixed(2),
		"status_note":  buyerMessage,
	}
	if payload.ScheduledAt != nil {
		buyerVars["scheduled_date"] = payload.ScheduledAt.Format("Jan 2, 2006 3:04 PM MST")
	}
	_, err = c.mail.SendTemplate(ctx, mail.TemplateMessage{
		To:        buyer.Email,
		Subject:   fmt.Sprintf("Order #%d confirmed", payload.OrderNumber),
		Template:  mail.TemplateOrderNotificationBuyer,
		Variables: buyerVars,
	})
	errs = multierr.Append(errs, err)

	_, err = c.mail.SendTemplate(ctx, mail.TemplateMessage{
		To:       merchant.Email,
		Subject:  fmt.Sprintf("New order #%d", payload.OrderNumber),
		Template: mail.TemplateOrderNotificationMerchant,
		Variables: map[string]any{
			"first_name":   merchant.FirstName,
			"order_number": payload.OrderNumber,
			"total":        payload.Total.StringFixed(2),
		},
	})
	errs = multierr.Append(errs, err)

	if errs == nil {
		c.logg.Info(logCtx, "order placed notifications sent")
	}
	return errs
}

func (c *Consumer) handleStatusChange(ctx context.Context, eventType enums.OutboxEventType, payload payloads.OrderStatusEvent, envelope outbox.PayloadEnvelope, logCtx context.Context) error {
	switch eventType {
	case enums.EventOrderAccepted:
		return c.notifyBuyer(ctx, payload, buyerNote{
			ntype:    enums.NotificationTypeOrder,
			title:    "Order accepted",
			message:  fmt.Sprintf("Order #%d was accepted by %s.", payload.OrderNumber, c.storeNameFor(ctx, payload.MerchantID)),
			subject:  fmt.Sprintf("Order #%d accepted", payload.OrderNumber),
			template: mail.TemplateOrderNotificationBuyer,
		}, logCtx)
	case enums.EventOrderPreparing:
		message := fmt.Sprintf("Order #%d is being prepared.", payload.OrderNumber)
		if payload.PreparationTimeMinutes > 0 {
			message = fmt.Sprintf("Order #%d will be prepared in %d minutes.", payload.OrderNumber, payload.PreparationTimeMinutes)
		}
		return c.notifyBuyer(ctx, payload, buyerNote{
			ntype:    enums.NotificationTypeOrder,
			title:    "Order in preparation",
			message:  message,
			subject:  fmt.Sprintf("Order #%d is being prepared", payload.OrderNumber),
			template: mail.TemplateOrderNotificationBuyer,
			vars: map[string]any{
				"preparation_time": payload.PreparationTimeMinutes,
			},
		}, logCtx)
	case enums.EventOrderOutForDelivery:
		return c.handleOutForDelivery(ctx, payload, logCtx)
	case enums.EventOrderCompleted:
		return c.notifyBuyer(ctx, payload, buyerNote{
			ntype:    enums.NotificationTypeOrder,
			title:    "Order completed",
			message:  fmt.Sprintf("Order #%d is complete. Let us know how it went.", payload.OrderNumber),
			subject:  fmt.Sprintf("How was order #%d?", payload.OrderNumber),
			template: mail.TemplateOrderCompletionFeedback,
		}, logCtx)
	case enums.EventOrderDelivered:
		return c.handleDelivered(ctx, payload, envelope, logCtx)
	default:
		return nil
	}
}

type buyerNote struct {
	ntype    enums.NotificationType
	title    string
	message  string
	subject  string
	template string
	vars     map[string]any
}

// handleOutForDelivery resolves the store's pickup address and delivery
// estimate so the buyer knows where the order is coming from and when
// to expect it.
func (c *Consumer) handleOutForDelivery(ctx context.Context, payload payloads.OrderStatusEvent, logCtx context.Context) error {
	storeName := c.storeNameFor(ctx, payload.MerchantID)
	storeAddress := c.storeAddressFor(ctx, payload.MerchantID)

	message := fmt.Sprintf("Order #%d is on its way from %s.", payload.OrderNumber, storeName)
	if storeAddress != "" {
		message = fmt.Sprintf("Order #%d is on its way from %s, %s.", payload.OrderNumber, storeName, storeAddress)
	}

	vars := map[string]any{
		"store_name":    storeName,
		"store_address": storeAddress,
	}
	if cfg, err := c.stores.GetConfig(ctx, payload.MerchantID); err == nil && cfg.DeliveryTimeMinutes > 0 {
		message = fmt.Sprintf("%s Estimated delivery in %d minutes.", message, cfg.DeliveryTimeMinutes)
		vars["delivery_time"] = cfg.DeliveryTimeMinutes
	}

	return c.notifyBuyer(ctx, payload, buyerNote{
		ntype:    enums.NotificationTypeDelivery,
		title:    "Order out for delivery",
		message:  message,
		subject:  fmt.Sprintf("Order #%d is out for delivery", payload.OrderNumber),
		template: mail.TemplateOrderOutForDelivery,
		vars:     vars,
	}, logCtx)
}

// storeAddressFor returns the merchant's default address as a single
// line, or "" when none is saved.
func (c *Consumer) storeAddressFor(ctx context.Context, merchantID uuid.UUID) string {
	if c.addresses == nil {
		return ""
	}
	addrs, err := c.addresses.ListForUser(ctx, merchantID)
	if err != nil || len(addrs) == 0 {
		return ""
	}
	addr := addrs[0]
	return fmt.Sprintf("%s, %s, %s %s", addr.Line1, addr.City, addr.State, addr.PostalCode)
}

func (c *Consumer) notifyBuyer(ctx context.Context, payload payloads.OrderStatusEvent, note buyerNote, logCtx context.Context) error {
	buyer, err := c.users.FindByID(ctx, payload.BuyerID)
	if err != nil {
		return fmt.Errorf("resolve buyer: %w", err)
	}

	var errs error
	errs = multierr.Append(errs, c.repo.Create(ctx, &models.Notification{
		RecipientID: buyer.ID,
		Role:        enums.ActorRoleBuyer,
		Type:        note.ntype,
		Title:       note.title,
		Message:     note.message,
		OrderID:     &payload.OrderID,
	}))

	vars := map[string]any{
		"first_name":   buyer.FirstName,
		"order_number": payload.OrderNumber,
		"status":       payload.ToStatus.String(),
	}
	for name, value := range note.vars {
		vars[name] = value
	}
	_, err = c.mail.SendTemplate(ctx, mail.TemplateMessage{
		To:        buyer.Email,
		Subject:   note.subject,
		Template:  note.template,
		Variables: vars,
	})
	errs = multierr.Append(errs, err)

	if errs == nil {
		c.logg.Info(logCtx, "buyer notified of status change")
	}
	return errs
}

// handleDelivered tells the merchant the buyer confirmed receipt; the
// delivery timestamp is the event's occurrence time.
func (c *Consumer) handleDelivered(ctx context.Context, payload payloads.OrderStatusEvent, envelope outbox.PayloadEnvelope, logCtx context.Context) error {
	merchant, err := c.users.FindByID(ctx, payload.MerchantID)
	if err != nil {
		return fmt.Errorf("resolve merchant: %w", err)
	}
	deliveredAt := envelope.OccurredAt.UTC()

	var errs error
	errs = multierr.Append(errs, c.repo.Create(ctx, &models.Notification{
		RecipientID: merchant.ID,
		Role:        enums.ActorRoleMerchant,
		Type:        enums.NotificationTypeDelivery,
		Title:       "Order delivered",
		Message:     fmt.Sprintf("The buyer confirmed delivery of order #%d.", payload.OrderNumber),
		OrderID:     &payload.OrderID,
	}))

	_, err = c.mail.SendTemplate(ctx, mail.TemplateMessage{
		To:       merchant.Email,
		Subject:  fmt.Sprintf("Order #%d delivered", payload.OrderNumber),
		Template: mail.TemplateOrderDeliveredMerchant,
		Variables: map[string]any{
			"first_name":   merchant.FirstName,
			"order_number": payload.OrderNumber,
			"delivered_at": deliveredAt.Format("Jan 2, 2006 3:04 PM MST"),
		},
	})
	errs = multierr.Append(errs, err)

	if errs == nil {
		c.logg.Info(logCtx, "merchant notified of delivery")
	}
	return errs
}

func (c *Consumer) handleOrderCanceled(ctx context.Context, payload payloads.OrderCanceledEvent, logCtx context.Context) error {
	buyer, err := c.users.FindByID(ctx, payload.BuyerID)
	if err != nil {
		return fmt.Errorf("resolve buyer: %w", err)
	}

	message := fmt.Sprintf("Order #%d was canceled.", payload.OrderNumber)
	if payload.Reason != "" {
		message = fmt.Sprintf("Order #%d was canceled: %s.", payload.OrderNumber, strings.TrimSuffix(payload.Reason, "."))
	}
	if payload.RefundIssued {
		message += " A refund has been issued to your payment method."
	}

	var errs error
	errs = multierr.Append(errs, c.repo.Create(ctx, &models.Notification{
		RecipientID: buyer.ID,
		Role:        enums.ActorRoleBuyer,
		Type:        enums.NotificationTypeOrder,
		Title:       "Order canceled",
		Message:     message,
		OrderID:     &payload.OrderID,
	}))

	_, err = c.mail.SendTemplate(ctx, mail.TemplateMessage{
		To:       buyer.Email,
		Subject:  fmt.Sprintf("Order #%d canceled", payload.OrderNumber),
		Template: mail.TemplateOrderNotificationBuyer,
		Variables: map[string]any{
			"first_name":    buyer.FirstName,
			"order_number":  payload.OrderNumber,
			"status":        enums.OrderStatusCanceled.String(),
			"refund_issued": payload.RefundIssued,
		},
	})
	errs = multierr.Append(errs, err)

	if errs == nil {
		c.logg.Info(logCtx, "buyer notified of cancellation")
	}
	return errs
}

func (c *Consumer) handleLowStock(ctx context.Context, payload payloads.LowStockEvent, logCtx context.Context) error {
	if len(payload.Products) == 0 {
		return nil
	}
	merchant, err := c.users.FindByID(ctx, payload.MerchantID)
	if err != nil {
		return fmt.Errorf("resolve merchant: %w", err)
	}

	lines := make([]string, 0, len(payload.Products))
	for _, product := range payload.Products {
		lines = append(lines, fmt.Sprintf("%s (%d left)", product.Name, product.Remaining))
	}
	message := fmt.Sprintf("Running low on stock: %s.", strings.Join(lines, ", "))

	var errs error
	errs = multierr.Append(errs, c.repo.Create(ctx, &models.Notification{
		RecipientID: merchant.ID,
		Role:        enums.ActorRoleMerchant,
		Type:        enums.NotificationTypeStock,
		Title:       "Low stock alert",
		Message:     message,
		OrderID:     &payload.OrderID,
	}))

	_, err = c.mail.SendTemplate(ctx, mail.TemplateMessage{
		To:       merchant.Email,
		Subject:  "Low stock alert",
		Template: mail.TemplateMerchantLowStock,
		Variables: map[string]any{
			"first_name": merchant.FirstName,
			"products":   strings.Join(lines, ", "),
		},
	})
	errs = multierr.Append(errs, err)

	if errs == nil {
		c.logg.Info(logCtx, "merchant notified of low stock")
	}
	return errs
}

func (c *Consumer) storeNameFor(ctx context.Context, merchantID uuid.UUID) string {
	cfg, err := c.stores.GetConfig(ctx, merchantID)
	if err != nil || cfg.StoreName == "" {
		return "the store"
	}
	return cfg.StoreName
}
