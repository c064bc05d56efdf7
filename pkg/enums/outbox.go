package enums

import "fmt"

// OutboxEventType names the domain events emitted through the outbox.
type OutboxEventType string

const (
	EventOrderPlaced         OutboxEventType = "order.placed"
	EventOrderAccepted       OutboxEventType = "order.accepted"
	EventOrderCanceled       OutboxEventType = "order.canceled"
	EventOrderPreparing      OutboxEventType = "order.preparing"
	EventOrderOutForDelivery OutboxEventType = "order.out_for_delivery"
	EventOrderDelivered      OutboxEventType = "order.delivered"
	EventOrderCompleted      OutboxEventType = "order.completed"
	EventInventoryLowStock   OutboxEventType = "inventory.low_stock"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPlaced,
	EventOrderAccepted,
	EventOrderCanceled,
	EventOrderPreparing,
	EventOrderOutForDelivery,
	EventOrderDelivered,
	EventOrderCompleted,
	EventInventoryLowStock,
}

// String implements fmt.Stringer.
func (o OutboxEventType) String() string {
	return string(o)
}

// IsValid reports whether the value is known.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateProduct OutboxAggregateType = "product"
)

// String implements fmt.Stringer.
func (o OutboxAggregateType) String() string {
	return string(o)
}

// IsValid reports whether the value is known.
func (o OutboxAggregateType) IsValid() bool {
	return o == AggregateOrder || o == AggregateProduct
}
