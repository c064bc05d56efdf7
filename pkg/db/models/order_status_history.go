package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nbox-app/nbox-backend/pkg/enums"
)

// OrderStatusHistory is an append-only trail of status transitions.
// Rows are never updated or deleted.
type OrderStatusHistory struct {
	ID         uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus enums.OrderStatus `gorm:"column:from_status;type:order_status;not null"`
	ToStatus   enums.OrderStatus `gorm:"column:to_status;type:order_status;not null"`
	Actor      enums.ActorRole   `gorm:"column:actor;type:actor_role;not null"`
	Note       *string           `gorm:"column:note"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
