package enums

import "fmt"

// DeliveryType selects how a merchant charges for delivery.
type DeliveryType string

const (
	DeliveryTypeNone  DeliveryType = "none"
	DeliveryTypeFixed DeliveryType = "fixed"
)

// String implements fmt.Stringer.
func (d DeliveryType) String() string {
	return string(d)
}

// IsValid reports whether the value is known.
func (d DeliveryType) IsValid() bool {
	return d == DeliveryTypeNone || d == DeliveryTypeFixed
}

// ParseDeliveryType converts raw input into a DeliveryType.
func ParseDeliveryType(value string) (DeliveryType, error) {
	switch DeliveryType(value) {
	case DeliveryTypeNone, DeliveryTypeFixed:
		return DeliveryType(value), nil
	}
	return "", fmt.Errorf("invalid delivery type %q", value)
}
