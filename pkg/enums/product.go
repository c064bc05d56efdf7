package enums

import "fmt"

// ProductStatus marks whether a listing is published by its merchant.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "in-active"
)

// String implements fmt.Stringer.
func (p ProductStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p ProductStatus) IsValid() bool {
	return p == ProductStatusActive || p == ProductStatusInactive
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	switch ProductStatus(value) {
	case ProductStatusActive, ProductStatusInactive:
		return ProductStatus(value), nil
	}
	return "", fmt.Errorf("invalid product status %q", value)
}

// ProductAvailability is the stock-derived purchasable flag.
type ProductAvailability string

const (
	ProductAvailabilityInStock    ProductAvailability = "in-stock"
	ProductAvailabilityOutOfStock ProductAvailability = "out-of-stock"
)

// String implements fmt.Stringer.
func (p ProductAvailability) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p ProductAvailability) IsValid() bool {
	return p == ProductAvailabilityInStock || p == ProductAvailabilityOutOfStock
}

// ParseProductAvailability converts raw input into a ProductAvailability.
func ParseProductAvailability(value string) (ProductAvailability, error) {
	switch ProductAvailability(value) {
	case ProductAvailabilityInStock, ProductAvailabilityOutOfStock:
		return ProductAvailability(value), nil
	}
	return "", fmt.Errorf("invalid product availability %q", value)
}
