package domain

import "time"

// Order status labels derived from the raw commerce record
const (
	// OrderStatusProcessing - no fulfillment yet
	OrderStatusProcessing = "processing"
	// OrderStatusShipped - fulfilled, or tracking present without a status
	OrderStatusShipped = "shipped"
	// OrderStatusPartiallyShipped - partially fulfilled
	OrderStatusPartiallyShipped = "partially shipped"
	// OrderStatusRestocked - items returned to stock
	OrderStatusRestocked = "restocked"
	// OrderStatusCancelled - order cancelled
	OrderStatusCancelled = "cancelled"
)

// OrderSummary is the compact, read-only view of an order that the
// response composer feeds into the model prompt. Derived once by the
// order-lookup adapter and never mutated afterwards.
type OrderSummary struct {
	ID                int64
	Number            string // display number, e.g. "#17545"
	Email             string
	Phone             string
	CreatedAt         time.Time
	FinancialStatus   string
	FulfillmentStatus string
	Status            string // derived human label
	TrackingNumber    string
	TrackingURL       string
	TrackingCarrier   string
}

// DeriveOrderStatus maps raw order state to a human status label.
// Priority: cancellation wins, then the fulfillment status, then the
// presence of a tracking number implies shipped, else processing.
func DeriveOrderStatus(cancelled bool, fulfillmentStatus string, hasTracking bool) string {
	switch {
	case cancelled:
		return OrderStatusCancelled
	case fulfillmentStatus == "fulfilled":
		return OrderStatusShipped
	case fulfillmentStatus == "partial":
		return OrderStatusPartiallyShipped
	case fulfillmentStatus == "restocked":
		return OrderStatusRestocked
	case fulfillmentStatus == "" && hasTracking:
		return OrderStatusShipped
	default:
		return OrderStatusProcessing
	}
}
