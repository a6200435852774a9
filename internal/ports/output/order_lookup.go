package output

import (
	"context"

	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"
)

// OrderLookup interface - Output port
// Defines what the application needs from the commerce backend.
// Every operation returns (nil, nil) when no matching order exists;
// callers must treat "not found" and backend errors identically and
// degrade gracefully.
type OrderLookup interface {
	// FindByOrderNumber looks up a single order by its display number
	// (without the leading "#").
	FindByOrderNumber(ctx context.Context, number string) (*domain.OrderSummary, error)

	// FindByEmail looks up the most recent orders for an email address.
	FindByEmail(ctx context.Context, email string) ([]domain.OrderSummary, error)

	// FindByTaxID scans recent orders for a customer document number
	// (CPF, 11 digits).
	FindByTaxID(ctx context.Context, taxID string) (*domain.OrderSummary, error)
}
