package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JoaoVlLeao/wpp-gemini-bot/configs"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure ShopifyClientAdapter implements the output port
var _ output.OrderLookup = (*ShopifyClientAdapter)(nil)

// Tax-ID scan window over recent orders
const (
	scanDays  = 120
	scanLimit = 250
)

var scanFields = strings.Join([]string{
	"id", "name", "created_at", "email", "customer", "financial_status",
	"fulfillment_status", "fulfillments", "phone", "billing_address",
	"shipping_address", "note", "note_attributes", "tags",
}, ",")

// note_attributes keys that may carry a customer document number
var documentKeys = map[string]bool{
	"cpf": true, "cnpj": true, "documento": true, "document": true,
	"tax_id": true, "doc": true, "cpf/cnpj": true,
}

// ShopifyClientAdapter struct - Output adapter for the Shopify Admin REST
// API. Lookups degrade to "no summary" on any failure; errors never
// propagate past the port contract's (nil, err) shape and callers treat
// both outcomes identically.
type ShopifyClientAdapter struct {
	httpClient   *http.Client
	baseURL      string
	apiToken     string
	trackingBase string
}

// NewShopifyClientAdapter func - Creates new Shopify Admin API client adapter
func NewShopifyClientAdapter(config configs.Shopify) (*ShopifyClientAdapter, error) {
	if config.StoreURL == "" || config.APIToken == "" {
		return nil, fmt.Errorf("shopify store url and api token are required")
	}

	apiVersion := config.APIVersion
	if apiVersion == "" {
		apiVersion = "2024-10"
	}

	trackingBase := config.TrackingBaseURL
	if trackingBase == "" {
		trackingBase = "https://aquafitbrasil.com/pages/rastreamento?codigo="
	}

	return &ShopifyClientAdapter{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:      fmt.Sprintf("%s/admin/api/%s", strings.TrimSuffix(config.StoreURL, "/"), apiVersion),
		apiToken:     config.APIToken,
		trackingBase: trackingBase,
	}, nil
}

// FindByOrderNumber looks up a single order by display number (no "#")
func (a *ShopifyClientAdapter) FindByOrderNumber(ctx context.Context, number string) (*domain.OrderSummary, error) {
	params := url.Values{}
	params.Set("name", "#"+strings.TrimPrefix(number, "#"))
	params.Set("limit", "1")

	orders, err := a.getOrders(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		logrus.Infof("No order found by number #%s", number)
		return nil, nil
	}

	summary := a.summarize(orders[0])
	logrus.Infof("Order found by number: %s (status=%s)", summary.Number, summary.Status)
	return summary, nil
}

// FindByEmail looks up the most recent orders for an email address
func (a *ShopifyClientAdapter) FindByEmail(ctx context.Context, email string) ([]domain.OrderSummary, error) {
	params := url.Values{}
	params.Set("email", email)
	params.Set("limit", "5")

	orders, err := a.getOrders(ctx, params)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.OrderSummary, 0, len(orders))
	for _, order := range orders {
		summaries = append(summaries, *a.summarize(order))
	}
	logrus.Infof("Found %d order(s) by email", len(summaries))
	return summaries, nil
}

// FindByTaxID scans recent orders for a customer document number. The
// document can appear in note attributes, tags, addresses, the order
// note, or anywhere else in the record, so matching falls through a
// priority of fields and ends with a whole-record sweep.
func (a *ShopifyClientAdapter) FindByTaxID(ctx context.Context, taxID string) (*domain.OrderSummary, error) {
	digits := domain.OnlyDigits(taxID)
	if len(digits) != 11 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("created_at_min", time.Now().AddDate(0, 0, -scanDays).UTC().Format(time.RFC3339))
	params.Set("order", "created_at desc")
	params.Set("limit", fmt.Sprintf("%d", scanLimit))
	params.Set("fields", scanFields)

	orders, err := a.getOrders(ctx, params)
	if err != nil {
		return nil, err
	}

	for _, order := range orders {
		if a.orderCarriesDocument(order, digits) {
			summary := a.summarize(order)
			logrus.Infof("Order %s found by tax ID scan", summary.Number)
			return summary, nil
		}
	}

	logrus.Infof("No order found by tax ID scan")
	return nil, nil
}

// orderCarriesDocument reports whether the document digits appear in any
// of the order's customer-entered fields.
func (a *ShopifyClientAdapter) orderCarriesDocument(order rawOrder, digits string) bool {
	matches := func(text string) bool {
		return strings.Contains(domain.OnlyDigits(text), digits)
	}

	for _, attr := range order.NoteAttributes {
		if documentKeys[strings.ToLower(attr.Name)] && matches(attr.Value) {
			return true
		}
	}

	if order.Tags != "" && matches(order.Tags) {
		return true
	}

	for _, addr := range []*rawAddress{order.BillingAddress, order.ShippingAddress} {
		if addr == nil {
			continue
		}
		if matches(strings.Join([]string{addr.Company, addr.Address1, addr.Address2, addr.Name}, " ")) {
			return true
		}
	}

	if order.Note != "" && matches(order.Note) {
		return true
	}

	// Whole-record sweep as a last resort.
	if blob, err := json.Marshal(order); err == nil && matches(string(blob)) {
		return true
	}

	return false
}

// getOrders performs a GET against /orders.json with status=any
func (a *ShopifyClientAdapter) getOrders(ctx context.Context, params url.Values) ([]rawOrder, error) {
	params.Set("status", "any")

	reqURL := fmt.Sprintf("%s/orders.json?%s", a.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create orders request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", a.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOrderBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d - %s", domain.ErrOrderBackendUnavailable, resp.StatusCode, string(body))
	}

	var payload ordersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse orders response: %w", err)
	}

	return payload.Orders, nil
}

// summarize normalizes a raw order into the compact summary the composer
// feeds into the prompt. The tracking number comes from the most recently
// created fulfillment that carries one.
func (a *ShopifyClientAdapter) summarize(order rawOrder) *domain.OrderSummary {
	trackingNumber, carrier := latestTracking(order.Fulfillments)

	email := order.Email
	phone := order.Phone
	if order.Customer != nil {
		if email == "" {
			email = order.Customer.Email
		}
		if phone == "" {
			phone = order.Customer.Phone
		}
	}
	if phone == "" && order.BillingAddress != nil {
		phone = order.BillingAddress.Phone
	}

	summary := &domain.OrderSummary{
		ID:                order.ID,
		Number:            order.Name,
		Email:             email,
		Phone:             phone,
		CreatedAt:         order.CreatedAt,
		FinancialStatus:   order.FinancialStatus,
		FulfillmentStatus: order.FulfillmentStatus,
		Status:            domain.DeriveOrderStatus(order.CancelledAt != nil, order.FulfillmentStatus, trackingNumber != ""),
		TrackingNumber:    trackingNumber,
		TrackingCarrier:   carrier,
	}
	if trackingNumber != "" {
		summary.TrackingURL = a.trackingBase + trackingNumber
	}

	return summary
}

// latestTracking returns the tracking number and carrier of the most
// recently created fulfillment that carries a number.
func latestTracking(fulfillments []rawFulfillment) (string, string) {
	var (
		number  string
		carrier string
		newest  time.Time
	)
	for _, f := range fulfillments {
		candidate := f.TrackingNumber
		if candidate == "" && len(f.TrackingNumbers) > 0 {
			candidate = f.TrackingNumbers[0]
		}
		if candidate == "" {
			continue
		}
		if number == "" || f.CreatedAt.After(newest) {
			number = candidate
			carrier = f.TrackingCompany
			newest = f.CreatedAt
		}
	}
	return number, carrier
}

// API response structures for the Shopify Admin REST API

type ordersResponse struct {
	Orders []rawOrder `json:"orders"`
}

type rawOrder struct {
	ID                int64              `json:"id"`
	Name              string             `json:"name"` // display number, e.g. "#17333"
	Email             string             `json:"email"`
	Phone             string             `json:"phone"`
	CreatedAt         time.Time          `json:"created_at"`
	CancelledAt       *time.Time         `json:"cancelled_at"`
	FinancialStatus   string             `json:"financial_status"`
	FulfillmentStatus string             `json:"fulfillment_status"`
	Customer          *rawCustomer       `json:"customer"`
	BillingAddress    *rawAddress        `json:"billing_address"`
	ShippingAddress   *rawAddress        `json:"shipping_address"`
	Note              string             `json:"note"`
	NoteAttributes    []rawNoteAttribute `json:"note_attributes"`
	Tags              string             `json:"tags"`
	Fulfillments      []rawFulfillment   `json:"fulfillments"`
}

type rawCustomer struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type rawAddress struct {
	Name     string `json:"name"`
	Company  string `json:"company"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	Phone    string `json:"phone"`
}

type rawNoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type rawFulfillment struct {
	CreatedAt       time.Time `json:"created_at"`
	TrackingNumber  string    `json:"tracking_number"`
	TrackingNumbers []string  `json:"tracking_numbers"`
	TrackingCompany string    `json:"tracking_company"`
}
