package domain

import (
	"regexp"
	"strings"
)

// IdentifierKind represents the class of identifier found in free text
type IdentifierKind string

const (
	// IdentifierOrderNumber - numeric token shaped like an order number
	IdentifierOrderNumber IdentifierKind = "order_number"
	// IdentifierEmail - email-shaped token
	IdentifierEmail IdentifierKind = "email"
	// IdentifierTaxID - CPF-shaped document number (11 digits)
	IdentifierTaxID IdentifierKind = "tax_id"
)

// Identifier is a candidate lookup key extracted from customer text
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

var (
	// Bare 3-8 digit runs pass as order numbers. The shape carries no
	// marker, so unrelated numbers in free text can match too; the
	// lookup simply comes back empty in that case.
	orderNumberPattern = regexp.MustCompile(`\b(\d{3,8})\b`)
	emailPattern       = regexp.MustCompile(`[^\s]+@[^\s]+`)
	taxIDPattern       = regexp.MustCompile(`\d{3}\.?\d{3}\.?\d{3}-?\d{2}`)
	nonDigits          = regexp.MustCompile(`\D+`)
)

// ExtractIdentifier scans a text blob for at most one lookup candidate,
// selected by fixed priority: order number, then email, then tax ID.
// Pure classification, no side effects. The second return value is false
// when nothing recognizable is present.
func ExtractIdentifier(text string) (Identifier, bool) {
	if m := orderNumberPattern.FindStringSubmatch(text); m != nil {
		return Identifier{Kind: IdentifierOrderNumber, Value: m[1]}, true
	}
	if m := emailPattern.FindString(text); m != "" {
		return Identifier{Kind: IdentifierEmail, Value: strings.TrimSpace(m)}, true
	}
	if m := taxIDPattern.FindString(text); m != "" {
		return Identifier{Kind: IdentifierTaxID, Value: OnlyDigits(m)}, true
	}
	return Identifier{}, false
}

// OnlyDigits strips everything but digits from a string
func OnlyDigits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}
