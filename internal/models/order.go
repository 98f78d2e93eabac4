package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Package identifies one of the fixed service packages
type Package string

const (
	PackageClassic Package = "classic"
	PackagePremier Package = "premier"
)

// DisplayName returns the customer-facing product name for the package
func (p Package) DisplayName() string {
	s := string(p)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:] + " Package"
}

// AddonSelection is the optional viewing add-on with a variable price in pounds
type AddonSelection struct {
	Enabled bool    `json:"enabled"`
	Amount  float64 `json:"amount"`
}

// CheckoutRequest is the input contract for creating a checkout session
type CheckoutRequest struct {
	Package Package         `json:"package"`
	Addon   *AddonSelection `json:"addon,omitempty"`
}

// LineItem is one priced row of the order, amounts in pence
type LineItem struct {
	Label           string `json:"label"`
	UnitAmountMinor int64  `json:"unit_amount_minor"`
	Quantity        int64  `json:"quantity"`
}

// Metadata keys attached to the processor session. The session metadata is the
// only durable record of what was ordered, so it carries the package amount as
// priced at creation time rather than relying on the catalog staying stable.
const (
	MetaKeyPackage        = "package"
	MetaKeyPackageAmount  = "packageAmount"
	MetaKeyAddonEnabled   = "viewingAddonEnabled"
	MetaKeyAddonAmount    = "viewingAddonAmount"
	MetaKeyOrderReference = "orderReference"
)

// SessionMetadata is the flat string mapping attached to a processor session
type SessionMetadata map[string]string

// OrderTotalPence reconstructs the order total from metadata alone
func (m SessionMetadata) OrderTotalPence() (int64, error) {
	pkgAmount, err := strconv.ParseInt(m[MetaKeyPackageAmount], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("metadata %s: %w", MetaKeyPackageAmount, err)
	}
	total := pkgAmount
	if m[MetaKeyAddonEnabled] == "true" {
		addon, err := strconv.ParseFloat(m[MetaKeyAddonAmount], 64)
		if err != nil {
			return 0, fmt.Errorf("metadata %s: %w", MetaKeyAddonAmount, err)
		}
		total += PoundsToPence(addon)
	}
	return total, nil
}

// PoundsToPence converts a major-unit amount to pence, rounding half away
// from zero. For the positive amounts the resolver admits this is round-half-up,
// matching the processor-side arithmetic the order totals were created with.
func PoundsToPence(pounds float64) int64 {
	return int64(math.Round(pounds * 100))
}

// PricedOrder is the resolver output: ordered line items plus the metadata
// needed to reconstruct the order without local storage
type PricedOrder struct {
	LineItems []LineItem
	Metadata  SessionMetadata
}

// Total returns the sum of all line item amounts in pence
func (o PricedOrder) Total() int64 {
	var total int64
	for _, li := range o.LineItems {
		total += li.UnitAmountMinor * li.Quantity
	}
	return total
}

// CreatedSession is the orchestrator output for a newly minted hosted session
type CreatedSession struct {
	URL            string `json:"url"`
	OrderReference string `json:"order_reference"`
}

// CardSummary is the payment instrument summary shown on the result page
type CardSummary struct {
	Brand string `json:"brand"`
	Last4 string `json:"last4"`
}

// SessionSnapshot is the processor's current view of a checkout session,
// projected down to the fields the result pages display
type SessionSnapshot struct {
	ID            string       `json:"id"`
	AmountTotal   int64        `json:"amount_total"`
	Currency      string       `json:"currency"`
	PaymentStatus string       `json:"payment_status"`
	PaymentMethod *CardSummary `json:"payment_method,omitempty"`
}
