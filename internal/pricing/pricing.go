package pricing

import (
	"strconv"

	apperrors "github.com/brightmove/checkout/internal/errors"
	"github.com/brightmove/checkout/internal/models"
)

// AddonLabel is the customer-facing name of the viewing add-on line item
const AddonLabel = "Viewing add-on"

// Catalog maps package identifiers to unit prices in pence. Loaded once at
// startup and never mutated.
type Catalog map[models.Package]int64

// DefaultCatalog returns the fixed GBP catalog
func DefaultCatalog() Catalog {
	return Catalog{
		models.PackageClassic: 95000,  // £950.00
		models.PackagePremier: 125000, // £1,250.00
	}
}

// Resolver validates checkout requests against the catalog and produces the
// ordered line items and session metadata for the order. It is a pure function
// of its input and the static catalog.
type Resolver struct {
	catalog Catalog
}

// NewResolver creates a resolver over the given catalog
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve turns a checkout request into priced line items plus metadata.
// The package is validated before anything else; an unknown package fails
// fast with ErrInvalidPackage and no further computation happens.
func (r *Resolver) Resolve(req models.CheckoutRequest) (models.PricedOrder, error) {
	packagePence, ok := r.catalog[req.Package]
	if !ok {
		return models.PricedOrder{}, apperrors.ErrInvalidPackage
	}

	addonEnabled := req.Addon != nil && req.Addon.Enabled
	if addonEnabled && req.Addon.Amount <= 0 {
		return models.PricedOrder{}, apperrors.ErrInvalidAddonAmount
	}

	// Package line item always precedes the add-on; ordering is significant
	// for display on the hosted payment page.
	lineItems := []models.LineItem{
		{Label: req.Package.DisplayName(), UnitAmountMinor: packagePence, Quantity: 1},
	}

	metadata := models.SessionMetadata{
		models.MetaKeyPackage:       string(req.Package),
		models.MetaKeyPackageAmount: strconv.FormatInt(packagePence, 10),
		models.MetaKeyAddonEnabled:  "false",
		models.MetaKeyAddonAmount:   "0",
	}

	if addonEnabled {
		lineItems = append(lineItems, models.LineItem{
			Label:           AddonLabel,
			UnitAmountMinor: models.PoundsToPence(req.Addon.Amount),
			Quantity:        1,
		})
		metadata[models.MetaKeyAddonEnabled] = "true"
		metadata[models.MetaKeyAddonAmount] = strconv.FormatFloat(req.Addon.Amount, 'f', -1, 64)
	}

	return models.PricedOrder{LineItems: lineItems, Metadata: metadata}, nil
}
