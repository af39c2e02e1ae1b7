package products

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"pehlione.com/catalog/internal/modules/variants"
	"pehlione.com/catalog/internal/shared/apperr"
)

// Column sizes of product_variants.sku and image_url.
const (
	MaxKeyLength      = 255
	maxImageURLLength = 1024
)

// ValidatePriceBounds checks base <= price <= virtual for every SKU, using virtual as
// the price of SKUs without one, and rejects negative stock and combination keys
// longer than MaxKeyLength characters. All offenders are reported together, keyed
// by combination key.
func ValidatePriceBounds(skus []variants.SKU, base, virtual decimal.Decimal) error {
	fields := map[string]string{}
	for _, s := range skus {
		p := s.EffectivePrice(virtual)
		switch {
		case utf8.RuneCountInString(s.CombinationKey) > MaxKeyLength:
			fields[s.CombinationKey] = fmt.Sprintf("Combination key is longer than %d characters.", MaxKeyLength)
		case p.LessThan(base):
			fields[s.CombinationKey] = fmt.Sprintf("Price %s is below the base price %s.", p.String(), base.String())
		case p.GreaterThan(virtual):
			fields[s.CombinationKey] = fmt.Sprintf("Price %s is above the reference price %s.", p.String(), virtual.String())
		case s.Stock < 0:
			fields[s.CombinationKey] = "Stock cannot be negative."
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return apperr.InvalidErr(fmt.Sprintf("%d SKU(s) are invalid.", len(fields)), fields)
}
