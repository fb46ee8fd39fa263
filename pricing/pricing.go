package pricing

import "github.com/shopspring/decimal"

const (
	// DefaultUnitPrice is used when neither the item options nor the
	// product carry a price.
	DefaultUnitPrice int64 = 500

	// ShippingFlatFee is charged once per order, in subunits.
	ShippingFlatFee int64 = 500

	// TaxRatePercent is applied to the order subtotal.
	TaxRatePercent int64 = 8
)

// Options are the price-relevant customizer choices for a cart item.
// All prices are integer subunits (cents). The modifier fields feed the
// unit-price formula; the remaining fields describe the customization and
// participate only in option equality.
type Options struct {
	UnitPrice            *int64   `json:"unitPrice,omitempty"`
	MaterialMultiplier   *float64 `json:"materialMultiplier,omitempty"`
	FinishPriceModifier  *int64   `json:"finishPriceModifier,omitempty"`
	ComplexityMultiplier *float64 `json:"complexityMultiplier,omitempty"`

	Material string `json:"material,omitempty"`
	Finish   string `json:"finish,omitempty"`
	Shape    string `json:"shape,omitempty"`
	Size     string `json:"size,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Equal reports whether two option sets describe the same customization.
// Cart adds merge into an existing line only when this holds.
func (o Options) Equal(other Options) bool {
	if !eqInt64Ptr(o.UnitPrice, other.UnitPrice) ||
		!eqFloatPtr(o.MaterialMultiplier, other.MaterialMultiplier) ||
		!eqInt64Ptr(o.FinishPriceModifier, other.FinishPriceModifier) ||
		!eqFloatPtr(o.ComplexityMultiplier, other.ComplexityMultiplier) {
		return false
	}
	return o.Material == other.Material &&
		o.Finish == other.Finish &&
		o.Shape == other.Shape &&
		o.Size == other.Size &&
		o.ImageURL == other.ImageURL
}

func eqInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// UnitPrice computes the effective per-unit price for a product with the
// given options. The step order and per-step rounding are load-bearing:
// the same sequence runs on the client (optimistic) and the server
// (authoritative), and any deviation makes displayed and charged totals
// diverge.
//
//  1. unit = options.UnitPrice, else product base price, else default
//  2. material multiplier, rounded
//  3. finish modifier, additive
//  4. complexity multiplier, rounded
func UnitPrice(basePrice int64, opts Options) int64 {
	unit := DefaultUnitPrice
	if opts.UnitPrice != nil {
		unit = *opts.UnitPrice
	} else if basePrice != 0 {
		unit = basePrice
	}

	if m := opts.MaterialMultiplier; m != nil && *m > 0 {
		unit = mulRound(unit, *m)
	}
	if f := opts.FinishPriceModifier; f != nil {
		unit += *f
	}
	if m := opts.ComplexityMultiplier; m != nil && *m > 0 {
		unit = mulRound(unit, *m)
	}

	if unit < 0 {
		unit = 0
	}
	return unit
}

// LineTotal is the undiscounted price for quantity units.
func LineTotal(basePrice int64, opts Options, quantity int) int64 {
	return UnitPrice(basePrice, opts) * int64(quantity)
}

// TierDiscountPercent returns the quantity-tier discount. Tiers are
// mutually exclusive: the highest applicable one wins, no stacking.
func TierDiscountPercent(quantity int) int64 {
	switch {
	case quantity >= 50:
		return 25
	case quantity >= 25:
		return 20
	case quantity >= 10:
		return 10
	default:
		return 0
	}
}

// DiscountedUnitPrice applies the quantity-tier discount to an already
// computed unit price, rounding to whole subunits.
func DiscountedUnitPrice(unit int64, quantity int) int64 {
	d := TierDiscountPercent(quantity)
	if d == 0 {
		return unit
	}
	return decimal.NewFromInt(unit).
		Mul(decimal.NewFromInt(100 - d)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// Line is one priceable cart or order line.
type Line struct {
	BasePrice int64
	Options   Options
	Quantity  int
}

// Totals is a fully priced order.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// Quote prices a set of lines: tier-discounted unit price per line,
// flat shipping, and tax on the subtotal.
func Quote(lines []Line) Totals {
	var subtotal int64
	for _, l := range lines {
		unit := UnitPrice(l.BasePrice, l.Options)
		subtotal += DiscountedUnitPrice(unit, l.Quantity) * int64(l.Quantity)
	}

	t := Totals{Subtotal: subtotal}
	if subtotal > 0 {
		t.Tax = Tax(subtotal)
		t.Shipping = ShippingFlatFee
	}
	t.Total = t.Subtotal + t.Tax + t.Shipping
	return t
}

// Tax is the flat-rate tax on a subtotal, rounded to whole subunits.
func Tax(subtotal int64) int64 {
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(TaxRatePercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

func mulRound(price int64, mult float64) int64 {
	return decimal.NewFromInt(price).
		Mul(decimal.NewFromFloat(mult)).
		Round(0).
		IntPart()
}
