package document

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one row of a sales document. Amount is always derived from
// Quantity and UnitPrice; an unset operand counts as zero.
type LineItem struct {
	ID          string              `json:"id"`
	ServiceDate *time.Time          `json:"service_date,omitempty"`
	Category    string              `json:"category"`
	Product     string              `json:"product"`
	Description string              `json:"description"`
	Quantity    decimal.NullDecimal `json:"quantity"`
	Unit        string              `json:"unit"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
	// TaxPercent is recorded on the row but does not affect any total
	TaxPercent decimal.NullDecimal `json:"tax_percent"`
	Amount     decimal.Decimal     `json:"amount"`
}

// ItemPatch is a partial update of a LineItem. Nil fields are left untouched.
type ItemPatch struct {
	ServiceDate *time.Time           `json:"service_date"`
	Category    *string              `json:"category"`
	Product     *string              `json:"product"`
	Description *string              `json:"description"`
	Quantity    *decimal.NullDecimal `json:"quantity"`
	Unit        *string              `json:"unit"`
	UnitPrice   *decimal.NullDecimal `json:"unit_price"`
	TaxPercent  *decimal.NullDecimal `json:"tax_percent"`
}

// Touches reports whether the patch changes an input of the row amount
func (p ItemPatch) Touches() bool {
	return p.Quantity != nil || p.UnitPrice != nil
}

func valueOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// amountPlaces is the precision of stored line amounts
const amountPlaces = 2

// LineAmount returns quantity * unit price rounded to cents, with unset
// operands read as zero
func LineAmount(qty, price decimal.NullDecimal) decimal.Decimal {
	return valueOrZero(qty).Mul(valueOrZero(price)).Round(amountPlaces)
}

func (it *LineItem) apply(p ItemPatch) {
	if p.ServiceDate != nil {
		sd := *p.ServiceDate
		it.ServiceDate = &sd
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.Product != nil {
		it.Product = *p.Product
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Quantity != nil {
		it.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		it.Unit = *p.Unit
	}
	if p.UnitPrice != nil {
		it.UnitPrice = *p.UnitPrice
	}
	if p.TaxPercent != nil {
		it.TaxPercent = *p.TaxPercent
	}
	it.Amount = LineAmount(it.Quantity, it.UnitPrice)
}

// newBlankItem returns the row appended by AddItem: quantity 1, price 0
func newBlankItem(id string) LineItem {
	return LineItem{
		ID:        id,
		Quantity:  decimal.NewNullDecimal(decimal.NewFromInt(1)),
		UnitPrice: decimal.NewNullDecimal(decimal.Zero),
		Amount:    decimal.Zero,
	}
}

// newStarterItem returns the empty row a freshly opened form starts with
func newStarterItem(id string) LineItem {
	return LineItem{ID: id, Amount: decimal.Zero}
}

// normalizeImported stamps an imported row with a fresh id, defaults missing
// numeric fields to zero and derives its amount
func normalizeImported(it LineItem, id string) LineItem {
	it.ID = id
	if !it.Quantity.Valid {
		it.Quantity = decimal.NewNullDecimal(decimal.Zero)
	}
	if !it.UnitPrice.Valid {
		it.UnitPrice = decimal.NewNullDecimal(decimal.Zero)
	}
	if !it.TaxPercent.Valid {
		it.TaxPercent = decimal.NewNullDecimal(decimal.Zero)
	}
	it.Amount = LineAmount(it.Quantity, it.UnitPrice)
	return it
}
