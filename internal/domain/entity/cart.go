package entity

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CartLine is one product in the cart. Name, unit and tax are captured when
// the product is added; the unit price may be overridden by the operator.
type CartLine struct {
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Unit          string          `json:"unit"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
}

// Amount is unit price times quantity
func (l CartLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// TaxAmount is the line amount times its tax rate
func (l CartLine) TaxAmount() decimal.Decimal {
	return l.Amount().Mul(l.TaxPercentage).Div(hundred)
}

// CartTotals are the derived money figures of a cart. Values are exact;
// rounding happens only when rendering.
type CartTotals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Cart is an immutable in-progress sale. Every mutation returns a new Cart
// and leaves the receiver untouched. The zero value is an empty cart.
type Cart struct {
	lines    []CartLine
	discount decimal.Decimal
}

// NewCart builds a cart from stored lines. Duplicate product ids are merged
// and quantities below 1 are raised to 1.
func NewCart(lines []CartLine, discount decimal.Decimal) Cart {
	c := Cart{discount: discount}
	for _, l := range lines {
		if l.Quantity < 1 {
			l.Quantity = 1
		}
		if i := c.index(l.ProductID); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

func (c Cart) index(productID int64) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) cloneLines() []CartLine {
	if len(c.lines) == 0 {
		return nil
	}
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Lines returns a copy of the cart lines in insertion order
func (c Cart) Lines() []CartLine {
	return c.cloneLines()
}

// Line returns the line for productID
func (c Cart) Line(productID int64) (CartLine, bool) {
	if i := c.index(productID); i >= 0 {
		return c.lines[i], true
	}
	return CartLine{}, false
}

// Discount returns the flat discount amount
func (c Cart) Discount() decimal.Decimal {
	return c.discount
}

func (c Cart) Len() int {
	return len(c.lines)
}

func (c Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// AddItem adds quantity of product. A product already in the cart has its
// quantity increased; otherwise a new line is appended. Quantities below 1
// count as 1.
func (c Cart) AddItem(p *Product, quantity int) Cart {
	if quantity < 1 {
		quantity = 1
	}
	lines := c.cloneLines()
	if i := c.index(p.ID); i >= 0 {
		lines[i].Quantity += quantity
		return Cart{lines: lines, discount: c.discount}
	}
	lines = append(lines, CartLine{
		ProductID:     p.ID,
		ProductName:   p.Name,
		Unit:          p.Unit,
		UnitPrice:     p.SellingPrice,
		Quantity:      quantity,
		TaxPercentage: p.TaxPercentage(),
	})
	return Cart{lines: lines, discount: c.discount}
}

// RemoveItem drops the line for productID; absent ids are a no-op
func (c Cart) RemoveItem(productID int64) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	lines := make([]CartLine, 0, len(c.lines)-1)
	lines = append(lines, c.lines[:i]...)
	lines = append(lines, c.lines[i+1:]...)
	return Cart{lines: lines, discount: c.discount}
}

// UpdateQuantity sets the quantity of a line, clamped to at least 1
func (c Cart) UpdateQuantity(productID int64, quantity int) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	if quantity < 1 {
		quantity = 1
	}
	lines := c.cloneLines()
	lines[i].Quantity = quantity
	return Cart{lines: lines, discount: c.discount}
}

// UpdatePrice overrides the unit price of a line. Negative prices become 0.
func (c Cart) UpdatePrice(productID int64, price decimal.Decimal) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	if price.IsNegative() {
		price = decimal.Zero
	}
	lines := c.cloneLines()
	lines[i].UnitPrice = price
	return Cart{lines: lines, discount: c.discount}
}

// SetDiscount replaces the flat discount
func (c Cart) SetDiscount(amount decimal.Decimal) Cart {
	return Cart{lines: c.cloneLines(), discount: amount}
}

// Clear returns an empty cart with no discount
func (c Cart) Clear() Cart {
	return Cart{}
}

// Total computes subtotal, tax and grand total. It is pure.
func (c Cart) Total() CartTotals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, l := range c.lines {
		subtotal = subtotal.Add(l.Amount())
		tax = tax.Add(l.TaxAmount())
	}
	return CartTotals{
		Subtotal:   subtotal,
		Tax:        tax,
		Discount:   c.discount,
		GrandTotal: subtotal.Add(tax).Sub(c.discount),
	}
}

// ParsePrice reads operator-typed price text. Anything that is not a finite,
// non-negative number yields 0.
func ParsePrice(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

type cartJSON struct {
	Lines          []CartLine      `json:"lines"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

func (c Cart) MarshalJSON() ([]byte, error) {
	lines := c.lines
	if lines == nil {
		lines = []CartLine{}
	}
	return json.Marshal(cartJSON{Lines: lines, DiscountAmount: c.discount})
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var raw cartJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = NewCart(raw.Lines, raw.DiscountAmount)
	return nil
}
