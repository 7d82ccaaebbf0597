package entity

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func product(id int64, price, gst string) *Product {
	p := &Product{ID: id, Name: "Product", Unit: "pcs", SellingPrice: dec(price)}
	if gst != "" {
		g := dec(gst)
		p.GSTPercentage = &g
	}
	return p
}

func TestCart_AddItemMergesByProduct(t *testing.T) {
	var cart Cart
	adds := []struct {
		id  int64
		qty int
	}{{1, 2}, {2, 1}, {1, 3}, {3, 1}, {2, 4}}

	for _, a := range adds {
		cart = cart.AddItem(product(a.id, "10", ""), a.qty)
	}

	lines := cart.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{lines[0].ProductID, lines[1].ProductID, lines[2].ProductID})
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 5, lines[1].Quantity)
	assert.Equal(t, 1, lines[2].Quantity)
}

func TestCart_AddItemSnapshotsProduct(t *testing.T) {
	p := product(7, "99.50", "12")
	p.Name = "Rice 5kg"
	p.Unit = "bag"

	cart := Cart{}.AddItem(p, 1)
	p.SellingPrice = dec("120")

	line, ok := cart.Line(7)
	require.True(t, ok)
	assert.Equal(t, "Rice 5kg", line.ProductName)
	assert.Equal(t, "bag", line.Unit)
	assert.True(t, line.UnitPrice.Equal(dec("99.50")))
	assert.True(t, line.TaxPercentage.Equal(dec("12")))
}

func TestCart_AddItemWithoutTaxDefaultsToZero(t *testing.T) {
	cart := Cart{}.AddItem(product(1, "10", ""), 1)
	line, _ := cart.Line(1)
	assert.True(t, line.TaxPercentage.IsZero())
}

func TestCart_TotalExample(t *testing.T) {
	cart := Cart{}.
		AddItem(product(1, "100", "18"), 2).
		AddItem(product(2, "50", ""), 1).
		SetDiscount(dec("20"))

	totals := cart.Total()
	assert.True(t, totals.Subtotal.Equal(dec("250")), totals.Subtotal.String())
	assert.True(t, totals.Tax.Equal(dec("36")), totals.Tax.String())
	assert.True(t, totals.Discount.Equal(dec("20")))
	assert.True(t, totals.GrandTotal.Equal(dec("266")), totals.GrandTotal.String())
}

func TestCart_TotalIsPure(t *testing.T) {
	cart := Cart{}.AddItem(product(1, "19.99", "5"), 3).SetDiscount(dec("1.5"))
	assert.Equal(t, cart.Total(), cart.Total())
}

func TestCart_RemoveItemExcludesLine(t *testing.T) {
	cart := Cart{}.
		AddItem(product(1, "100", "18"), 2).
		AddItem(product(2, "50", ""), 1)

	after := cart.RemoveItem(1)

	assert.Equal(t, 1, after.Len())
	assert.True(t, after.Total().Subtotal.Equal(dec("50")))
	assert.True(t, after.Total().Tax.IsZero())
	assert.Equal(t, 2, cart.Len(), "receiver must not change")
	assert.Equal(t, after, after.RemoveItem(42))
}

func TestCart_ClearResetsEverything(t *testing.T) {
	cart := Cart{}.AddItem(product(1, "100", "18"), 2).SetDiscount(dec("20")).Clear()

	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Discount().IsZero())
	totals := cart.Total()
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.GrandTotal.IsZero())
}

func TestCart_UpdateQuantityClamps(t *testing.T) {
	cart := Cart{}.AddItem(product(1, "10", ""), 5)

	tests := []struct {
		name string
		qty  int
		want int
	}{
		{"positive", 3, 3},
		{"zero", 0, 1},
		{"negative", -4, 1},
		{"large", 10000, 10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, _ := cart.UpdateQuantity(1, tt.qty).Line(1)
			assert.Equal(t, tt.want, line.Quantity)
		})
	}
}

func TestCart_UpdatePriceFromOperatorText(t *testing.T) {
	cart := Cart{}.AddItem(product(1, "10", ""), 1)

	tests := []struct {
		raw  string
		want string
	}{
		{"12.75", "12.75"},
		{" 8 ", "8"},
		{"", "0"},
		{"abc", "0"},
		{"NaN", "0"},
		{"Inf", "0"},
		{"-5", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			line, _ := cart.UpdatePrice(1, ParsePrice(tt.raw)).Line(1)
			assert.True(t, line.UnitPrice.Equal(dec(tt.want)), line.UnitPrice.String())
		})
	}
}

func TestCart_MutationsOnUnknownProductAreNoops(t *testing.T) {
	cart := Cart{}.AddItem(product(1, "10", ""), 1)
	assert.Equal(t, cart, cart.UpdateQuantity(9, 4))
	assert.Equal(t, cart, cart.UpdatePrice(9, dec("1")))
}

func TestCart_JSONRoundTripKeepsOrderAndDiscount(t *testing.T) {
	cart := Cart{}.
		AddItem(product(3, "5", ""), 1).
		AddItem(product(1, "7.25", "18"), 2).
		SetDiscount(dec("3"))

	data, err := json.Marshal(cart)
	require.NoError(t, err)

	var restored Cart
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, cart.Len(), restored.Len())
	assert.Equal(t, int64(3), restored.Lines()[0].ProductID)
	assert.True(t, restored.Total().GrandTotal.Equal(cart.Total().GrandTotal))
}

func TestNewCart_MergesDuplicateLines(t *testing.T) {
	cart := NewCart([]CartLine{
		{ProductID: 1, Quantity: 2, UnitPrice: dec("1")},
		{ProductID: 1, Quantity: 0, UnitPrice: dec("1")},
	}, decimal.Zero)

	require.Equal(t, 1, cart.Len())
	line, _ := cart.Line(1)
	assert.Equal(t, 3, line.Quantity)
}
