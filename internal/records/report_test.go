package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlens/spendlens/internal/i18n"
	"github.com/spendlens/spendlens/internal/receipt"
)

func sampleRows() []receipt.Record {
	return []receipt.Record{
		// Receipt one: two rows sharing the receipt total.
		{UserID: 1, Date: "2026-08-29", Store: "Corner Shop", CheckID: "A1",
			Category: "Dairy", Product: "Milk", Quantity: 2, Price: 3.0, Total: 8.5, Currency: "EUR"},
		{UserID: 1, Date: "2026-08-29", Store: "Corner Shop", CheckID: "A1",
			Category: "Bakery", Product: "Bread", Quantity: 1, Price: 2.5, Total: 8.5, Currency: "EUR"},
		// Receipt two: next day, same store.
		{UserID: 1, Date: "2026-08-30", Store: "Corner Shop", CheckID: "A2",
			Category: "Dairy", Product: "Cheese", Quantity: 1, Price: 5.0, Total: 5.0, Currency: "EUR"},
		// Receipt three: different currency, header-only row.
		{UserID: 1, Date: "2026-08-30", Store: "Duty Free", CheckID: "B7",
			Total: 12.0, Currency: "USD"},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRows())

	assert.Equal(t, 2, s.Days)
	assert.Equal(t, 2, s.Stores)
	assert.Equal(t, 3, s.Checks)
	assert.Equal(t, 3, s.Positions)

	require.Len(t, s.Currencies, 2)

	eur := s.Currencies[0]
	assert.Equal(t, "EUR", eur.Currency)
	// 8.5 once for receipt A1 plus 5.0 for A2.
	assert.InDelta(t, 13.5, eur.Total, 1e-9)
	assert.InDelta(t, 6.75, eur.PerDay, 1e-9)
	require.Len(t, eur.Categories, 2)
	assert.Equal(t, "Dairy", eur.Categories[0].Name)
	assert.InDelta(t, 11.0, eur.Categories[0].Amount, 1e-9)
	assert.Equal(t, "Bakery", eur.Categories[1].Name)
	assert.InDelta(t, 2.5, eur.Categories[1].Amount, 1e-9)

	usd := s.Currencies[1]
	assert.Equal(t, "USD", usd.Currency)
	assert.InDelta(t, 12.0, usd.Total, 1e-9)
	// Header-only rows contribute no category spending.
	assert.Empty(t, usd.Categories)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Checks)
	assert.Empty(t, s.Currencies)
}

func TestRender(t *testing.T) {
	loc := i18n.NewCatalog()
	out := Render(loc, "en", Summarize(sampleRows()))

	assert.Contains(t, out, "days: 2")
	assert.Contains(t, out, "receipts: 3")
	assert.Contains(t, out, "unique items: 3")
	assert.Contains(t, out, "EUR: 13.50")
	assert.Contains(t, out, "Dairy: 11.00")
}

func TestRenderEmpty(t *testing.T) {
	loc := i18n.NewCatalog()
	out := Render(loc, "en", Summarize(nil))
	assert.Equal(t, "No saved receipts yet.", out)
}
