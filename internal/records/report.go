package records

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spendlens/spendlens/internal/i18n"
	"github.com/spendlens/spendlens/internal/receipt"
)

// CategoryTotal is spending within one category of one currency.
type CategoryTotal struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// CurrencySummary is the per-currency slice of the report. Receipts
// without a currency mark are grouped under the empty string.
type CurrencySummary struct {
	Currency   string          `json:"currency"`
	Total      float64         `json:"total"`
	PerDay     float64         `json:"per_day"`
	Categories []CategoryTotal `json:"categories,omitempty"`
}

// Summary is the aggregate a user's saved receipts roll up into.
type Summary struct {
	Days       int               `json:"days"`
	Stores     int               `json:"stores"`
	Checks     int               `json:"checks"`
	Positions  int               `json:"positions"`
	Currencies []CurrencySummary `json:"currencies,omitempty"`
}

// checkKey identifies one physical receipt. Store and date are part of
// the key because fiscal numbers repeat across stores.
func checkKey(r receipt.Record) string {
	return r.Store + "\x00" + r.Date + "\x00" + r.CheckID
}

// Summarize rolls saved rows up into a report. Receipt totals are
// counted once per receipt even though every row repeats them.
func Summarize(rows []receipt.Record) Summary {
	var s Summary

	days := map[string]struct{}{}
	stores := map[string]struct{}{}
	checks := map[string]struct{}{}
	positions := map[string]struct{}{}

	type currencyAgg struct {
		checkTotals map[string]float64
		days        map[string]struct{}
		categories  map[string]float64
	}
	currencies := map[string]*currencyAgg{}

	for _, r := range rows {
		days[r.Date] = struct{}{}
		if r.Store != "" {
			stores[r.Store] = struct{}{}
		}
		checks[checkKey(r)] = struct{}{}
		if r.Product != "" {
			positions[strings.ToLower(r.Product)] = struct{}{}
		}

		agg := currencies[r.Currency]
		if agg == nil {
			agg = &currencyAgg{
				checkTotals: map[string]float64{},
				days:        map[string]struct{}{},
				categories:  map[string]float64{},
			}
			currencies[r.Currency] = agg
		}
		agg.checkTotals[checkKey(r)] = r.Total
		agg.days[r.Date] = struct{}{}
		if r.Product != "" {
			agg.categories[r.Category] += r.Price * float64(r.Quantity)
		}
	}

	s.Days = len(days)
	s.Stores = len(stores)
	s.Checks = len(checks)
	s.Positions = len(positions)

	for currency, agg := range currencies {
		cs := CurrencySummary{Currency: currency}
		for _, total := range agg.checkTotals {
			cs.Total += total
		}
		if n := len(agg.days); n > 0 {
			cs.PerDay = cs.Total / float64(n)
		}
		for name, amount := range agg.categories {
			cs.Categories = append(cs.Categories, CategoryTotal{Name: name, Amount: amount})
		}
		sort.Slice(cs.Categories, func(i, j int) bool {
			if cs.Categories[i].Amount != cs.Categories[j].Amount {
				return cs.Categories[i].Amount > cs.Categories[j].Amount
			}
			return cs.Categories[i].Name < cs.Categories[j].Name
		})
		s.Currencies = append(s.Currencies, cs)
	}
	sort.Slice(s.Currencies, func(i, j int) bool {
		return s.Currencies[i].Total > s.Currencies[j].Total
	})

	return s
}

// Render formats the summary as a chat message.
func Render(loc i18n.Localizer, locale string, s Summary) string {
	if s.Checks == 0 {
		return loc.Message(locale, "report_empty")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", loc.Message(locale, "report_period"))
	fmt.Fprintf(&b, "%s %d\n", loc.Message(locale, "report_days"), s.Days)
	fmt.Fprintf(&b, "%s %d\n", loc.Message(locale, "report_stores"), s.Stores)
	fmt.Fprintf(&b, "%s %d\n", loc.Message(locale, "report_checks"), s.Checks)
	fmt.Fprintf(&b, "%s %d\n", loc.Message(locale, "report_positions"), s.Positions)

	for _, cs := range s.Currencies {
		currency := cs.Currency
		if currency == "" {
			currency = "?"
		}
		fmt.Fprintf(&b, "\n%s %s: %.2f (%.2f / %s)\n",
			loc.Message(locale, "report_total"), currency,
			cs.Total, cs.PerDay, loc.Message(locale, "report_per_day"))
		if len(cs.Categories) > 0 {
			fmt.Fprintf(&b, "%s:\n", loc.Message(locale, "report_categories"))
			for _, c := range cs.Categories {
				name := c.Name
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(&b, "  %s: %.2f\n", name, c.Amount)
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
