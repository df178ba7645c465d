package receipt

import (
	"strconv"
	"strings"
)

// quantityDelimiters are tried in order; the first one present in the
// line splits product name from quantity.
var quantityDelimiters = []string{" x ", " X ", "x", "X", "*"}

// ParsePrice converts a price string to a float, tolerating comma
// decimal separators and stray spaces. Unparseable input yields 0.0
// rather than an error: a bad price must not lose the whole receipt.
func ParsePrice(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, " ", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return v
}

// splitNameQuantity splits "Milk x 2" into ("Milk", 2). Lines without
// a delimiter, or with a non-numeric quantity, keep the whole text as
// the product name with quantity 1.
func splitNameQuantity(s string) (string, int64) {
	for _, delim := range quantityDelimiters {
		idx := strings.Index(s, delim)
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(s[:idx])
		qtyText := strings.TrimSpace(s[idx+len(delim):])
		qty, err := strconv.ParseInt(qtyText, 10, 64)
		if err != nil || name == "" {
			continue
		}
		return name, qty
	}
	return strings.TrimSpace(s), 1
}

// ParseItemLine parses one categorized product line of the form
// "<name> x <qty> - <unit price> - <line total>". The trailing line
// total is ignored; Records carry the receipt total instead.
func ParseItemLine(line string) (Line, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Line{}, false
	}

	parts := strings.Split(line, " - ")
	nameAndQty := strings.TrimSpace(parts[0])
	price := 0.0
	if len(parts) > 1 {
		price = ParsePrice(parts[1])
	}

	name, qty := splitNameQuantity(nameAndQty)
	if name == "" {
		return Line{}, false
	}
	return Line{Product: name, Quantity: qty, Price: price}, true
}

// ParseCategorized walks the categorized product text: a line ending
// in ":" starts a category, every other non-empty line is a product
// row in the current category.
func ParseCategorized(text string) []CategoryGroup {
	var groups []CategoryGroup

	var current *CategoryGroup
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasSuffix(line, ":") {
			groups = append(groups, CategoryGroup{
				Name: strings.TrimSpace(strings.TrimSuffix(line, ":")),
			})
			current = &groups[len(groups)-1]
			continue
		}
		item, ok := ParseItemLine(line)
		if !ok {
			continue
		}
		if current == nil {
			groups = append(groups, CategoryGroup{})
			current = &groups[len(groups)-1]
		}
		current.Items = append(current.Items, item)
	}

	// Categories that ended up empty (e.g. a header the model emitted
	// with no rows under it) are dropped.
	kept := groups[:0]
	for _, g := range groups {
		if len(g.Items) > 0 {
			kept = append(kept, g)
		}
	}
	return kept
}
