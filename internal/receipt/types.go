// Package receipt turns OCR output or scanned documents into
// structured line-item records through a staged extraction pipeline.
package receipt

// Line is one parsed product row of a receipt.
type Line struct {
	Product  string
	Quantity int64
	Price    float64
}

// CategoryGroup keeps category order stable between extraction and
// preview rendering.
type CategoryGroup struct {
	Name  string
	Items []Line
}

// Header carries the receipt-level fields shared by every line.
type Header struct {
	Date     string
	Time     string
	Store    string
	CheckID  string
	Currency string
	Total    float64
}

// Draft is an extracted-but-unconfirmed receipt. It lives only in
// per-user session state until accepted or discarded.
type Draft struct {
	Header     Header
	Categories []CategoryGroup
}

// Record is one durable row of the check_items table. Total is the
// receipt-level total, deliberately repeated on every line of one
// receipt.
type Record struct {
	UserID   int64
	Date     string
	Time     string
	Store    string
	CheckID  string
	Category string
	Product  string
	Quantity int64
	Price    float64
	Total    float64
	Currency string
}

// Records flattens the draft into persistable rows. A draft with no
// product lines still yields one header-only record so the receipt
// total is not lost.
func (d Draft) Records(userID int64) []Record {
	base := Record{
		UserID:   userID,
		Date:     d.Header.Date,
		Time:     d.Header.Time,
		Store:    d.Header.Store,
		CheckID:  d.Header.CheckID,
		Total:    d.Header.Total,
		Currency: d.Header.Currency,
	}

	var records []Record
	for _, group := range d.Categories {
		for _, item := range group.Items {
			r := base
			r.Category = group.Name
			r.Product = item.Product
			r.Quantity = item.Quantity
			r.Price = item.Price
			records = append(records, r)
		}
	}
	if len(records) == 0 {
		records = append(records, base)
	}
	return records
}

// ItemCount returns the number of product lines across all categories.
func (d Draft) ItemCount() int {
	n := 0
	for _, group := range d.Categories {
		n += len(group.Items)
	}
	return n
}
