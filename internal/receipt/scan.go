package receipt

import "strings"

// Canonical header keys the normalize stage is instructed to emit.
const (
	KeyDate     = "Date"
	KeyTime     = "Time"
	KeyStore    = "Store"
	KeyCheckID  = "Check ID"
	KeyProducts = "Products"
	KeyTotal    = "Total"
	KeyCurrency = "Currency"
)

// Sections is the outcome of splitting normalized receipt text.
type Sections struct {
	// Fields holds scalar header values keyed by canonical key.
	Fields map[string]string
	// Products is the accumulated multi-line product block, kept
	// separate from the scalar fields.
	Products string
}

// SplitSections scans normalized free text line by line. A line
// containing ":" starts a new key; when the value after the colon is
// empty, following lines without a colon accumulate as that key's
// multi-line value. The product key's block is returned separately.
func SplitSections(text string) Sections {
	sections := Sections{Fields: make(map[string]string)}

	var (
		currentKey  string
		accumulate  bool
		productBuf  []string
		currentVals []string
	)

	flush := func() {
		if currentKey == "" {
			return
		}
		value := strings.TrimSpace(strings.Join(currentVals, "\n"))
		if strings.EqualFold(currentKey, KeyProducts) {
			productBuf = append(productBuf, value)
		} else if _, exists := sections.Fields[currentKey]; !exists {
			sections.Fields[currentKey] = value
		}
		currentKey = ""
		currentVals = nil
		accumulate = false
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		idx := strings.Index(line, ":")
		if idx < 0 {
			// Lines without a colon only extend a key whose value
			// portion was empty; anything else is noise.
			if accumulate {
				currentVals = append(currentVals, line)
			}
			continue
		}

		flush()
		currentKey = canonicalKey(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		if value == "" {
			accumulate = true
		} else {
			currentVals = []string{value}
		}
	}
	flush()

	sections.Products = strings.TrimSpace(strings.Join(productBuf, "\n"))
	return sections
}

// canonicalKey maps a scanned key onto the canonical spelling so that
// lookups survive case differences in model output.
func canonicalKey(key string) string {
	for _, canonical := range []string{
		KeyDate, KeyTime, KeyStore, KeyCheckID, KeyProducts, KeyTotal, KeyCurrency,
	} {
		if strings.EqualFold(key, canonical) {
			return canonical
		}
	}
	return key
}

// HeaderFrom builds a Header from scanned scalar fields.
func HeaderFrom(fields map[string]string) Header {
	return Header{
		Date:     fields[KeyDate],
		Time:     fields[KeyTime],
		Store:    fields[KeyStore],
		CheckID:  fields[KeyCheckID],
		Currency: fields[KeyCurrency],
		Total:    ParsePrice(fields[KeyTotal]),
	}
}
