package receipt

import "errors"

// ErrNoObject is returned when the text carries no balanced JSON object.
var ErrNoObject = errors.New("receipt: no JSON object found")

// ExtractObject returns the first balanced {...} block in text. Model
// replies often wrap the object in prose or markdown fences, so the
// scanner tracks nesting depth and ignores braces inside JSON strings.
func ExtractObject(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if start >= 0 && inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrNoObject
}
