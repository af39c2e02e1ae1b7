package variants

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Field string

const (
	FieldPrice Field = "price"
	FieldStock Field = "stock"
)

// UpdateField returns a copy of skus with one field of skus[index] replaced by the
// parsed form value. Other records are shared, not cloned. An out-of-range index or
// an unknown field leaves every record as it was.
func UpdateField(skus []SKU, index int, field Field, raw string) []SKU {
	out := clone(skus)
	if index < 0 || index >= len(out) {
		return out
	}

	switch field {
	case FieldPrice:
		out[index].Price = ParsePrice(raw)
	case FieldStock:
		out[index].Stock = ParseStock(raw)
	}
	return out
}

func AttachImage(skus []SKU, index int, ref ImageRef) []SKU {
	out := clone(skus)
	if index < 0 || index >= len(out) {
		return out
	}
	out[index].Image = &ref
	return out
}

func DetachImage(skus []SKU, index int) []SKU {
	out := clone(skus)
	if index < 0 || index >= len(out) {
		return out
	}
	out[index].Image = nil
	return out
}

func clone(skus []SKU) []SKU {
	out := make([]SKU, len(skus))
	copy(out, skus)
	return out
}

// ParsePrice keeps only digits and dots, then reads the longest leading decimal
// number ("1,234.56abc" -> 1234.56, "1.2.3" -> 1.2). Nil means no usable number.
func ParsePrice(raw string) *decimal.Decimal {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	s := b.String()

	if i := strings.IndexByte(s, '.'); i >= 0 {
		if j := strings.IndexByte(s[i+1:], '.'); j >= 0 {
			s = s[:i+1+j]
		}
	}
	s = strings.TrimSuffix(s, ".")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if s == "" {
		return nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// ParseStock reads a leading, optionally signed integer; anything else yields DefaultStock.
func ParseStock(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return DefaultStock
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return DefaultStock
	}
	return n
}
