package variants

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Combinations returns the cartesian product of all usable axes, axis-major and
// option-minor in input order. Axes without a name or without options are skipped,
// as are blank and repeated options. If no axis is usable the result is empty.
func Combinations(axes []Axis) [][]string {
	combos := [][]string{{}}
	used := 0
	for _, ax := range axes {
		opts := usableOptions(ax)
		if len(opts) == 0 {
			continue
		}
		used++

		next := make([][]string, 0, len(combos)*len(opts))
		for _, c := range combos {
			for _, opt := range opts {
				row := make([]string, len(c), len(c)+1)
				copy(row, c)
				next = append(next, append(row, opt))
			}
		}
		combos = next
	}
	if used == 0 {
		return nil
	}
	return combos
}

func usableOptions(ax Axis) []string {
	if strings.TrimSpace(ax.Name) == "" {
		return nil
	}
	seen := make(map[string]struct{}, len(ax.Options))
	out := make([]string, 0, len(ax.Options))
	for _, o := range ax.Options {
		if strings.TrimSpace(o) == "" {
			continue
		}
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

// AxisNames returns the names of the axes that contribute to Combinations.
func AxisNames(axes []Axis) []string {
	out := make([]string, 0, len(axes))
	for _, ax := range axes {
		if len(usableOptions(ax)) > 0 {
			out = append(out, ax.Name)
		}
	}
	return out
}

func Key(options []string) string {
	return strings.Join(options, KeySeparator)
}

// Expand rebuilds the SKU list for axes. Price, stock and image survive for every
// key that still exists in previous; new keys get defaultPrice and DefaultStock.
func Expand(axes []Axis, previous []SKU, defaultPrice decimal.Decimal) []SKU {
	combos := Combinations(axes)
	if len(combos) == 0 {
		return []SKU{}
	}

	prevByKey := make(map[string]SKU, len(previous))
	for _, p := range previous {
		if _, ok := prevByKey[p.CombinationKey]; !ok {
			prevByKey[p.CombinationKey] = p
		}
	}

	out := make([]SKU, 0, len(combos))
	emitted := make(map[string]struct{}, len(combos))
	for _, opts := range combos {
		key := Key(opts)
		// "A-B"+"C" and "A"+"B-C" join to the same key
		if _, dup := emitted[key]; dup {
			continue
		}
		emitted[key] = struct{}{}

		sku := SKU{CombinationKey: key, Options: opts}

		if p, ok := prevByKey[key]; ok {
			sku.Price = p.Price
			sku.Stock = p.Stock
			sku.Image = p.Image
		} else {
			price := defaultPrice
			sku.Price = &price
			sku.Stock = DefaultStock
		}
		out = append(out, sku)
	}
	return out
}
