package forms

import (
	"fmt"
	"strings"

	"github.com/wudi/pdfmarkup/annotation"
)

// SetupCommonCalculations guesses invoice totals from field names: a
// subtotal sums the amount fields, tax is 10% of the subtotal and the
// total adds both. Fields that already carry a script are left alone.
// It returns updated copies.
func SetupCommonCalculations(fields []annotation.FormField) []annotation.FormField {
	out := make([]annotation.FormField, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}

	var amounts []string
	subtotal, tax := -1, -1
	var totals []int
	for i, f := range out {
		switch {
		case nameHas(f.Name, "subtotal", "小計"):
			if subtotal < 0 {
				subtotal = i
			}
		case nameHas(f.Name, "tax", "税"):
			if tax < 0 {
				tax = i
			}
		case nameHas(f.Name, "total", "合計"):
			totals = append(totals, i)
		case nameHas(f.Name, "amount", "金額"):
			amounts = append(amounts, f.Name)
		}
	}
	if subtotal < 0 || len(amounts) == 0 {
		return out
	}
	set := func(i int, script string) {
		if out[i].CalculationScript == "" {
			out[i].CalculationScript = script
		}
	}
	sub := out[subtotal].Name
	set(subtotal, fmt.Sprintf("sum(%s)", strings.Join(amounts, ", ")))
	if tax >= 0 {
		set(tax, fmt.Sprintf("multiply(%s, 0.1)", sub))
		for _, i := range totals {
			set(i, fmt.Sprintf("add(%s, %s)", sub, out[tax].Name))
		}
	} else {
		for _, i := range totals {
			set(i, fmt.Sprintf("sum(%s)", sub))
		}
	}
	return out
}

func nameHas(name string, needles ...string) bool {
	lower := strings.ToLower(name)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
