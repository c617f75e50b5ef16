package service

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/calendarspent/internal/model"
)

const (
	duplicateWindowDays = 3
	duplicateMaxRatio   = 0.4
)

// PossibleDuplicates returns live one-off transactions that look like t:
// same amount, dated within a few days, and a similar vendor.
func (e *Engine) PossibleDuplicates(t model.Transaction) []model.Transaction {
	var out []model.Transaction
	_ = e.read(func() {
		for _, c := range model.ActiveTransactions(e.state.Transactions) {
			if c.ID != t.ID && !c.IsRecurring && looksLikeDuplicate(t, c) {
				out = append(out, c)
			}
		}
	})
	return out
}

func looksLikeDuplicate(a, b model.Transaction) bool {
	if !a.Amount.Equal(b.Amount) {
		return false
	}
	if days := a.Date.DaysUntil(b.Date); days > duplicateWindowDays || days < -duplicateWindowDays {
		return false
	}
	return vendorDistance(a.Vendor, b.Vendor) < duplicateMaxRatio
}

// vendorDistance is the edit distance of the upper-cased vendors relative
// to the longer one: 0 for equal names, 1 for nothing in common.
func vendorDistance(a, b string) float64 {
	a, b = strings.ToUpper(strings.TrimSpace(a)), strings.ToUpper(strings.TrimSpace(b))
	longest := max(len(a), len(b))
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}
