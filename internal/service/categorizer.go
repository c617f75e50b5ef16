package service

import (
	"sort"

	"github.com/jask/calendarspent/internal/catalog"
	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/vendor"
)

const recentVendorLimit = 50

// categorize picks the category for a vendor: the best matching user or
// built-in rule, else Uncategorized. Callers hold e.mu.
func (e *Engine) categorize(vendorText string) string {
	if m, ok := vendor.Resolve(vendorText, e.state.VendorRules); ok && e.categoryExists(m.CategoryID) {
		return m.CategoryID
	}
	return catalog.Uncategorized
}

// CategorizeVendor reports the rule that would file vendorText.
func (e *Engine) CategorizeVendor(vendorText string) (vendor.Match, bool) {
	var (
		m  vendor.Match
		ok bool
	)
	_ = e.read(func() {
		m, ok = vendor.Resolve(vendorText, e.state.VendorRules)
		if ok && !e.categoryExists(m.CategoryID) {
			m, ok = vendor.Match{}, false
		}
	})
	return m, ok
}

// SuggestVendors ranks autocomplete names for input, favoring vendors the
// user has entered recently.
func (e *Engine) SuggestVendors(input string, limit int) []string {
	var recent []string
	_ = e.read(func() { recent = e.recentVendors() })
	return vendor.Suggest(input, recent, limit)
}

// recentVendors lists distinct vendors of live transactions, newest first.
func (e *Engine) recentVendors() []string {
	txs := model.ActiveTransactions(e.state.Transactions)
	sort.SliceStable(txs, func(i, j int) bool { return txs[j].Date.Before(txs[i].Date) })
	seen := map[string]bool{}
	var out []string
	for _, t := range txs {
		norm := vendor.Normalize(t.Vendor)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, t.Vendor)
		if len(out) == recentVendorLimit {
			break
		}
	}
	return out
}

// ApplyVendorRules files every live uncategorized transaction whose vendor
// now matches a rule. It returns how many changed.
func (e *Engine) ApplyVendorRules() (int, error) {
	n := 0
	err := e.mutate(func(now int64) error {
		for i, t := range e.state.Transactions {
			if t.Tombstoned() || t.Category != catalog.Uncategorized {
				continue
			}
			cat := e.categorize(t.Vendor)
			if cat == catalog.Uncategorized {
				continue
			}
			t.Category, t.UpdatedAt = cat, now
			e.state.Transactions[i] = t
			e.putTransaction(t)
			n++
		}
		return nil
	})
	return n, err
}
