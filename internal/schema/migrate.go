// Package schema brings stored records forward to the current shape.
//
// Migrate canonicalizes categories and every reference to them; it is
// idempotent and runs at load, after a cloud merge and on backup import.
// Upgrade runs the version-ordered chain for data written by older clients.
package schema

import (
	"time"

	"github.com/jask/calendarspent/internal/catalog"
	"github.com/jask/calendarspent/internal/model"
)

// Result is the output of Migrate.
type Result struct {
	Categories   []model.Category
	Transactions []model.Transaction
	VendorRules  []model.VendorRule
	Changed      bool

	// Remap lists the category ids that were folded into another one.
	Remap map[string]string
}

// nowMillis backfills missing creation stamps.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// Migrate maps legacy and duplicate categories onto canonical ones, always
// includes the system categories (first, in catalog order), and points every
// live transaction and vendor rule at an existing category, falling back to
// Uncategorized. Inputs are not modified.
func Migrate(categories []model.Category, transactions []model.Transaction, rules []model.VendorRule) Result {
	remap := map[string]string{}
	res := Result{Remap: remap}

	system := catalog.SystemCategories()
	sysIndex := make(map[string]int, len(system))
	for i, c := range system {
		sysIndex[c.ID] = i
	}
	sysSeen := map[string]bool{}

	// stored copies of system categories keep user edits
	for _, c := range categories {
		i, ok := sysIndex[c.ID]
		if !ok || sysSeen[c.ID] {
			continue
		}
		sysSeen[c.ID] = true
		if c.Tombstoned() {
			c.DeletedAt = 0
			res.Changed = true
		}
		if coerceGroup(&c) {
			res.Changed = true
		}
		system[i] = c
	}
	if len(sysSeen) != len(system) {
		res.Changed = true
	}

	byName := make(map[string]string, len(system)+len(categories))
	for _, c := range system {
		byName[catalog.NormalizeName(c.Name)] = c.ID
	}

	keptIDs := map[string]bool{}
	var custom []model.Category
	for _, c := range categories {
		if _, ok := sysIndex[c.ID]; ok {
			if keptIDs[c.ID] {
				res.Changed = true
			}
			keptIDs[c.ID] = true
			continue
		}
		if keptIDs[c.ID] {
			res.Changed = true
			continue
		}
		if c.Tombstoned() {
			keptIDs[c.ID] = true
			custom = append(custom, c)
			continue
		}
		name := catalog.NormalizeName(c.Name)
		if target, ok := catalog.LegacyLabels[name]; ok {
			remap[c.ID] = target
			res.Changed = true
			continue
		}
		if existing, ok := byName[name]; ok {
			remap[c.ID] = existing
			res.Changed = true
			continue
		}
		if coerceGroup(&c) {
			res.Changed = true
		}
		byName[name] = c.ID
		keptIDs[c.ID] = true
		custom = append(custom, c)
	}

	res.Categories = append(system, custom...)

	valid := make(map[string]bool, len(res.Categories))
	for _, c := range model.ActiveCategories(res.Categories) {
		valid[c.ID] = true
	}
	resolve := func(id string) string {
		if t, ok := remap[id]; ok {
			id = t
		}
		if valid[id] {
			return id
		}
		if t, ok := catalog.LegacyLabels[catalog.NormalizeName(id)]; ok && valid[t] {
			return t
		}
		return catalog.Uncategorized
	}

	res.Transactions = make([]model.Transaction, len(transactions))
	for i, t := range transactions {
		if !t.Tombstoned() {
			if id := resolve(t.Category); id != t.Category {
				t.Category = id
				res.Changed = true
			}
		}
		res.Transactions[i] = t
	}

	res.VendorRules = make([]model.VendorRule, len(rules))
	for i, r := range rules {
		if migrateRule(&r, resolve) {
			res.Changed = true
		}
		res.VendorRules[i] = r
	}
	return res
}

func migrateRule(r *model.VendorRule, resolve func(string) string) bool {
	changed := false
	if r.LegacyVendor != "" {
		if r.VendorContains == "" {
			r.VendorContains = r.LegacyVendor
		}
		r.LegacyVendor = ""
		changed = true
	}
	if r.Source == "" {
		r.Source = model.SourceUser
		changed = true
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = r.UpdatedAt
		if r.CreatedAt == 0 {
			r.CreatedAt = nowMillis()
		}
		changed = true
	}
	if !r.Tombstoned() {
		if id := resolve(r.CategoryID); id != r.CategoryID {
			r.CategoryID = id
			changed = true
		}
	}
	return changed
}

// coerceGroup replaces a missing or unknown group with its canonical form,
// or Other.
func coerceGroup(c *model.Category) bool {
	g, ok := catalog.CanonicalGroup(c.Group)
	if !ok {
		g = catalog.GroupOther
	}
	if g == c.Group {
		return false
	}
	c.Group = g
	return true
}

// Apply runs Migrate over s in place and reports whether anything changed.
// Budgets follow their category when it is folded into another one and are
// tombstoned when it no longer exists.
func Apply(s *model.Snapshot) bool {
	res := Migrate(s.Categories, s.Transactions, s.VendorRules)
	s.Categories, s.Transactions, s.VendorRules = res.Categories, res.Transactions, res.VendorRules
	changed := res.Changed

	valid := map[string]bool{}
	for _, c := range model.ActiveCategories(s.Categories) {
		valid[c.ID] = true
	}
	taken := map[string]bool{}
	for _, b := range model.ActiveBudgets(s.Budgets) {
		taken[b.CategoryID] = true
	}
	for i, b := range s.Budgets {
		if b.Tombstoned() || valid[b.CategoryID] {
			continue
		}
		if target, ok := res.Remap[b.CategoryID]; ok && valid[target] && !taken[target] {
			s.Budgets[i].CategoryID = target
			taken[target] = true
		} else {
			s.Budgets[i].DeletedAt = max(b.UpdatedAt, 1)
		}
		changed = true
	}
	return changed
}
