package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/calendarspent/internal/catalog"
	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/report"
	"github.com/jask/calendarspent/internal/vendor"
)

const defaultColor = "#9ca3af"

// checkCategory validates c against the live categories other than c.ID
// and fills in defaults for an empty icon, color or group. Custom
// categories may not take a reserved name, which loading would merge into
// a system category.
func (e *Engine) checkCategory(c *model.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	norm := catalog.NormalizeName(c.Name)
	if norm == "" {
		return ErrEmptyName
	}
	for _, other := range model.ActiveCategories(e.state.Categories) {
		if other.ID != c.ID && catalog.NormalizeName(other.Name) == norm {
			return ErrDuplicateName
		}
	}
	if !catalog.IsSystem(c.ID) && catalog.Reserved(c.Name) {
		return ErrDuplicateName
	}

	if c.Group == "" {
		c.Group = catalog.GroupOther
	} else if g, ok := catalog.CanonicalGroup(c.Group); ok {
		c.Group = g
	} else {
		return ErrInvalidGroup
	}
	if c.Icon == "" {
		c.Icon = catalog.IconTag
	} else if !catalog.ValidIcon(c.Icon) {
		return ErrInvalidIcon
	}
	if c.Color == "" {
		c.Color = defaultColor
	} else if !catalog.ValidColor(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (e *Engine) findCategory(id string) int {
	for i, c := range e.state.Categories {
		if c.ID == id && !c.Tombstoned() {
			return i
		}
	}
	return -1
}

// AddCategory creates a user category.
func (e *Engine) AddCategory(c model.Category) (model.Category, error) {
	err := e.mutate(func(now int64) error {
		c.ID = uuid.NewString()
		if err := e.checkCategory(&c); err != nil {
			return err
		}
		c.UpdatedAt, c.DeletedAt = now, 0
		e.state.Categories = append(e.state.Categories, c)
		e.putCategory(c)
		return nil
	})
	return c, err
}

// UpdateCategory edits name, icon, color and group of c.ID. System
// categories may be edited but keep their id.
func (e *Engine) UpdateCategory(c model.Category) (model.Category, error) {
	err := e.mutate(func(now int64) error {
		i := e.findCategory(c.ID)
		if i < 0 {
			return ErrNotFound
		}
		if err := e.checkCategory(&c); err != nil {
			return err
		}
		c.UpdatedAt, c.DeletedAt = now, 0
		e.state.Categories[i] = c
		e.putCategory(c)
		return nil
	})
	return c, err
}

// DeleteCategory moves everything filed under id to Uncategorized, then
// tombstones the category.
func (e *Engine) DeleteCategory(id string) error {
	return e.mutate(func(now int64) error {
		if catalog.IsSystem(id) {
			return ErrSystemCategory
		}
		i := e.findCategory(id)
		if i < 0 {
			return ErrNotFound
		}

		for j, t := range e.state.Transactions {
			if t.Category == id && !t.Tombstoned() {
				t.Category, t.UpdatedAt = catalog.Uncategorized, now
				e.state.Transactions[j] = t
				e.putTransaction(t)
			}
		}
		for j, r := range e.state.VendorRules {
			if r.CategoryID == id && !r.Tombstoned() {
				r.CategoryID, r.UpdatedAt = catalog.Uncategorized, now
				e.state.VendorRules[j] = r
				e.putRule(r)
			}
		}
		if j := e.findBudget(id); j >= 0 {
			b := e.state.Budgets[j]
			b.DeletedAt = now
			e.state.Budgets[j] = b
			e.putBudget(b)
			if e.findBudget(catalog.Uncategorized) < 0 {
				e.setBudget(catalog.Uncategorized, b.MonthlyLimit, now)
			}
		}

		c := e.state.Categories[i]
		c.DeletedAt = now
		e.state.Categories[i] = c
		e.putCategory(c)
		return nil
	})
}

// Categories returns the live categories in display order.
func (e *Engine) Categories() []model.Category {
	var out []model.Category
	_ = e.read(func() { out = model.ActiveCategories(e.state.Categories) })
	return out
}

func (e *Engine) findRule(id string) int {
	for i, r := range e.state.VendorRules {
		if r.ID == id && !r.Tombstoned() {
			return i
		}
	}
	return -1
}

// AddVendorRule files vendors containing vendorText under categoryID. A
// live user rule for the same vendor is re-pointed instead of duplicated.
func (e *Engine) AddVendorRule(vendorText, categoryID string) (model.VendorRule, error) {
	var out model.VendorRule
	err := e.mutate(func(now int64) error {
		vendorText = strings.TrimSpace(vendorText)
		norm := vendor.Normalize(vendorText)
		if norm == "" {
			return ErrEmptyVendor
		}
		if !e.categoryExists(categoryID) {
			return ErrUnknownCategory
		}
		for i, r := range e.state.VendorRules {
			if !r.Tombstoned() && vendor.Normalize(r.VendorContains) == norm {
				r.CategoryID, r.UpdatedAt = categoryID, now
				e.state.VendorRules[i] = r
				e.putRule(r)
				out = r
				return nil
			}
		}
		out = model.VendorRule{
			ID:             uuid.NewString(),
			VendorContains: vendorText,
			CategoryID:     categoryID,
			Source:         model.SourceUser,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		e.state.VendorRules = append(e.state.VendorRules, out)
		e.putRule(out)
		return nil
	})
	return out, err
}

// UpdateVendorRule changes the vendor text and category of r.ID.
func (e *Engine) UpdateVendorRule(r model.VendorRule) (model.VendorRule, error) {
	err := e.mutate(func(now int64) error {
		i := e.findRule(r.ID)
		if i < 0 {
			return ErrNotFound
		}
		r.VendorContains = strings.TrimSpace(r.VendorContains)
		if vendor.Normalize(r.VendorContains) == "" {
			return ErrEmptyVendor
		}
		if !e.categoryExists(r.CategoryID) {
			return ErrUnknownCategory
		}
		old := e.state.VendorRules[i]
		old.VendorContains, old.CategoryID, old.UpdatedAt = r.VendorContains, r.CategoryID, now
		e.state.VendorRules[i] = old
		e.putRule(old)
		r = old
		return nil
	})
	return r, err
}

// DeleteVendorRule tombstones rule id.
func (e *Engine) DeleteVendorRule(id string) error {
	return e.mutate(func(now int64) error {
		i := e.findRule(id)
		if i < 0 {
			return ErrNotFound
		}
		r := e.state.VendorRules[i]
		r.DeletedAt = now
		e.state.VendorRules[i] = r
		e.putRule(r)
		return nil
	})
}

// VendorRules returns the live user rules.
func (e *Engine) VendorRules() []model.VendorRule {
	var out []model.VendorRule
	_ = e.read(func() { out = model.ActiveRules(e.state.VendorRules) })
	return out
}

func (e *Engine) findBudget(categoryID string) int {
	for i, b := range e.state.Budgets {
		if b.CategoryID == categoryID && !b.Tombstoned() {
			return i
		}
	}
	return -1
}

func (e *Engine) setBudget(categoryID string, limit decimal.Decimal, now int64) model.Budget {
	b := model.Budget{CategoryID: categoryID, MonthlyLimit: limit, UpdatedAt: now}
	replaced := false
	for i, old := range e.state.Budgets {
		if old.CategoryID == categoryID {
			e.state.Budgets[i] = b
			replaced = true
			break
		}
	}
	if !replaced {
		e.state.Budgets = append(e.state.Budgets, b)
	}
	e.putBudget(b)
	return b
}

// SetBudget sets the monthly limit of a category.
func (e *Engine) SetBudget(categoryID string, limit decimal.Decimal) (model.Budget, error) {
	var out model.Budget
	err := e.mutate(func(now int64) error {
		if !limit.IsPositive() {
			return ErrInvalidBudgetLimit
		}
		if !e.categoryExists(categoryID) {
			return ErrUnknownCategory
		}
		out = e.setBudget(categoryID, limit, now)
		return nil
	})
	return out, err
}

// RemoveBudget drops the limit of a category.
func (e *Engine) RemoveBudget(categoryID string) error {
	return e.mutate(func(now int64) error {
		i := e.findBudget(categoryID)
		if i < 0 {
			return ErrNotFound
		}
		b := e.state.Budgets[i]
		b.DeletedAt = now
		e.state.Budgets[i] = b
		e.putBudget(b)
		return nil
	})
}

// Settings returns a copy of the settings record.
func (e *Engine) Settings() model.Settings {
	var out model.Settings
	_ = e.read(func() {
		out = *e.state.Clone().Settings
	})
	return out
}

// UpdateSettings merges p into the settings. Nothing is written when p
// changes nothing.
func (e *Engine) UpdateSettings(p model.SettingsPatch) (model.Settings, error) {
	var out model.Settings
	err := e.mutate(func(now int64) error {
		if p.Currency != nil {
			code := strings.ToUpper(strings.TrimSpace(*p.Currency))
			if !report.ValidCurrency(code) {
				return ErrInvalidCurrency
			}
			p.Currency = &code
		}
		if p.DefaultCategoryFilter != nil {
			for _, id := range *p.DefaultCategoryFilter {
				if !e.categoryExists(id) {
					return ErrUnknownCategory
				}
			}
		}
		st := e.state.Clone().Settings
		if p.Apply(st) {
			st.UpdatedAt = now
			e.state.Settings = st
			e.putSettings()
		}
		out = *st
		return nil
	})
	return out, err
}
