package model

// Snapshot holds every collection of one user's data.
type Snapshot struct {
	Transactions []Transaction
	Categories   []Category
	VendorRules  []VendorRule
	Exceptions   []RecurringException
	Budgets      []Budget
	Settings     *Settings
}

// Clone returns a copy whose slices can be mutated independently.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Transactions: append([]Transaction(nil), s.Transactions...),
		Categories:   append([]Category(nil), s.Categories...),
		VendorRules:  append([]VendorRule(nil), s.VendorRules...),
		Exceptions:   append([]RecurringException(nil), s.Exceptions...),
		Budgets:      append([]Budget(nil), s.Budgets...),
	}
	if s.Settings != nil {
		st := *s.Settings
		st.DefaultCategoryFilter = append([]string(nil), s.Settings.DefaultCategoryFilter...)
		out.Settings = &st
	}
	return out
}
