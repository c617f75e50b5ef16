package model

// Record is implemented by every synced entity.
type Record interface {
	Key() string
	Version() int64
	Tombstoned() bool
}

// Active returns the records of in that are not tombstoned.
func Active[T Record](in []T) []T {
	out := make([]T, 0, len(in))
	for _, r := range in {
		if !r.Tombstoned() {
			out = append(out, r)
		}
	}
	return out
}

func ActiveTransactions(in []Transaction) []Transaction { return Active(in) }

func ActiveCategories(in []Category) []Category { return Active(in) }

func ActiveRules(in []VendorRule) []VendorRule { return Active(in) }

func ActiveExceptions(in []RecurringException) []RecurringException { return Active(in) }

func ActiveBudgets(in []Budget) []Budget { return Active(in) }

// Index maps the keys of in to their position.
func Index[T Record](in []T) map[string]int {
	out := make(map[string]int, len(in))
	for i, r := range in {
		out[r.Key()] = i
	}
	return out
}

// CategoryNames maps active category ids to names.
func CategoryNames(cats []Category) map[string]string {
	out := make(map[string]string, len(cats))
	for _, c := range ActiveCategories(cats) {
		out[c.ID] = c.Name
	}
	return out
}
