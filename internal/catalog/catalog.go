// Package catalog holds the fixed tables shipped with the app: canonical
// groups, system categories, legacy labels, icons and the built-in vendor
// rules.
package catalog

import (
	"strings"

	"github.com/jask/calendarspent/internal/model"
)

// Canonical groups.
const (
	GroupFood          model.Group = "Food & Drink"
	GroupTransport     model.Group = "Transportation"
	GroupHousing       model.Group = "Housing"
	GroupBills         model.Group = "Bills & Utilities"
	GroupShopping      model.Group = "Shopping"
	GroupEntertainment model.Group = "Entertainment"
	GroupHealth        model.Group = "Health"
	GroupTravel        model.Group = "Travel"
	GroupPersonal      model.Group = "Personal"
	GroupOther         model.Group = "Other"
)

// Groups lists the canonical groups in display order.
var Groups = []model.Group{
	GroupFood, GroupTransport, GroupHousing, GroupBills, GroupShopping,
	GroupEntertainment, GroupHealth, GroupTravel, GroupPersonal, GroupOther,
}

// CanonicalGroup returns the canonical spelling of g, matched
// case-insensitively.
func CanonicalGroup(g model.Group) (model.Group, bool) {
	want := strings.ToLower(strings.TrimSpace(string(g)))
	for _, c := range Groups {
		if strings.ToLower(string(c)) == want {
			return c, true
		}
	}
	return "", false
}

// Well-known system category ids.
const (
	Uncategorized = "uncategorized"
	Groceries     = "groceries"
	Dining        = "dining"
	Coffee        = "coffee"
	Transport     = "transport"
	Fuel          = "fuel"
	Rent          = "rent"
	Utilities     = "utilities"
	Subscriptions = "subscriptions"
	Shopping      = "shopping"
	Entertainment = "entertainment"
	Health        = "health"
	Travel        = "travel"
	Personal      = "personal"
)

var systemCategories = []model.Category{
	{ID: Uncategorized, Name: "Uncategorized", Icon: IconTag, Color: "#9ca3af", Group: GroupOther},
	{ID: Groceries, Name: "Groceries", Icon: IconCart, Color: "#22c55e", Group: GroupFood},
	{ID: Dining, Name: "Dining Out", Icon: IconUtensils, Color: "#f97316", Group: GroupFood},
	{ID: Coffee, Name: "Coffee", Icon: IconCoffee, Color: "#a16207", Group: GroupFood},
	{ID: Transport, Name: "Transport", Icon: IconCar, Color: "#3b82f6", Group: GroupTransport},
	{ID: Fuel, Name: "Fuel", Icon: IconFuel, Color: "#0ea5e9", Group: GroupTransport},
	{ID: Rent, Name: "Rent", Icon: IconHome, Color: "#8b5cf6", Group: GroupHousing},
	{ID: Utilities, Name: "Utilities", Icon: IconBolt, Color: "#eab308", Group: GroupBills},
	{ID: Subscriptions, Name: "Subscriptions", Icon: IconRepeat, Color: "#ec4899", Group: GroupBills},
	{ID: Shopping, Name: "Shopping", Icon: IconBag, Color: "#14b8a6", Group: GroupShopping},
	{ID: Entertainment, Name: "Entertainment", Icon: IconFilm, Color: "#f43f5e", Group: GroupEntertainment},
	{ID: Health, Name: "Health", Icon: IconHeart, Color: "#ef4444", Group: GroupHealth},
	{ID: Travel, Name: "Travel", Icon: IconPlane, Color: "#06b6d4", Group: GroupTravel},
	{ID: Personal, Name: "Personal", Icon: IconUser, Color: "#64748b", Group: GroupPersonal},
}

// SystemCategories returns a fresh copy of the system categories in
// display order.
func SystemCategories() []model.Category {
	return append([]model.Category(nil), systemCategories...)
}

// IsSystem reports whether id is one of the system category ids.
func IsSystem(id string) bool {
	for _, c := range systemCategories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Reserved reports whether a custom category called name would be folded
// onto a system category when the store is loaded: the name is a legacy
// label or the original name of a system category.
func Reserved(name string) bool {
	norm := NormalizeName(name)
	if _, ok := LegacyLabels[norm]; ok {
		return true
	}
	for _, c := range systemCategories {
		if NormalizeName(c.Name) == norm {
			return true
		}
	}
	return false
}

// LegacyLabels maps labels used by older clients as category ids (and
// names) to the canonical system id. Keys are normalized names.
var LegacyLabels = map[string]string{
	"uncategorized":  Uncategorized,
	"other":          Uncategorized,
	"misc":           Uncategorized,
	"groceries":      Groceries,
	"grocery":        Groceries,
	"food":           Dining,
	"restaurant":     Dining,
	"restaurants":    Dining,
	"dining":         Dining,
	"dining out":     Dining,
	"coffee":         Coffee,
	"cafe":           Coffee,
	"transport":      Transport,
	"transportation": Transport,
	"gas":            Fuel,
	"fuel":           Fuel,
	"rent":           Rent,
	"housing":        Rent,
	"bills":          Utilities,
	"utilities":      Utilities,
	"subscriptions":  Subscriptions,
	"shopping":       Shopping,
	"entertainment":  Entertainment,
	"health":         Health,
	"medical":        Health,
	"travel":         Travel,
	"personal":       Personal,
}
