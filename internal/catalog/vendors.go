package catalog

import "github.com/jask/calendarspent/internal/model"

// builtinRules is the premade vendor table. Ids are stable so the rules can
// be referenced in logs and tests.
var builtinRules = []model.VendorRule{
	premade("starbucks", Coffee),
	premade("dunkin", Coffee),
	premade("peet's coffee", Coffee),
	premade("blue bottle", Coffee),
	premade("whole foods", Groceries),
	premade("trader joe's", Groceries),
	premade("safeway", Groceries),
	premade("kroger", Groceries),
	premade("costco", Groceries),
	premade("aldi", Groceries),
	premade("walmart", Groceries),
	premade("uber eats", Dining),
	premade("doordash", Dining),
	premade("grubhub", Dining),
	premade("chipotle", Dining),
	premade("mcdonald's", Dining),
	premade("uber", Transport),
	premade("lyft", Transport),
	premade("metro", Transport),
	premade("shell", Fuel),
	premade("chevron", Fuel),
	premade("exxon", Fuel),
	premade("netflix", Subscriptions),
	premade("spotify", Subscriptions),
	premade("hulu", Subscriptions),
	premade("disney+", Subscriptions),
	premade("apple music", Subscriptions),
	premade("amazon", Shopping),
	premade("target", Shopping),
	premade("ikea", Shopping),
	premade("comcast", Utilities),
	premade("verizon", Utilities),
	premade("at&t", Utilities),
	premade("pg&e", Utilities),
	premade("amc theatres", Entertainment),
	premade("steam", Entertainment),
	premade("cvs", Health),
	premade("walgreens", Health),
	premade("airbnb", Travel),
	premade("delta", Travel),
	premade("united airlines", Travel),
	premade("marriott", Travel),
}

func premade(vendor, categoryID string) model.VendorRule {
	return model.VendorRule{
		ID:             "premade:" + vendor,
		VendorContains: vendor,
		CategoryID:     categoryID,
		Source:         model.SourcePremade,
	}
}

// BuiltinRules returns a copy of the premade vendor rules.
func BuiltinRules() []model.VendorRule {
	return append([]model.VendorRule(nil), builtinRules...)
}

// VendorNames lists display names offered by vendor autocomplete.
var VendorNames = []string{
	"Starbucks", "Dunkin'", "Peet's Coffee", "Blue Bottle Coffee",
	"Whole Foods Market", "Trader Joe's", "Safeway", "Kroger", "Costco",
	"Aldi", "Walmart", "Uber Eats", "DoorDash", "Grubhub", "Chipotle",
	"McDonald's", "Uber", "Lyft", "Shell", "Chevron", "Exxon", "Netflix",
	"Spotify", "Hulu", "Disney+", "Apple Music", "Amazon", "Target", "IKEA",
	"Comcast", "Verizon", "AT&T", "PG&E", "AMC Theatres", "Steam", "CVS",
	"Walgreens", "Airbnb", "Delta Air Lines", "United Airlines", "Marriott",
}
