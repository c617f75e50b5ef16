package catalog

import "github.com/jask/calendarspent/internal/model"

// Icons known to every renderer. Category icons are validated against this
// set when entered, never resolved by name at render time.
const (
	IconTag      model.Icon = "tag"
	IconCart     model.Icon = "shopping-cart"
	IconUtensils model.Icon = "utensils"
	IconCoffee   model.Icon = "coffee"
	IconCar      model.Icon = "car"
	IconFuel     model.Icon = "fuel"
	IconHome     model.Icon = "home"
	IconBolt     model.Icon = "zap"
	IconRepeat   model.Icon = "repeat"
	IconBag      model.Icon = "shopping-bag"
	IconFilm     model.Icon = "film"
	IconHeart    model.Icon = "heart"
	IconPlane    model.Icon = "plane"
	IconUser     model.Icon = "user"
	IconGift     model.Icon = "gift"
	IconBook     model.Icon = "book"
	IconPaw      model.Icon = "paw"
	IconPhone    model.Icon = "smartphone"
)

// Renderer draws an icon for a given surface.
type Renderer func(model.Icon) string

var glyphs = map[model.Icon]string{
	IconTag:      "🏷",
	IconCart:     "🛒",
	IconUtensils: "🍽",
	IconCoffee:   "☕",
	IconCar:      "🚗",
	IconFuel:     "⛽",
	IconHome:     "🏠",
	IconBolt:     "⚡",
	IconRepeat:   "🔁",
	IconBag:      "🛍",
	IconFilm:     "🎬",
	IconHeart:    "❤",
	IconPlane:    "✈",
	IconUser:     "👤",
	IconGift:     "🎁",
	IconBook:     "📚",
	IconPaw:      "🐾",
	IconPhone:    "📱",
}

// ValidIcon reports whether icon belongs to the closed set.
func ValidIcon(icon model.Icon) bool {
	_, ok := glyphs[icon]
	return ok
}

// Glyph is the terminal renderer. Unknown icons fall back to the tag glyph.
func Glyph(icon model.Icon) string {
	if g, ok := glyphs[icon]; ok {
		return g
	}
	return glyphs[IconTag]
}

var _ Renderer = Glyph
