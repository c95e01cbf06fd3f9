// Package pattern detects candlestick patterns and aggregates them into
// portfolio scan logs and chart markers.
package pattern

import "FinStream/internal/model"

// Rule is a named entry of a pattern catalog.
type Rule struct {
	Name string
	Eval Func
}

// Catalog is an ordered, fixed set of rules sharing one polarity.
type Catalog struct {
	Polarity model.Polarity
	Rules    []Rule
}

// Bullish and Bearish are the two built-in catalogs. Engulfing appears in
// both since it reports either direction.
var (
	Bullish = Catalog{
		Polarity: model.Bullish,
		Rules: []Rule{
			{"Hammer", Hammer},
			{"InvertedHammer", InvertedHammer},
			{"Engulfing", Engulfing},
			{"Piercing", Piercing},
			{"MorningStar", MorningStar},
			{"ThreeWhiteSoldiers", ThreeWhiteSoldiers},
		},
	}
	Bearish = Catalog{
		Polarity: model.Bearish,
		Rules: []Rule{
			{"HangingMan", HangingMan},
			{"ShootingStar", ShootingStar},
			{"Engulfing", Engulfing},
			{"EveningStar", EveningStar},
			{"ThreeBlackCrows", ThreeBlackCrows},
			{"DarkCloudCover", DarkCloudCover},
		},
	}
)

// CatalogFor returns the built-in catalog of a polarity.
func CatalogFor(p model.Polarity) Catalog {
	if p == model.Bearish {
		return Bearish
	}
	return Bullish
}

// Lookup finds a rule by name in either catalog.
func Lookup(name string) (Rule, bool) {
	for _, c := range []Catalog{Bullish, Bearish} {
		for _, r := range c.Rules {
			if r.Name == name {
				return r, true
			}
		}
	}
	return Rule{}, false
}
