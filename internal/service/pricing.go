package service

import "photolab_miniapp/internal/model"

// Tier prices are fixed per payment method: RUB in kopecks for card/SBP,
// Telegram Stars, and nanotons for TON.
var tiers = []model.Tier{
	{
		Name:        "start",
		Photos:      30,
		PriceRUB:    49900,
		PriceStars:  350,
		PriceNano:   150_000_000,
		Description: "30 photos, 1 style pack",
	},
	{
		Name:        "pro",
		Photos:      60,
		PriceRUB:    79900,
		PriceStars:  550,
		PriceNano:   240_000_000,
		Description: "60 photos, 1 style pack",
	},
	{
		Name:        "max",
		Photos:      100,
		PriceRUB:    119900,
		PriceStars:  850,
		PriceNano:   360_000_000,
		Description: "100 photos, 1 style pack",
	},
}

func (s *PaymentService) Tiers() []model.Tier {
	out := make([]model.Tier, len(tiers))
	copy(out, tiers)
	return out
}

func tierByName(name string) (model.Tier, bool) {
	for _, t := range tiers {
		if t.Name == name {
			return t, true
		}
	}
	return model.Tier{}, false
}
