package rewards

import (
	"sort"

	"green-roots/internal/models"
)

// Catalog is the fixed reward inventory the eco-point economy redeems
// against. Prices are eco points.
var Catalog = map[string]models.Reward{
	"seedling_kit": {
		ID:          "seedling_kit",
		Title:       "Native Seedling Kit",
		Description: "Five native tree seedlings for your next planting",
		PointCost:   150,
		Icon:        "🌱",
	},
	"eco_tote": {
		ID:          "eco_tote",
		Title:       "Green Roots Tote Bag",
		Description: "Reusable canvas tote bag",
		PointCost:   250,
		Icon:        "👜",
	},
	"grocery_100": {
		ID:          "grocery_100",
		Title:       "₱100 Grocery Voucher",
		Description: "Redeemable at partner stores",
		PointCost:   400,
		Icon:        "🛒",
	},
	"cash_200": {
		ID:          "cash_200",
		Title:       "₱200 Cash Out",
		Description: "Paid out through GCash",
		PointCost:   800,
		Icon:        "💸",
	},
	"dedication": {
		ID:          "dedication",
		Title:       "Tree Dedication Plaque",
		Description: "Dedicate a tree at your barangay's planting site",
		PointCost:   1200,
		Icon:        "🏷️",
	},
}

func Get(id string) (models.Reward, bool) {
	reward, exists := Catalog[id]
	return reward, exists
}

func List() []models.Reward {
	items := make([]models.Reward, 0, len(Catalog))
	for _, reward := range Catalog {
		items = append(items, reward)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].PointCost < items[j].PointCost })
	return items
}
