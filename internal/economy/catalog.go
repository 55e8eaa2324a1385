package economy

// Starting values for a fresh game.
const (
	StartingClickPower     = 1
	StartingClickPowerCost = 50000
	StartingPerkCost       = 100000000
)

// catalogEntry is a starting price / base rate pair.
type catalogEntry struct {
	name     string
	cost     float64
	baseRate float64
}

var startingCatalog = []catalogEntry{
	{"Clicker", 10, 0.1},
	{"Grandma", 100, 1},
	{"CookieFarm", 1000, 50},
	{"CookieMine", 20000, 100},
	{"CookieBank", 150000, 5000},
	{"CookieTemple", 1000000, 30000},
	{"WizzardTower", 10000000, 100000},
	{"Shipment", 100000000, 550000},
	{"AlchemyLab", 500000000, 10000000},
	{"Portal", 30000000000, 1000000000},
	{"TimeMachine", 1000000000000, 9500000000},
	{"Prism", 900000000000, 20000000000},
}

// DefaultCatalog returns fresh copies of the twelve starting units in store order.
func DefaultCatalog() []*Unit {
	units := make([]*Unit, 0, len(startingCatalog))
	for _, c := range startingCatalog {
		units = append(units, &Unit{
			Name:     c.name,
			Cost:     c.cost,
			BaseRate: c.baseRate,
			PerkCost: StartingPerkCost,
		})
	}
	return units
}
