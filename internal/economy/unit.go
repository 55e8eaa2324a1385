package economy

import "math"

// Growth factors applied on each purchase step.
const (
	CostGrowth      = 1.08 // per unit bought
	PerkCostGrowth  = 1.25 // per perk level gained
	ClickCostGrowth = 1.5  // per click power upgrade
	PerkRateBonus   = 0.15 // production bonus per perk level
)

// Unit is one purchasable production unit type and its upgrade state.
// Cost and PerkCost always hold whole numbers; they are float64 because late
// catalog prices outgrow uint64 after a few hundred purchases.
type Unit struct {
	Name      string  `json:"name"`
	Cost      float64 `json:"cost"`       // Current purchase price
	BaseRate  float64 `json:"base_rate"`  // Production per second at perk level 0
	Count     int     `json:"count"`      // Units owned
	PerkLevel int     `json:"perk_level"` // Upgrade tier
	PerkCost  float64 `json:"perk_cost"`  // Price of the next perk level
}

// CurrentRate returns the production of a single owned unit.
func (u *Unit) CurrentRate() float64 {
	return u.BaseRate * (1 + PerkRateBonus*float64(u.PerkLevel))
}

// TotalRate returns the production of all owned units of this type.
func (u *Unit) TotalRate() float64 {
	return u.CurrentRate() * float64(u.Count)
}

// StepCost advances Cost by one purchase.
func (u *Unit) StepCost() {
	u.Cost = nextCost(u.Cost)
}

func nextCost(c float64) float64 {
	return roundPrice(c * CostGrowth)
}

// StepPerkCost advances PerkCost by one perk level.
func (u *Unit) StepPerkCost() {
	u.PerkCost = roundPrice(u.PerkCost * PerkCostGrowth)
}

// roundPrice rounds half to even, so 12.5 becomes 12 and 13.5 becomes 14.
func roundPrice(v float64) float64 {
	return math.RoundToEven(v)
}
