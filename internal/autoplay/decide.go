package autoplay

import (
	"fmt"
	"math"
)

// Actions the player can take.
const (
	ActionClick     = "click"
	ActionBuy       = "buy"
	ActionPerk      = "perk"
	ActionClickPerk = "clickperk"
)

// perkBonus is the production gained per perk level, relative to base rate.
const perkBonus = 0.15

// Decision is the chosen action for one cycle.
type Decision struct {
	Action    string
	Item      string
	Payback   float64 // seconds of added production needed to recoup the cost
	Rationale string
}

// Decide picks the affordable purchase that pays for itself soonest. With
// nothing affordable it clicks; click power is bought only when no purchase
// adds production.
func Decide(snap *Snapshot) Decision {
	best := Decision{Action: ActionClick, Payback: math.Inf(1), Rationale: "nothing affordable"}
	balance := snap.Status.Balance

	consider := func(action, item string, cost, gain float64) {
		if cost > balance || gain <= 0 {
			return
		}
		payback := cost / gain
		if payback < best.Payback {
			best = Decision{
				Action:    action,
				Item:      item,
				Payback:   payback,
				Rationale: fmt.Sprintf("%s %s pays back in %.0fs", action, item, payback),
			}
		}
	}

	for _, it := range snap.Items {
		consider(ActionBuy, it.Name, it.Cost, it.Rate)
		consider(ActionPerk, it.Name, it.PerkCost, float64(it.Count)*it.BaseRate*perkBonus)
	}

	if best.Action == ActionClick && snap.Status.ClickPowerCost <= balance {
		return Decision{Action: ActionClickPerk, Payback: math.Inf(1), Rationale: "no production upgrade available"}
	}
	return best
}
