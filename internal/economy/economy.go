// Package economy provides the clicker game state: the production unit catalog,
// compounding cost scaling, purchase and upgrade transactions, and passive production.
package economy

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

// Economy is the authoritative owner of one game session. All methods are safe for
// concurrent use; every mutation runs to completion under a single lock.
type Economy struct {
	mu             sync.Mutex
	balance        float64
	clickPower     float64
	clickPowerCost float64
	units          []*Unit
	rate           float64 // cached sum of TotalRate over units
}

// Purchase is the outcome of a successful BuyUnit.
type Purchase struct {
	Name      string  `json:"name"`
	Amount    int     `json:"amount"`
	TotalCost float64 `json:"total_cost"`
	Count     int     `json:"count"`
	NextCost  float64 `json:"next_cost"`
	Balance   float64 `json:"balance"`
}

// PerkUpgrade is the outcome of a successful BuyPerk.
type PerkUpgrade struct {
	Name         string  `json:"name"`
	PerkLevel    int     `json:"perk_level"`
	Paid         float64 `json:"paid"`
	NextPerkCost float64 `json:"next_perk_cost"`
	Balance      float64 `json:"balance"`
}

// ClickUpgrade is the outcome of a successful BuyClickPower.
type ClickUpgrade struct {
	ClickPower float64 `json:"click_power"`
	Paid       float64 `json:"paid"`
	NextCost   float64 `json:"next_cost"`
	Balance    float64 `json:"balance"`
}

// Status is a consistent read of the headline numbers.
type Status struct {
	Balance        float64 `json:"balance"`
	ClickPower     float64 `json:"click_power"`
	ClickPowerCost float64 `json:"click_power_cost"`
	Rate           float64 `json:"rate"`
}

// New creates an Economy with the starting catalog and zero balance.
func New() *Economy {
	e := &Economy{}
	e.reset()
	return e
}

func (e *Economy) reset() {
	e.balance = 0
	e.clickPower = StartingClickPower
	e.clickPowerCost = StartingClickPowerCost
	e.units = DefaultCatalog()
	e.recalculate()
}

// NewGame discards the current session and starts over.
func (e *Economy) NewGame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

// recalculate refreshes the aggregate rate. Caller must hold mu.
func (e *Economy) recalculate() {
	total := 0.0
	for _, u := range e.units {
		total += u.TotalRate()
	}
	e.rate = total
}

// find looks a unit up by case-insensitive name. Caller must hold mu.
func (e *Economy) find(name string) *Unit {
	name = strings.TrimSpace(name)
	for _, u := range e.units {
		if strings.EqualFold(u.Name, name) {
			return u
		}
	}
	return nil
}

// Click adds one click's worth of currency. It returns the amount credited and
// the new balance.
func (e *Economy) Click() (earned, balance float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.balance += e.clickPower
	return e.clickPower, e.balance
}

// BuyUnit buys amount units of the named type. The price of each unit in the
// batch is 8% above the previous one.
//
// The price walk is applied to the unit before affordability is checked and is
// kept when the purchase fails: a refused order still raises the listed price.
func (e *Economy) BuyUnit(name string, amount int) (Purchase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.find(name)
	if u == nil {
		return Purchase{}, notFound(name)
	}
	if amount < 1 {
		return Purchase{}, fmt.Errorf("%w: %d is below 1", ErrInvalidAmount, amount)
	}

	// Walk a copy first so an order too large to price leaves the unit untouched.
	// The price passes float64 range after roughly 9,200 steps, which bounds the loop.
	total, cost := 0.0, u.Cost
	for i := 0; i < amount; i++ {
		total += cost
		cost = nextCost(cost)
		if math.IsInf(cost, 0) || math.IsInf(total, 0) {
			return Purchase{}, fmt.Errorf("%w: %d %s cannot be priced", ErrInvalidAmount, amount, u.Name)
		}
	}
	u.Cost = cost

	if e.balance < total {
		return Purchase{}, &InsufficientFundsError{Needed: total, Available: e.balance}
	}

	e.balance -= total
	u.Count += amount
	e.recalculate()

	return Purchase{
		Name:      u.Name,
		Amount:    amount,
		TotalCost: total,
		Count:     u.Count,
		NextCost:  u.Cost,
		Balance:   e.balance,
	}, nil
}

// BuyPerk raises the named unit's perk level by one.
func (e *Economy) BuyPerk(name string) (PerkUpgrade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.find(name)
	if u == nil {
		return PerkUpgrade{}, notFound(name)
	}
	if e.balance < u.PerkCost {
		return PerkUpgrade{}, &InsufficientFundsError{Needed: u.PerkCost, Available: e.balance}
	}

	paid := u.PerkCost
	e.balance -= paid
	u.PerkLevel++
	u.StepPerkCost()
	e.recalculate()

	return PerkUpgrade{
		Name:         u.Name,
		PerkLevel:    u.PerkLevel,
		Paid:         paid,
		NextPerkCost: u.PerkCost,
		Balance:      e.balance,
	}, nil
}

// BuyClickPower doubles the click power.
func (e *Economy) BuyClickPower() (ClickUpgrade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.balance < e.clickPowerCost {
		return ClickUpgrade{}, &InsufficientFundsError{Needed: e.clickPowerCost, Available: e.balance}
	}

	paid := e.clickPowerCost
	e.balance -= paid
	e.clickPower *= 2
	e.clickPowerCost = roundPrice(e.clickPowerCost * ClickCostGrowth)

	return ClickUpgrade{
		ClickPower: e.clickPower,
		Paid:       paid,
		NextCost:   e.clickPowerCost,
		Balance:    e.balance,
	}, nil
}

// Tick credits passive production for elapsed seconds and returns the amount
// earned. Each call models exactly the interval given; there is no catch-up.
// Non-positive intervals earn nothing.
func (e *Economy) Tick(elapsed float64) float64 {
	if !(elapsed > 0) || math.IsInf(elapsed, 0) {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	earned := e.rate * elapsed
	e.balance += earned
	return earned
}

// Rate returns the aggregate production per second.
func (e *Economy) Rate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rate
}

// Balance returns the current currency balance.
func (e *Economy) Balance() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance
}

// Status returns balance, click power and rate read under one lock.
func (e *Economy) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Balance:        e.balance,
		ClickPower:     e.clickPower,
		ClickPowerCost: e.clickPowerCost,
		Rate:           e.rate,
	}
}

// Units returns copies of all units in store order.
func (e *Economy) Units() []Unit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyUnits()
}

// Unit returns a copy of the named unit.
func (e *Economy) Unit(name string) (Unit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	u := e.find(name)
	if u == nil {
		return Unit{}, notFound(name)
	}
	return *u, nil
}

func (e *Economy) copyUnits() []Unit {
	out := make([]Unit, len(e.units))
	for i, u := range e.units {
		out[i] = *u
	}
	return out
}
