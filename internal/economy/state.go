package economy

import (
	"fmt"
	"math"
	"strings"
)

// State is the full serializable form of an Economy. The aggregate rate is not
// part of it; Restore derives it from Units.
type State struct {
	Balance        float64 `json:"balance"`
	ClickPower     float64 `json:"click_power"`
	ClickPowerCost float64 `json:"click_power_cost"`
	Units          []Unit  `json:"units"`
}

// Snapshot returns a deep copy of the current state.
func (e *Economy) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Balance:        e.balance,
		ClickPower:     e.clickPower,
		ClickPowerCost: e.clickPowerCost,
		Units:          e.copyUnits(),
	}
}

// Restore replaces the whole session with st. On error the Economy is unchanged.
func (e *Economy) Restore(st State) error {
	if err := st.Validate(); err != nil {
		return err
	}

	units := make([]*Unit, len(st.Units))
	for i := range st.Units {
		u := st.Units[i]
		units[i] = &u
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.balance = st.Balance
	e.clickPower = st.ClickPower
	e.clickPowerCost = st.ClickPowerCost
	e.units = units
	e.recalculate()
	return nil
}

// Validate checks the invariants a restored session must satisfy.
func (st State) Validate() error {
	if !finite(st.Balance, st.ClickPower, st.ClickPowerCost) {
		return fmt.Errorf("%w: non-finite balance or click power", ErrInvalidState)
	}
	if st.Balance < 0 {
		return fmt.Errorf("%w: negative balance %v", ErrInvalidState, st.Balance)
	}
	if st.ClickPower < 1 {
		return fmt.Errorf("%w: click power %v below 1", ErrInvalidState, st.ClickPower)
	}
	if st.ClickPowerCost < 0 {
		return fmt.Errorf("%w: negative click power cost", ErrInvalidState)
	}
	if len(st.Units) == 0 {
		return fmt.Errorf("%w: no units", ErrInvalidState)
	}

	seen := make(map[string]bool, len(st.Units))
	for _, u := range st.Units {
		key := strings.ToLower(u.Name)
		if key == "" {
			return fmt.Errorf("%w: unit without a name", ErrInvalidState)
		}
		if seen[key] {
			return fmt.Errorf("%w: duplicate unit %q", ErrInvalidState, u.Name)
		}
		seen[key] = true
		if !finite(u.Cost, u.PerkCost, u.BaseRate) {
			return fmt.Errorf("%w: non-finite price or rate on unit %q", ErrInvalidState, u.Name)
		}
		if u.Cost < 0 || u.PerkCost < 0 || u.BaseRate < 0 || u.Count < 0 || u.PerkLevel < 0 {
			return fmt.Errorf("%w: negative field on unit %q", ErrInvalidState, u.Name)
		}
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
