package console

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/cookie-clicker/internal/economy"
)

// whole formats a whole-number amount such as a price.
func whole(v float64) string {
	return humanize.Commaf(math.Round(v))
}

// amount formats a balance or rate with two decimals.
func amount(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

// writeStore prints the store listing.
func writeStore(w io.Writer, units []economy.Unit, st economy.Status) error {
	var b strings.Builder
	b.WriteString("\n🛒 Store Items:\n")
	for _, u := range units {
		fmt.Fprintf(&b, "- %s: Cost = %s, Owned = %d, CPS = %.2f, Total CPS = %s, Perk Level = %d, Perk Cost = %s\n",
			u.Name, whole(u.Cost), u.Count, u.CurrentRate(), amount(u.TotalRate()), u.PerkLevel, whole(u.PerkCost))
	}
	fmt.Fprintf(&b, "\n⚡ Click Power: %s, Perk Cost: %s\n", whole(st.ClickPower), whole(st.ClickPowerCost))
	fmt.Fprintf(&b, "📈 Total CPS: %s\n", amount(st.Rate))
	_, err := io.WriteString(w, b.String())
	return err
}

func statusLine(st economy.Status) string {
	return fmt.Sprintf("📊 Status: Total Clicks = %s, Click Power = %s, Total CPS = %s",
		amount(st.Balance), whole(st.ClickPower), amount(st.Rate))
}

// liveLine is the single-line form redrawn by the ticker.
func liveLine(st economy.Status) string {
	return fmt.Sprintf("\r📊 Real-Time → Clicks: %s | CPS: %s", amount(st.Balance), amount(st.Rate))
}

// describeError turns a failed transaction into a player-facing message.
func describeError(err error) string {
	var ife *economy.InsufficientFundsError
	switch {
	case errors.As(err, &ife):
		return fmt.Sprintf("❌ Not enough clicks. Needed: %s, You have: %s", whole(ife.Needed), amount(ife.Available))
	case errors.Is(err, economy.ErrItemNotFound):
		return "❌ Item not found."
	case errors.Is(err, economy.ErrInvalidAmount):
		return "❌ Invalid amount. Buy at least 1, and not more than the store can price."
	default:
		return "❌ " + err.Error()
	}
}

const helpText = `Commands:
  click, c                 click once
  buy, b <item> [amount]   buy production units
  perk <item>              upgrade an item's production by 15%
  clickperk                double click power
  store, s                 list items
  status, st               show balance and production
  wait, w                  wait and collect passive clicks
  save, v / load, l        save or load the game
  new, n                   start a new game
  exit, x                  quit`
