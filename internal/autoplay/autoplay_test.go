package autoplay

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/talgya/cookie-clicker/internal/api"
	"github.com/talgya/cookie-clicker/internal/economy"
	"github.com/talgya/cookie-clicker/internal/persistence"
)

func TestDecide(t *testing.T) {
	items := []Item{
		{Name: "Clicker", Cost: 10, BaseRate: 0.1, Rate: 0.1, PerkCost: 1e8},
		{Name: "Grandma", Cost: 100, BaseRate: 1, Rate: 1, PerkCost: 1e8},
		{Name: "CookieFarm", Cost: 1000, BaseRate: 50, Rate: 50, Count: 4, PerkCost: 1e8},
	}

	tests := []struct {
		name    string
		balance float64
		click   float64
		action  string
		item    string
	}{
		{"broke", 5, 50000, ActionClick, ""},
		{"clicker and grandma tie, first wins", 150, 50000, ActionBuy, "Clicker"},
		{"farm is best value", 1000, 50000, ActionBuy, "CookieFarm"},
		{"production beats click power", 60000, 50000, ActionBuy, "CookieFarm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &Snapshot{
				Status: Status{Balance: tt.balance, ClickPowerCost: tt.click},
				Items:  items,
			}
			d := Decide(snap)
			if d.Action != tt.action || d.Item != tt.item {
				t.Fatalf("expected %s %s got %+v", tt.action, tt.item, d)
			}
		})
	}
}

func TestDecidePerkAndClickPower(t *testing.T) {
	snap := &Snapshot{
		Status: Status{Balance: 2e8, ClickPowerCost: 50000},
		Items: []Item{
			// Buying another costs far more per unit of rate than the perk.
			{Name: "Prism", Cost: 1e12, BaseRate: 2e10, Rate: 2e10, Count: 10, PerkCost: 1e8},
		},
	}
	if d := Decide(snap); d.Action != ActionPerk || d.Item != "Prism" {
		t.Fatalf("expected perk Prism got %+v", d)
	}

	snap = &Snapshot{
		Status: Status{Balance: 60000, ClickPowerCost: 50000},
		Items:  []Item{{Name: "Prism", Cost: 1e12, Rate: 2e10, PerkCost: 1e8}},
	}
	if d := Decide(snap); d.Action != ActionClickPerk {
		t.Fatalf("expected clickperk got %+v", d)
	}
}

func TestCycleAgainstServer(t *testing.T) {
	econ := economy.New()
	store := persistence.NewFileStore(filepath.Join(t.TempDir(), "save.json"))
	srv := &api.Server{Economy: econ, Store: store, AdminKey: "k"}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	obs := NewObserver(ts.URL)
	if !obs.Ready() {
		t.Fatal("server not ready")
	}
	actor := NewActor(ts.URL, "k")

	for i := 0; i < 20; i++ {
		snap, err := obs.Observe()
		if err != nil {
			t.Fatalf("observe: %v", err)
		}
		if _, err := actor.Act(Decide(snap)); err != nil {
			t.Fatalf("act: %v", err)
		}
	}

	// Ten clicks afford the first clicker; the rest keep clicking.
	u, err := econ.Unit("Clicker")
	if err != nil {
		t.Fatal(err)
	}
	if u.Count != 1 {
		t.Fatalf("expected one clicker bought, got %d", u.Count)
	}

	if _, err := actor.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Load(context.Background()); err != nil {
		t.Fatalf("expected a save on disk: %v", err)
	}
}

func TestActRejectsBadToken(t *testing.T) {
	srv := &api.Server{Economy: economy.New(), AdminKey: "k"}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	if _, err := NewActor(ts.URL, "wrong").Act(Decision{Action: ActionClick}); err == nil {
		t.Fatal("expected unauthorized error")
	}
	if _, err := NewActor(ts.URL, "k").Act(Decision{Action: "dance"}); err == nil {
		t.Fatal("expected unknown action error")
	}
}
