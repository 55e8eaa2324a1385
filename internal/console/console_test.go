package console

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/cookie-clicker/internal/economy"
	"github.com/talgya/cookie-clicker/internal/persistence"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
		err  error
	}{
		{"c", Command{Kind: CmdClick}, nil},
		{"  CLICK  ", Command{Kind: CmdClick}, nil},
		{"b clicker", Command{Kind: CmdBuy, Item: "clicker", Amount: 1}, nil},
		{"buy Grandma 3", Command{Kind: CmdBuy, Item: "grandma", Amount: 3}, nil},
		{"b clicker lots", Command{Kind: CmdBuy, Item: "clicker", Amount: 1}, nil},
		{"b clicker 0", Command{Kind: CmdBuy, Item: "clicker", Amount: 0}, nil},
		{"perk cookie farm", Command{Kind: CmdPerk, Item: "cookie farm"}, nil},
		{"clickperk", Command{Kind: CmdClickPerk}, nil},
		{"s", Command{Kind: CmdStore}, nil},
		{"st", Command{Kind: CmdStatus}, nil},
		{"w", Command{Kind: CmdWait}, nil},
		{"v", Command{Kind: CmdSave}, nil},
		{"l", Command{Kind: CmdLoad}, nil},
		{"n", Command{Kind: CmdNew}, nil},
		{"?", Command{Kind: CmdHelp}, nil},
		{"x", Command{Kind: CmdExit}, nil},
		{"", Command{}, ErrEmptyCommand},
		{"b", Command{}, ErrMissingItem},
		{"perk", Command{}, ErrMissingItem},
		{"dance", Command{}, ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected error %v got %v", tt.err, err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v got %+v", tt.want, got)
			}
		})
	}
}

func newTestSession(t *testing.T) (*Session, *bytes.Buffer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "save.json")
	var out bytes.Buffer
	s := NewSession(economy.New(), persistence.NewFileStore(path), &out)
	s.WaitFor = 0
	return s, &out, path
}

func run(t *testing.T, s *Session, lines ...string) {
	t.Helper()
	for _, line := range lines {
		cmd, err := Parse(line)
		if err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		s.Execute(context.Background(), cmd)
	}
}

func TestExecuteBuyMessages(t *testing.T) {
	s, out, _ := newTestSession(t)

	run(t, s, "b clicker")
	if !strings.Contains(out.String(), "Not enough clicks. Needed: 10, You have: 0") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	for i := 0; i < 11; i++ {
		run(t, s, "c")
	}
	run(t, s, "b clicker")
	if !strings.Contains(out.String(), "Bought 1 Clicker(s)! You now own 1.") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	run(t, s, "b unicorn")
	if !strings.Contains(out.String(), "Item not found.") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestExecuteSaveLoad(t *testing.T) {
	s, out, _ := newTestSession(t)

	run(t, s, "l")
	if !strings.Contains(out.String(), "No saved game found.") {
		t.Fatalf("unexpected output %q", out.String())
	}

	for i := 0; i < 20; i++ {
		run(t, s, "c")
	}
	run(t, s, "v")
	if !strings.Contains(out.String(), "Game saved!") {
		t.Fatalf("unexpected output %q", out.String())
	}

	run(t, s, "n")
	if s.Economy.Balance() != 0 {
		t.Fatalf("expected reset balance got %v", s.Economy.Balance())
	}

	out.Reset()
	run(t, s, "l")
	if !strings.Contains(out.String(), "Game loaded!") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if s.Economy.Balance() != 20 {
		t.Fatalf("expected balance 20 after load got %v", s.Economy.Balance())
	}
}

func TestExecuteLoadCorruptKeepsGame(t *testing.T) {
	s, out, path := newTestSession(t)
	if err := os.WriteFile(path, []byte(`{"total_clicks":`), 0644); err != nil {
		t.Fatal(err)
	}
	run(t, s, "c", "c", "l")

	if s.Economy.Balance() != 2 {
		t.Fatalf("corrupt load changed the game: balance %v", s.Economy.Balance())
	}
	if !strings.Contains(out.String(), "Could not load the save") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestExecuteWaitCreditsProduction(t *testing.T) {
	s, out, _ := newTestSession(t)
	for i := 0; i < 10; i++ {
		run(t, s, "c")
	}
	run(t, s, "b clicker", "w")

	// One clicker at 0.1 per second for 5 seconds.
	if got := s.Economy.Balance(); got < 0.4999 || got > 0.5001 {
		t.Fatalf("expected balance 0.5 got %v", got)
	}
	if !strings.Contains(out.String(), "Collected 0.5 clicks.") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestExecuteWithoutStore(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(economy.New(), nil, &out)
	run(t, s, "v", "l")
	if strings.Count(out.String(), "Saving is not configured.") != 2 {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunStopsOnExitAndEOF(t *testing.T) {
	s, out, _ := newTestSession(t)
	in := strings.NewReader("c\n\ndance\nc\nx\nc\n")
	if err := s.Run(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Economy.Balance() != 2 {
		t.Fatalf("expected 2 clicks before exit got %v", s.Economy.Balance())
	}
	if !strings.Contains(out.String(), "Unknown command.") || !strings.Contains(out.String(), "Thanks for playing!") {
		t.Fatalf("unexpected output %q", out.String())
	}

	s2, _, _ := newTestSession(t)
	if err := s2.Run(context.Background(), strings.NewReader("c\nc\nc")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s2.Economy.Balance() != 3 {
		t.Fatalf("expected 3 clicks before EOF got %v", s2.Economy.Balance())
	}
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(economy.New(), nil, &out)
	s.Economy.Click()
	if err := s.PrintStatus(1); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "\r") || !strings.Contains(out.String(), "Clicks: 1") {
		t.Fatalf("unexpected status line %q", out.String())
	}
}

func TestCorruptSaveSurvivesExit(t *testing.T) {
	s, _, path := newTestSession(t)
	corrupt := []byte(`{"items":[{"name":"Clicker"}]}`)
	if err := os.WriteFile(path, corrupt, 0644); err != nil {
		t.Fatal(err)
	}

	if err := s.Resume(context.Background()); !errors.Is(err, persistence.ErrCorruptSave) {
		t.Fatalf("expected ErrCorruptSave got %v", err)
	}
	if !s.SaveProtected() {
		t.Fatal("expected saves to be held back")
	}

	run(t, s, "c", "x")
	saved, err := s.AutoSave(context.Background())
	if err != nil || saved {
		t.Fatalf("expected autosave to be skipped, saved=%v err=%v", saved, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, corrupt) {
		t.Fatalf("save file was overwritten: %q", data)
	}
}

func TestExplicitSaveReleasesProtection(t *testing.T) {
	for _, cmd := range []string{"v", "n"} {
		t.Run(cmd, func(t *testing.T) {
			s, _, path := newTestSession(t)
			if err := os.WriteFile(path, []byte(`{"total_clicks":`), 0644); err != nil {
				t.Fatal(err)
			}
			s.Resume(context.Background())

			run(t, s, cmd)
			if s.SaveProtected() {
				t.Fatal("expected protection to be released")
			}
			saved, err := s.AutoSave(context.Background())
			if err != nil || !saved {
				t.Fatalf("expected autosave to write, saved=%v err=%v", saved, err)
			}
		})
	}
}

func TestResumeRestoresSave(t *testing.T) {
	s, _, _ := newTestSession(t)
	run(t, s, "c", "c", "c", "v", "n")

	if err := s.Resume(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Economy.Balance() != 3 || s.SaveProtected() {
		t.Fatalf("expected balance 3 unprotected, got %v %v", s.Economy.Balance(), s.SaveProtected())
	}

	fresh, _, _ := newTestSession(t)
	if err := fresh.Resume(context.Background()); err != nil {
		t.Fatalf("missing save should not fail: %v", err)
	}
}

func TestBuyOverflowingAmountMessage(t *testing.T) {
	s, out, _ := newTestSession(t)
	run(t, s, "b clicker 10000")
	if !strings.Contains(out.String(), "Invalid amount.") {
		t.Fatalf("unexpected output %q", out.String())
	}
	run(t, s, "v")
	if !strings.Contains(out.String(), "Game saved!") {
		t.Fatalf("save failed after oversized buy: %q", out.String())
	}
}
