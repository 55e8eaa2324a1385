package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talgya/cookie-clicker/internal/economy"
	"github.com/talgya/cookie-clicker/internal/persistence"
)

// Session runs commands for one player. Out is shared with the live status line,
// so all writes go through the session lock.
type Session struct {
	Economy     *economy.Economy
	Store       persistence.Store
	Out         io.Writer
	WaitFor     time.Duration // real time the wait command sleeps
	WaitSeconds float64       // production credited by the wait command

	mu sync.Mutex
	// Set while the stored save could not be loaded. Unattended saves are held
	// back so they cannot overwrite it; an explicit save, load or new game clears it.
	protected atomic.Bool
}

// NewSession creates a session with the classic five second wait.
func NewSession(econ *economy.Economy, store persistence.Store, out io.Writer) *Session {
	return &Session{
		Economy:     econ,
		Store:       store,
		Out:         out,
		WaitFor:     5 * time.Second,
		WaitSeconds: 5,
	}
}

func (s *Session) println(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.Out, "\n"+format+"\n", args...)
}

// PrintStatus redraws the live status line. It is meant to be the tick
// engine's status hook; write failures are returned for the engine to log.
func (s *Session) PrintStatus(uint64) error {
	line := liveLine(s.Economy.Status())
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.Out, line)
	return err
}

// Execute runs one command and reports whether the session should end.
func (s *Session) Execute(ctx context.Context, cmd Command) (quit bool) {
	switch cmd.Kind {
	case CmdClick:
		earned, balance := s.Economy.Click()
		s.println("🍪 Clicked! +%s clicks. Total Cookies: %s", whole(earned), amount(balance))

	case CmdBuy:
		p, err := s.Economy.BuyUnit(cmd.Item, cmd.Amount)
		if err != nil {
			s.println("%s", describeError(err))
			return false
		}
		s.println("✅ Bought %d %s(s)! You now own %d. New cost: %s", p.Amount, p.Name, p.Count, whole(p.NextCost))

	case CmdPerk:
		up, err := s.Economy.BuyPerk(cmd.Item)
		if err != nil {
			s.println("%s", describeError(err))
			return false
		}
		s.println("✨ Perk upgraded for %s! CPS boosted by 15%%. New perk cost: %s", up.Name, whole(up.NextPerkCost))

	case CmdClickPerk:
		up, err := s.Economy.BuyClickPower()
		if err != nil {
			s.println("%s", describeError(err))
			return false
		}
		s.println("💥 Click Power doubled! New power: %s. Next perk cost: %s", whole(up.ClickPower), whole(up.NextCost))

	case CmdStore:
		units := s.Economy.Units()
		st := s.Economy.Status()
		s.mu.Lock()
		err := writeStore(s.Out, units, st)
		s.mu.Unlock()
		if err != nil {
			slog.Warn("store listing failed", "error", err)
		}

	case CmdStatus:
		s.println("%s", statusLine(s.Economy.Status()))

	case CmdWait:
		s.println("⏳ Waiting %s to generate passive clicks...", s.WaitFor)
		select {
		case <-ctx.Done():
			return true
		case <-time.After(s.WaitFor):
		}
		earned := s.Economy.Tick(s.WaitSeconds)
		s.println("⏳ Collected %s clicks.", amount(earned))

	case CmdSave:
		s.save(ctx)

	case CmdLoad:
		s.load(ctx)

	case CmdNew:
		s.Economy.NewGame()
		s.protected.Store(false)
		s.println("🆕 New game started!")

	case CmdHelp:
		s.println("%s", helpText)

	case CmdExit:
		s.println("👋 Thanks for playing! Final Clicks: %s", amount(s.Economy.Balance()))
		return true
	}
	return false
}

func (s *Session) save(ctx context.Context) {
	if s.Store == nil {
		s.println("⚠️ Saving is not configured.")
		return
	}
	info, err := s.Store.Save(ctx, s.Economy.Snapshot())
	if err != nil {
		slog.Error("save failed", "error", err)
		s.println("❌ Save failed: %v", err)
		return
	}
	s.protected.Store(false)
	slog.Info("game saved", "save_id", info.ID, "balance", info.Balance)
	s.println("💾 Game saved!")
}

func (s *Session) load(ctx context.Context) {
	if s.Store == nil {
		s.println("⚠️ Saving is not configured.")
		return
	}
	st, err := s.Store.Load(ctx)
	switch {
	case errors.Is(err, persistence.ErrNoSave):
		s.println("⚠️ No saved game found.")
		return
	case err != nil:
		slog.Error("load failed", "error", err)
		s.println("❌ Could not load the save, keeping the current game: %v", err)
		return
	}
	if err := s.Economy.Restore(st); err != nil {
		slog.Error("restore failed", "error", err)
		s.println("❌ Could not load the save, keeping the current game: %v", err)
		return
	}
	s.protected.Store(false)
	s.println("📂 Game loaded!")
}

// Resume restores the stored game at startup. A missing save is not an error.
// An unreadable save leaves the fresh game in place and holds back AutoSave
// until the player decides what to keep.
func (s *Session) Resume(ctx context.Context) error {
	if s.Store == nil {
		return nil
	}
	st, err := s.Store.Load(ctx)
	if errors.Is(err, persistence.ErrNoSave) {
		return nil
	}
	if err == nil {
		err = s.Economy.Restore(st)
	}
	if err != nil {
		s.protected.Store(true)
		s.println("⚠️ The saved game could not be loaded and will not be overwritten until you save, load or start a new game.")
		return err
	}
	return nil
}

// SaveProtected reports whether unattended saves are being held back.
func (s *Session) SaveProtected() bool {
	return s.protected.Load()
}

// AutoSave saves the game unless the stored save is protected. It reports
// whether a save was written.
func (s *Session) AutoSave(ctx context.Context) (bool, error) {
	if s.Store == nil || s.protected.Load() {
		return false, nil
	}
	if _, err := s.Store.Save(ctx, s.Economy.Snapshot()); err != nil {
		return false, err
	}
	return true, nil
}

// Run reads commands from in until exit, end of input or ctx cancellation.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	s.println("🍪 Welcome to Cookie Clicker!\n%s", helpText)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		s.prompt()
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			cmd, err := Parse(line)
			switch {
			case errors.Is(err, ErrEmptyCommand):
				continue
			case errors.Is(err, ErrMissingItem):
				s.println("❓ Which item? Try 'b [item] [amount]' or 'perk [item]'.")
				continue
			case err != nil:
				s.println("❓ Unknown command. Try 'c', 'b [item] [amount]', 'perk [item]', 'clickperk', 's', 'w', 'v', 'l', 'n', or 'x'.")
				continue
			}
			slog.Debug("command", "kind", cmd.Kind, "item", cmd.Item, "amount", cmd.Amount)
			if s.Execute(ctx, cmd) {
				return nil
			}
		}
	}
}

func (s *Session) prompt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.Out, "\nEnter command: ")
}
