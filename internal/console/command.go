// Package console implements the interactive command loop: parsing typed
// commands, running them against the economy and printing the results.
package console

import (
	"errors"
	"strconv"
	"strings"
)

// Kind identifies a console command.
type Kind int

const (
	CmdClick Kind = iota
	CmdBuy
	CmdPerk
	CmdClickPerk
	CmdStore
	CmdStatus
	CmdWait
	CmdSave
	CmdLoad
	CmdNew
	CmdHelp
	CmdExit
)

var kindNames = map[Kind]string{
	CmdClick:     "click",
	CmdBuy:       "buy",
	CmdPerk:      "perk",
	CmdClickPerk: "clickperk",
	CmdStore:     "store",
	CmdStatus:    "status",
	CmdWait:      "wait",
	CmdSave:      "save",
	CmdLoad:      "load",
	CmdNew:       "new",
	CmdHelp:      "help",
	CmdExit:      "exit",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Command is one parsed line of input.
type Command struct {
	Kind   Kind
	Item   string // buy, perk
	Amount int    // buy
}

var (
	ErrEmptyCommand   = errors.New("empty command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingItem    = errors.New("missing item name")
)

var simple = map[string]Kind{
	"click": CmdClick, "c": CmdClick,
	"clickperk": CmdClickPerk,
	"store":     CmdStore, "s": CmdStore,
	"status": CmdStatus, "st": CmdStatus,
	"wait": CmdWait, "w": CmdWait,
	"save": CmdSave, "v": CmdSave,
	"load": CmdLoad, "l": CmdLoad,
	"new": CmdNew, "n": CmdNew,
	"help": CmdHelp, "h": CmdHelp, "?": CmdHelp,
	"exit": CmdExit, "x": CmdExit, "quit": CmdExit,
}

// Parse turns a line of input into a Command. Input is case-insensitive. A buy
// amount that is not a plain number is ignored and the amount defaults to 1.
func Parse(line string) (Command, error) {
	line = strings.ToLower(strings.TrimSpace(line))
	if line == "" {
		return Command{}, ErrEmptyCommand
	}

	fields := strings.Fields(line)
	if k, ok := simple[line]; ok {
		return Command{Kind: k}, nil
	}

	switch fields[0] {
	case "buy", "b":
		if len(fields) < 2 {
			return Command{}, ErrMissingItem
		}
		cmd := Command{Kind: CmdBuy, Item: fields[1], Amount: 1}
		if len(fields) >= 3 && isDigits(fields[2]) {
			n, err := strconv.Atoi(fields[2])
			if err == nil {
				cmd.Amount = n
			}
		}
		return cmd, nil
	case "perk", "p":
		item := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		if item == "" {
			return Command{}, ErrMissingItem
		}
		return Command{Kind: CmdPerk, Item: item}, nil
	}

	return Command{}, ErrUnknownCommand
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
