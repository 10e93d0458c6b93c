// Package chat turns raw user input into commands and commands into
// outgoing messages. It holds no state of its own; everything it shows or
// changes lives in the order and session components.
package chat

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tobiadex/chopchat/internal/menu"
)

var ErrInvalidInput = errors.New("invalid input")

// InvalidCommandHelp is the canonical guidance shown for unusable input.
const InvalidCommandHelp = "Invalid command. Type 1 for menu, 97 for current order, 98 for history, 99 to checkout, or 0 to cancel."

type Kind int

const (
	KindShowMenu Kind = iota
	KindShowOrder
	KindShowHistory
	KindCheckout
	KindCancel
	KindAddItem
)

// Command is the parsed form of one user message. The reserved codes and
// the dynamic item ids share one flat integer namespace, so everything
// funnels through Parse and handlers switch on Kind, never on raw numbers.
type Command struct {
	Kind Kind
	// MenuItemID is set only for KindAddItem.
	MenuItemID int
}

const (
	codeCancel      = 0
	codeShowMenu    = 1
	codeShowOrder   = 97
	codeShowHistory = 98
	codeCheckout    = 99
)

// Parse interprets the raw text strictly: digits only, base 10, no sign,
// no decimals, no trailing noise. Anything else is ErrInvalidInput.
func Parse(raw string) (Command, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Command{}, ErrInvalidInput
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Command{}, ErrInvalidInput
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Command{}, ErrInvalidInput
	}

	switch n {
	case codeShowMenu:
		// 1 doubles as a menu item id in the catalog, but the reserved
		// codes win: 1 always shows the menu.
		return Command{Kind: KindShowMenu}, nil
	case codeShowOrder:
		return Command{Kind: KindShowOrder}, nil
	case codeShowHistory:
		return Command{Kind: KindShowHistory}, nil
	case codeCheckout:
		return Command{Kind: KindCheckout}, nil
	case codeCancel:
		return Command{Kind: KindCancel}, nil
	}
	if _, ok := menu.ByID(n); ok {
		return Command{Kind: KindAddItem, MenuItemID: n}, nil
	}
	return Command{}, ErrInvalidInput
}
