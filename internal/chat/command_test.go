package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReservedCodes(t *testing.T) {
	cases := map[string]Kind{
		"1":  KindShowMenu,
		"97": KindShowOrder,
		"98": KindShowHistory,
		"99": KindCheckout,
		"0":  KindCancel,
	}
	for raw, want := range cases {
		cmd, err := Parse(raw)
		require.NoErrorf(t, err, "Parse(%q)", raw)
		assert.Equalf(t, want, cmd.Kind, "Parse(%q)", raw)
	}
}

func TestParseMenuItemIDs(t *testing.T) {
	cmd, err := Parse("3")
	require.NoError(t, err)
	assert.Equal(t, KindAddItem, cmd.Kind)
	assert.Equal(t, 3, cmd.MenuItemID)

	// Surrounding whitespace is tolerated, nothing else is.
	cmd, err = Parse("  8\n")
	require.NoError(t, err)
	assert.Equal(t, KindAddItem, cmd.Kind)
	assert.Equal(t, 8, cmd.MenuItemID)
}

func TestParseReservedCodesShadowItemIDs(t *testing.T) {
	// Item 1 exists in the catalog, but 1 is the show-menu code.
	cmd, err := Parse("1")
	require.NoError(t, err)
	assert.Equal(t, KindShowMenu, cmd.Kind)
}

func TestParseRejectsInvalidInput(t *testing.T) {
	for _, raw := range []string{
		"", "   ", "abc", "1.5", "1 2", "+3", "-1", "0x10", "3!",
		"42",      // positive integer, but no such menu item
		"100",     // out of range
		"９",       // non-ASCII digit
		"1e2",
	} {
		_, err := Parse(raw)
		assert.ErrorIsf(t, err, ErrInvalidInput, "Parse(%q)", raw)
	}
}
