package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	t.Run("ValidPrefix", func(t *testing.T) {
		testCases := []struct {
			name     string
			prefix   string
			expected string
		}{
			{
				name:     "simple prefix",
				prefix:   "msg",
				expected: "msg",
			},
			{
				name:     "uppercase prefix gets lowercased",
				prefix:   "MSG",
				expected: "msg",
			},
			{
				name:     "prefix with surrounding whitespace gets trimmed",
				prefix:   "  req  ",
				expected: "req",
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				id := NewID(tc.prefix)

				parts := strings.Split(id, "_")
				require.Len(t, parts, 2)
				assert.Equal(t, tc.expected, parts[0])
				assert.Len(t, parts[1], 26)
			})
		}
	})

	t.Run("EmptyPrefixPanics", func(t *testing.T) {
		assert.Panics(t, func() { NewID("") })
		assert.Panics(t, func() { NewID("   ") })
	})

	t.Run("IDsAreUnique", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 1000; i++ {
			id := NewID("msg")
			_, exists := seen[id]
			require.False(t, exists, "duplicate ID generated: %s", id)
			seen[id] = struct{}{}
		}
	})
}

func TestIsValidID(t *testing.T) {
	t.Run("ValidID", func(t *testing.T) {
		assert.True(t, IsValidID(NewID("msg")))
		assert.True(t, IsValidID(NewID("req")))
	})

	t.Run("InvalidIDs", func(t *testing.T) {
		testCases := []struct {
			name string
			id   string
		}{
			{name: "empty string", id: ""},
			{name: "no separator", id: "msg01G0EZ1XTM37C5X11SQTDNCTM1"},
			{name: "missing prefix", id: "_01G0EZ1XTM37C5X11SQTDNCTM1"},
			{name: "uppercase prefix", id: "MSG_01G0EZ1XTM37C5X11SQTDNCTM1"},
			{name: "too many separators", id: "msg_extra_01G0EZ1XTM37C5X11SQTDNCTM1"},
			{name: "short ulid", id: "msg_01G0EZ1XTM"},
			{name: "invalid ulid characters", id: "msg_01G0EZ1XTM37C5X11SQTDNCTIL"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				assert.False(t, IsValidID(tc.id))
			})
		}
	})
}
