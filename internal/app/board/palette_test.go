package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignIsDeterministicPerName(t *testing.T) {
	s1, s2 := NewState(), NewState()

	a := DefaultPalette.Assign(s1, "session-1", "Alice")
	b := DefaultPalette.Assign(s2, "session-2", "Alice")

	// same name, different room and session: same color
	assert.Equal(t, a.Color, b.Color)
	assert.Equal(t, "Alice", a.Name)
	assert.Equal(t, "session-1", a.ID)
}

func TestAssignPicksColorByHashModulo(t *testing.T) {
	s := NewState()

	u := DefaultPalette.Assign(s, "session-1", "Alice")

	idx := int64(hashName("Alice"))
	if idx < 0 {
		idx = -idx
	}
	assert.Equal(t, DefaultPalette[idx%int64(len(DefaultPalette))], u.Color)
}

func TestAssignBlankNameGetsGeneratedDefault(t *testing.T) {
	s := NewState()

	u := DefaultPalette.Assign(s, "abcdef-123", "")

	assert.Equal(t, "User-abcd", u.Name)

	// the color fallback hashes the session id, not the generated name
	idx := int64(hashName("abcdef-123"))
	if idx < 0 {
		idx = -idx
	}
	assert.Equal(t, DefaultPalette[idx%int64(len(DefaultPalette))], u.Color)
}

func TestAssignRegistersUserInState(t *testing.T) {
	s := NewState()

	u := DefaultPalette.Assign(s, "session-1", "Bob")

	got, ok := s.UserBySession("session-1")
	require.True(t, ok)
	assert.Equal(t, u, got)
}

func TestHashNameMatchesReferenceValues(t *testing.T) {
	// h = h*31 + c with int32 wraparound; empty string hashes to zero
	assert.Equal(t, int32(0), hashName(""))
	assert.Equal(t, int32('a'), hashName("a"))
	assert.Equal(t, int32('a')*31+int32('b'), hashName("ab"))
}

func TestHashNameWrapsOnLongInput(t *testing.T) {
	long := ""
	for i := 0; i < 64; i++ {
		long += "collaborative-canvas"
	}

	// must terminate and stay stable across calls despite overflow
	assert.Equal(t, hashName(long), hashName(long))
}
