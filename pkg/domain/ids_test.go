package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseApplicationID(t *testing.T) {
	t.Run("accepts a trimmed reference", func(t *testing.T) {
		appID, err := ParseApplicationID("  APP-2026-0042  ")
		require.NoError(t, err)
		assert.Equal(t, "APP-2026-0042", appID.String())
		assert.False(t, appID.IsEmpty())
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := ParseApplicationID("   ")
		assert.ErrorIs(t, err, ErrEmptyID)
	})

	t.Run("rejects references over 64 characters", func(t *testing.T) {
		_, err := ParseApplicationID(strings.Repeat("x", 65))
		assert.ErrorIs(t, err, ErrIDTooLong)

		_, err = ParseApplicationID(strings.Repeat("x", 64))
		assert.NoError(t, err)
	})
}

func TestDecisionID(t *testing.T) {
	t.Run("round trips through its string form", func(t *testing.T) {
		original := NewDecisionID()
		parsed, err := ParseDecisionID(original.String())
		require.NoError(t, err)
		assert.Equal(t, original, parsed)
	})

	t.Run("rejects non-uuid input", func(t *testing.T) {
		_, err := ParseDecisionID("not-a-uuid")
		assert.Error(t, err)
	})

	t.Run("zero value is nil", func(t *testing.T) {
		var decisionID DecisionID
		assert.True(t, decisionID.IsNil())
		assert.False(t, NewDecisionID().IsNil())
	})
}

func TestOverrideID(t *testing.T) {
	var overrideID OverrideID
	assert.True(t, overrideID.IsNil())
	assert.False(t, NewOverrideID().IsNil())
}
