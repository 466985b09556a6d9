package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandClassification(t *testing.T) {
	movement := []Command{Forward, Back, Left, Right}
	rotation := []Command{PitchUp, PitchDown, YawLeft, YawRight}

	for _, c := range movement {
		assert.True(t, c.Valid(), c.String())
		assert.True(t, c.IsMovement(), c.String())
		assert.False(t, c.IsRotation(), c.String())
	}
	for _, c := range rotation {
		assert.True(t, c.Valid(), c.String())
		assert.True(t, c.IsRotation(), c.String())
		assert.False(t, c.IsMovement(), c.String())
	}

	bogus := Command(42)
	assert.False(t, bogus.Valid())
	assert.False(t, bogus.IsMovement())
	assert.False(t, bogus.IsRotation())
	assert.Equal(t, "command(42)", bogus.String())
}

func TestCommandsOrder(t *testing.T) {
	assert.Equal(t, []Command{Forward, Back, Left, Right, PitchUp, PitchDown, YawLeft, YawRight}, Commands())
}

func TestParseCommandRoundTrip(t *testing.T) {
	for _, c := range Commands() {
		got, err := ParseCommand(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	got, err := ParseCommand("  Yaw_Left ")
	require.NoError(t, err)
	assert.Equal(t, YawLeft, got)
}

func TestParseCommandUnknown(t *testing.T) {
	_, err := ParseCommand("jump")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, err.Error(), "jump")
}
