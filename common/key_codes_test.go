package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyByName(t *testing.T) {
	tests := []struct {
		name string
		want uint32
	}{
		{"w", KeyW},
		{"W", KeyW},
		{" up ", KeyUp},
		{"Left", KeyLeft},
		{"left_shift", KeyLeftShift},
		{"escape", KeyEsc},
	}
	for _, tt := range tests {
		got, err := KeyByName(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestKeyByNameUnknown(t *testing.T) {
	_, err := KeyByName("hyper")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestKeyName(t *testing.T) {
	assert.Equal(t, "w", KeyName(KeyW))
	assert.Equal(t, "esc", KeyName(KeyEsc))
	assert.Equal(t, "right_shift", KeyName(KeyRightShift))
	assert.Equal(t, "", KeyName(9999))
}
