package input

import (
	"maps"

	"github.com/Carmen-Shannon/eduren/engine/camera"
)

// MapperBuilderOption is a functional option for configuring a Mapper.
type MapperBuilderOption func(m *mapper)

// WithBindings replaces the default key-to-command table.
//
// Parameters:
//   - bindings: key codes mapped to commands
//
// Returns:
//   - MapperBuilderOption: option function to apply
func WithBindings(bindings map[uint32]camera.Command) MapperBuilderOption {
	return func(m *mapper) {
		m.bindings = maps.Clone(bindings)
	}
}

// WithHasteKeys replaces the set of keys that speed up movement. Pass no keys to disable haste.
//
// Parameters:
//   - keys: key codes that enable haste while held
//
// Returns:
//   - MapperBuilderOption: option function to apply
func WithHasteKeys(keys ...uint32) MapperBuilderOption {
	return func(m *mapper) {
		m.setHasteKeys(keys)
	}
}

// WithHasteMultiplier sets the movement multiplier applied while a haste key is held.
// Non-positive values are ignored.
//
// Parameters:
//   - multiplier: the dt scale for movement commands
//
// Returns:
//   - MapperBuilderOption: option function to apply
func WithHasteMultiplier(multiplier float32) MapperBuilderOption {
	return func(m *mapper) {
		if multiplier > 0 {
			m.hasteMultiplier = multiplier
		}
	}
}
