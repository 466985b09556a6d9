package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey is returned by KeyByName when a key name has no known key code.
var ErrUnknownKey = errors.New("unknown key")

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW     = 87  // W key (ASCII)
	KeyA     = 65  // A key (ASCII)
	KeyS     = 83  // S key (ASCII)
	KeyD     = 68  // D key (ASCII)
	KeyQ     = 81  // Q key (ASCII)
	KeyE     = 69  // E key (ASCII)
	KeySpace = 32  // Spacebar (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)
)

// Arrow keys
const (
	KeyRight = 262 // Right arrow (GLFW)
	KeyLeft  = 263 // Left arrow (GLFW)
	KeyDown  = 264 // Down arrow (GLFW)
	KeyUp    = 265 // Up arrow (GLFW)
)

// Modifier keys
const (
	KeyLeftShift  = 340 // Left Shift (GLFW)
	KeyRightShift = 344 // Right Shift (GLFW)
)

var keyNames = map[string]uint32{
	"w":           KeyW,
	"a":           KeyA,
	"s":           KeyS,
	"d":           KeyD,
	"q":           KeyQ,
	"e":           KeyE,
	"space":       KeySpace,
	"esc":         KeyEsc,
	"escape":      KeyEsc,
	"right":       KeyRight,
	"left":        KeyLeft,
	"down":        KeyDown,
	"up":          KeyUp,
	"left_shift":  KeyLeftShift,
	"right_shift": KeyRightShift,
}

// KeyByName resolves a case-insensitive key name such as "w", "up" or "left_shift" to its key code.
//
// Parameters:
//   - name: the key name
//
// Returns:
//   - uint32: the key code
//   - error: ErrUnknownKey (wrapped) if the name is not recognized
func KeyByName(name string) (uint32, error) {
	code, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return code, nil
}

// KeyName returns the canonical name of a key code, or an empty string if the code is not named.
func KeyName(code uint32) string {
	var best string
	for name, c := range keyNames {
		if c != code {
			continue
		}
		// "esc" and "escape" share a code; prefer the shortest, then lexical order, for a stable result.
		if best == "" || len(name) < len(best) || (len(name) == len(best) && name < best) {
			best = name
		}
	}
	return best
}
