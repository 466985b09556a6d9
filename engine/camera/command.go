package camera

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCommand is returned by ParseCommand for names outside the command set.
var ErrUnknownCommand = errors.New("unknown camera command")

// Command is one of the eight directives the camera understands.
// Magnitude is not part of the command; it comes from the elapsed time passed to ProcessKey.
type Command uint8

const (
	Forward Command = iota
	Back
	Left
	Right
	PitchUp
	PitchDown
	YawLeft
	YawRight

	commandCount
)

var commandNames = [commandCount]string{
	Forward:   "forward",
	Back:      "back",
	Left:      "left",
	Right:     "right",
	PitchUp:   "pitch_up",
	PitchDown: "pitch_down",
	YawLeft:   "yaw_left",
	YawRight:  "yaw_right",
}

// Commands returns every command in declaration order.
func Commands() []Command {
	out := make([]Command, 0, commandCount)
	for c := range commandCount {
		out = append(out, c)
	}
	return out
}

// ParseCommand resolves a case-insensitive command name such as "forward" or "yaw_left".
//
// Parameters:
//   - name: the command name
//
// Returns:
//   - Command: the matching command
//   - error: ErrUnknownCommand (wrapped) if name matches no command
func ParseCommand(name string) (Command, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for c, cn := range commandNames {
		if cn == n {
			return Command(c), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// String returns the command name.
func (c Command) String() string {
	if !c.Valid() {
		return fmt.Sprintf("command(%d)", uint8(c))
	}
	return commandNames[c]
}

// Valid reports whether c is one of the eight defined commands.
func (c Command) Valid() bool {
	return c < commandCount
}

// IsMovement reports whether c translates the camera.
func (c Command) IsMovement() bool {
	return c <= Right
}

// IsRotation reports whether c changes yaw or pitch.
func (c Command) IsRotation() bool {
	return c >= PitchUp && c < commandCount
}
