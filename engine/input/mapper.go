package input

import (
	"fmt"
	"maps"
	"sync"

	"github.com/Carmen-Shannon/eduren/common"
	"github.com/Carmen-Shannon/eduren/engine/camera"
)

// DefaultHasteMultiplier scales movement while a haste key is held.
const DefaultHasteMultiplier float32 = 3.0

type mapper struct {
	mu *sync.Mutex

	bindings        map[uint32]camera.Command
	hasteKeys       map[uint32]struct{}
	hasteMultiplier float32

	held map[uint32]struct{}
}

// Mapper tracks which keys are held and turns them into camera commands once per tick.
type Mapper interface {
	// KeyDown marks a key as held. Intended to be wired to the window's key-down callback.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	KeyDown(keyCode uint32)

	// KeyUp marks a key as released.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	KeyUp(keyCode uint32)

	// Held reports whether a key is currently held.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	//
	// Returns:
	//   - bool: true if the key is down
	Held(keyCode uint32) bool

	// Reset releases every held key.
	Reset()

	// Apply issues one ProcessKey call per active command, in command declaration order.
	// A command is active when any key bound to it is held. Movement commands receive
	// dt scaled by the haste multiplier while a haste key is held; rotation commands receive dt unchanged.
	//
	// Parameters:
	//   - cam: the camera to drive
	//   - dt: elapsed time in seconds for this tick
	//
	// Returns:
	//   - int: the number of commands applied
	Apply(cam camera.Camera, dt float32) int

	// Bindings returns a copy of the key-to-command table.
	//
	// Returns:
	//   - map[uint32]camera.Command: key codes mapped to commands
	Bindings() map[uint32]camera.Command

	// SetBindings replaces the key-to-command table and releases all held keys.
	//
	// Parameters:
	//   - bindings: key codes mapped to commands
	SetBindings(bindings map[uint32]camera.Command)

	// SetHasteKeys replaces the set of keys that speed up movement. Held keys are kept.
	//
	// Parameters:
	//   - keys: key codes that enable haste while held; none disables haste
	SetHasteKeys(keys ...uint32)

	// HasteMultiplier returns the movement multiplier applied while a haste key is held.
	HasteMultiplier() float32

	// SetHasteMultiplier sets the movement multiplier applied while a haste key is held.
	// Non-positive values are ignored.
	SetHasteMultiplier(m float32)
}

var _ Mapper = &mapper{}

// DefaultBindings returns the standard layout: WASD for movement and the arrow keys for looking around.
func DefaultBindings() map[uint32]camera.Command {
	return map[uint32]camera.Command{
		common.KeyW:     camera.Forward,
		common.KeyS:     camera.Back,
		common.KeyA:     camera.Left,
		common.KeyD:     camera.Right,
		common.KeyUp:    camera.PitchUp,
		common.KeyDown:  camera.PitchDown,
		common.KeyLeft:  camera.YawLeft,
		common.KeyRight: camera.YawRight,
	}
}

// DefaultHasteKeys returns both shift keys.
func DefaultHasteKeys() []uint32 {
	return []uint32{common.KeyLeftShift, common.KeyRightShift}
}

// NewMapper creates a Mapper with the default bindings, both shift keys as haste keys
// and DefaultHasteMultiplier.
//
// Parameters:
//   - options: functional options to configure the mapper
//
// Returns:
//   - Mapper: the newly created mapper
func NewMapper(options ...MapperBuilderOption) Mapper {
	m := &mapper{
		mu:              &sync.Mutex{},
		bindings:        DefaultBindings(),
		hasteMultiplier: DefaultHasteMultiplier,
		held:            make(map[uint32]struct{}),
	}
	m.setHasteKeys(DefaultHasteKeys())
	for _, opt := range options {
		opt(m)
	}
	return m
}

// BindingsFromNames converts a key-name to command-name table, as found in configuration files,
// into a binding table.
//
// Parameters:
//   - names: key names mapped to command names, e.g. {"w": "forward"}
//
// Returns:
//   - map[uint32]camera.Command: the resolved bindings
//   - error: the first unknown key or command name
func BindingsFromNames(names map[string]string) (map[uint32]camera.Command, error) {
	out := make(map[uint32]camera.Command, len(names))
	for keyName, cmdName := range names {
		code, err := common.KeyByName(keyName)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", keyName, err)
		}
		cmd, err := camera.ParseCommand(cmdName)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", keyName, err)
		}
		out[code] = cmd
	}
	return out, nil
}

// KeysFromNames resolves a list of key names into key codes.
func KeysFromNames(names []string) ([]uint32, error) {
	out := make([]uint32, 0, len(names))
	for _, n := range names {
		code, err := common.KeyByName(n)
		if err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, nil
}

func (m *mapper) KeyDown(keyCode uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[keyCode] = struct{}{}
}

func (m *mapper) KeyUp(keyCode uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, keyCode)
}

func (m *mapper) Held(keyCode uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[keyCode]
	return ok
}

func (m *mapper) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.held)
}

func (m *mapper) Apply(cam camera.Camera, dt float32) int {
	m.mu.Lock()
	active := make(map[camera.Command]bool, len(m.bindings))
	for key := range m.held {
		if cmd, ok := m.bindings[key]; ok && cmd.Valid() {
			active[cmd] = true
		}
	}
	haste := false
	for key := range m.hasteKeys {
		if _, ok := m.held[key]; ok {
			haste = true
			break
		}
	}
	multiplier := m.hasteMultiplier
	m.mu.Unlock()

	applied := 0
	for _, cmd := range camera.Commands() {
		if !active[cmd] {
			continue
		}
		cmdDt := dt
		if haste && cmd.IsMovement() {
			cmdDt *= multiplier
		}
		cam.ProcessKey(cmd, cmdDt)
		applied++
	}
	return applied
}

func (m *mapper) Bindings() map[uint32]camera.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.bindings)
}

func (m *mapper) SetBindings(bindings map[uint32]camera.Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings = maps.Clone(bindings)
	clear(m.held)
}

func (m *mapper) SetHasteKeys(keys ...uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setHasteKeys(keys)
}

func (m *mapper) setHasteKeys(keys []uint32) {
	m.hasteKeys = make(map[uint32]struct{}, len(keys))
	for _, k := range keys {
		m.hasteKeys[k] = struct{}{}
	}
}

func (m *mapper) HasteMultiplier() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasteMultiplier
}

func (m *mapper) SetHasteMultiplier(mult float32) {
	if mult <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasteMultiplier = mult
}
