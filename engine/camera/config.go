package camera

import "github.com/Carmen-Shannon/eduren/common"

const (
	// DefaultMoveSpeed is the linear speed in world units per second.
	DefaultMoveSpeed float32 = 5.0

	// DefaultRotationStep is the angle in degrees applied per rotation command.
	DefaultRotationStep float32 = 1.0
)

// Config holds the camera's movement tuning.
type Config struct {
	// MoveSpeed scales translation: each movement command moves MoveSpeed*dt units.
	MoveSpeed float32

	// RotationStep is the angle in degrees applied by a rotation command.
	RotationStep float32

	// ScaleRotationByDt makes rotation commands apply RotationStep*dt instead of a flat
	// RotationStep, which turns RotationStep into degrees per second.
	ScaleRotationByDt bool
}

// DefaultConfig returns the default tuning: 5 units/s, 1 degree per rotation command, rotation not scaled by dt.
func DefaultConfig() Config {
	return Config{
		MoveSpeed:    DefaultMoveSpeed,
		RotationStep: DefaultRotationStep,
	}
}

// withDefaults replaces zero or negative speeds with their defaults.
func (c Config) withDefaults() Config {
	if c.MoveSpeed < 0 {
		c.MoveSpeed = 0
	}
	if c.RotationStep < 0 {
		c.RotationStep = 0
	}
	c.MoveSpeed = common.Coalesce(c.MoveSpeed, DefaultMoveSpeed)
	c.RotationStep = common.Coalesce(c.RotationStep, DefaultRotationStep)
	return c
}
