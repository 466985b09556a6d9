package renderer

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresentModeFromString(t *testing.T) {
	tests := []struct {
		in   string
		want PresentMode
	}{
		{"vsync", PresentModeVSync},
		{" VSync ", PresentModeVSync},
		{"fifo", PresentModeVSync},
		{"uncapped", PresentModeUncapped},
		{"Immediate", PresentModeUncapped},
	}
	for _, tt := range tests {
		got, err := PresentModeFromString(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := PresentModeFromString("mailbox")
	assert.Error(t, err)
}

func TestPresentModeStringRoundTrip(t *testing.T) {
	for _, m := range []PresentMode{PresentModeVSync, PresentModeUncapped} {
		got, err := PresentModeFromString(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	assert.Equal(t, "present_mode(9)", PresentMode(9).String())
}

func TestMSAASampleCountValid(t *testing.T) {
	for _, c := range []MSAASampleCount{MSAAOff, MSAA4x, MSAA8x, MSAA16x} {
		assert.True(t, c.Valid(), "%d", c)
	}
	for _, c := range []MSAASampleCount{0, 2, 3, 32} {
		assert.False(t, c.Valid(), "%d", c)
	}
}

func TestDefaultClearColor(t *testing.T) {
	assert.InDelta(t, 10.0/255.0, DefaultClearColor[0], 1e-9)
	assert.Equal(t, DefaultClearColor[0], DefaultClearColor[1])
	assert.Equal(t, DefaultClearColor[1], DefaultClearColor[2])
	assert.Equal(t, 1.0, DefaultClearColor[3])

	c := toWGPUColor(DefaultClearColor)
	assert.Equal(t, DefaultClearColor[0], c.R)
	assert.Equal(t, 1.0, c.A)
}

func TestToWGPUPresentMode(t *testing.T) {
	assert.Equal(t, wgpu.PresentModeFifo, toWGPUPresentMode(PresentModeVSync))
	assert.Equal(t, wgpu.PresentModeImmediate, toWGPUPresentMode(PresentModeUncapped))
}

func TestBuilderOptions(t *testing.T) {
	r := &renderer{msaa: MSAA4x, clearColor: DefaultClearColor}

	WithMSAA(3)(r)
	assert.Equal(t, MSAA4x, r.msaa)
	WithMSAA(MSAAOff)(r)
	assert.Equal(t, MSAAOff, r.msaa)

	WithPresentMode(PresentModeVSync)(r)
	require.NotNil(t, r.pendingPresentMode)
	assert.Equal(t, PresentModeVSync, *r.pendingPresentMode)

	WithClearColor(ClearColor{1, 0, 0, 1})(r)
	assert.Equal(t, ClearColor{1, 0, 0, 1}, r.clearColor)

	WithForceSoftwareRenderer(true)(r)
	assert.True(t, r.forceFallbackAdapter)
}
