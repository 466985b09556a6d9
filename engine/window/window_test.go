package window

import (
	"testing"

	"github.com/Carmen-Shannon/eduren/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{width: 1280, height: 720, resizable: true}
	for _, opt := range []WindowBuilderOption{
		WithTitle("viewer"),
		WithSize(800, 0),
		WithMinSize(100, 50),
		WithMaxSize(1920, 1080),
		WithResizable(false),
	} {
		opt(w)
	}

	assert.Equal(t, "viewer", w.title)
	assert.Equal(t, 800, w.width)
	assert.Equal(t, 720, w.height, "non-positive height keeps the default")
	assert.Equal(t, 100, w.minWidth)
	assert.Equal(t, 50, w.minHeight)
	assert.Equal(t, 1920, w.maxWidth)
	assert.Equal(t, 1080, w.maxHeight)
	assert.False(t, w.resizable)
}

func TestHandleKeyRoutesPressAndRelease(t *testing.T) {
	w := &engineWindow{}
	var down, up []uint32
	w.SetKeyDownCallback(func(k uint32) { down = append(down, k) })
	w.SetKeyUpCallback(func(k uint32) { up = append(up, k) })

	assert.False(t, w.handleKey(common.KeyW, true))
	assert.False(t, w.handleKey(common.KeyW, false))
	assert.False(t, w.handleKey(common.KeyLeftShift, true))

	assert.Equal(t, []uint32{common.KeyW, common.KeyLeftShift}, down)
	assert.Equal(t, []uint32{common.KeyW}, up)
}

func TestHandleKeyEscapeRequestsClose(t *testing.T) {
	w := &engineWindow{}
	called := false
	w.SetKeyDownCallback(func(uint32) { called = true })

	assert.True(t, w.handleKey(common.KeyEsc, true))
	assert.False(t, w.handleKey(common.KeyEsc, false))
	assert.False(t, called, "escape is not forwarded")
}

func TestHandleKeyWithoutCallbacks(t *testing.T) {
	w := &engineWindow{}
	assert.NotPanics(t, func() {
		w.handleKey(common.KeyA, true)
		w.handleKey(common.KeyA, false)
		w.handleResize(10, 10)
	})
}

func TestHandleResizeUpdatesSize(t *testing.T) {
	w := &engineWindow{width: 1280, height: 720}
	var got [2]int
	w.SetResizeCallback(func(width, height int) { got = [2]int{width, height} })

	w.handleResize(640, 480)

	assert.Equal(t, 640, w.Width())
	assert.Equal(t, 480, w.Height())
	assert.Equal(t, [2]int{640, 480}, got)
}

func TestUninitializedWindow(t *testing.T) {
	w := &engineWindow{}
	assert.False(t, w.IsRunning())
	assert.False(t, w.PollEvents())
	assert.Nil(t, w.SurfaceDescriptor())
	require.Error(t, w.Close())
	assert.NotPanics(t, func() { w.SetTitle("x") })
	assert.Equal(t, "x", w.title)
}
