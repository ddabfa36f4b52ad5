package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOverridesDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
addr = ":9000"

[skybox]
size = 256
output_dir = "captures"

[scene]
random_cubes = 0

[render]
frame_limit = 0
profiling = true
`))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 256, cfg.Skybox.Size)
	assert.Equal(t, "captures", cfg.Skybox.OutputDir)
	assert.Equal(t, def.Skybox.DefaultName, cfg.Skybox.DefaultName)
	assert.Equal(t, 0, cfg.Scene.RandomCubes)
	assert.Equal(t, def.Scene.Seed, cfg.Scene.Seed)
	assert.Zero(t, cfg.Render.FrameLimit)
	assert.True(t, cfg.Render.Profiling)
	assert.Equal(t, def.Window, cfg.Window)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestDecodeCoalescesEmptyValues(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
addr = ""
[window]
width = 0
[log]
level = ""
`))
	require.NoError(t, err)
	assert.Equal(t, Default().Addr, cfg.Addr)
	assert.Equal(t, 1600, cfg.Window.Width)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestDecodeErrors(t *testing.T) {
	for _, doc := range []string{
		`unknown = 1`,
		`[skybox]
size = -1`,
		`[render]
frame_limit = -5`,
		`[log]
level = "loud"`,
		`addr = `,
		`[skybox]
size = 8193`,
		`[skybox]
size = 1048576`,
		`stream_buffer = -1`,
		`[camera]
fov = 180.0`,
		`[camera]
near = 10.0
far = 5.0`,
		`[render]
clear_color = [0.0, 0.0, 2.0, 1.0]`,
		`[render]
profile_interval = -1.0`,
	} {
		_, err := Decode(strings.NewReader(doc))
		assert.Error(t, err, doc)
	}
}

func TestValidateRejectsEmptyAddr(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	cfg.Addr = ""
	assert.ErrorContains(t, cfg.Validate(), "addr")

	cfg = Default()
	cfg.Skybox.Size = 0
	assert.ErrorContains(t, cfg.Validate(), "skybox size")
}

func TestDecodeWindowAndCamera(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
stream_buffer = 8

[window]
vsync = false
resizable = true

[camera]
fov = 60.0
azimuth = 45.0
orbit_speed = 0.0

[render]
profile_interval = 2.5
clear_color = [0.0, 0.0, 0.0, 1.0]
`))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.StreamBuffer)
	assert.False(t, cfg.Window.VSync)
	assert.True(t, cfg.Window.Resizable)
	assert.Equal(t, 60.0, cfg.Camera.Fov)
	assert.Equal(t, 0.1, cfg.Camera.Near)
	assert.Equal(t, 100.0, cfg.Camera.Far)
	assert.Equal(t, 45.0, cfg.Camera.Azimuth)
	assert.Zero(t, cfg.Camera.OrbitSpeed)
	assert.Equal(t, 2.5, cfg.Render.ProfileInterval)
	assert.Equal(t, [4]float64{0, 0, 0, 1}, cfg.Render.ClearColor)
}

func TestLoadAndEncode(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	cfg.Skybox.Size = 128
	cfg.Log.Level = "debug"
	cfg.Window.Resizable = true
	cfg.Camera.Azimuth = 30
	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))

	path := filepath.Join(t.TempDir(), "universe.toml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
