package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Cone.SampleCount)
	assert.Equal(t, 500.0, cfg.Cone.TraceLength)
	assert.Equal(t, 400.0, cfg.Movement.DefaultSpeed)
	assert.True(t, cfg.Wander.Direction)
	assert.False(t, cfg.Wander.Acceleration)
	assert.Equal(t, "Default", cfg.School.GroupName)
	assert.Empty(t, cfg.Derived.Corrections)

	assert.Equal(t, 300, cfg.Derived.TicksPerWindow)
	assert.Equal(t, [3]float64{6000, 6000, 3000}, cfg.Derived.ArenaCenter)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeFile(t, `
cone:
  sample_count: 24
movement:
  max_speed: 800
school:
  group_name: Reef
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.Cone.SampleCount)
	assert.Equal(t, 800.0, cfg.Movement.MaxSpeed)
	assert.Equal(t, "Reef", cfg.School.GroupName)

	// Untouched keys keep their defaults
	assert.Equal(t, 500.0, cfg.Cone.TraceLength)
	assert.Equal(t, 30.0, cfg.Movement.MinSpeed)
}

func TestLoadValidates(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "sample count clipped to 2",
			body: "cone:\n  sample_count: 1\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2, cfg.Cone.SampleCount)
			},
		},
		{
			name: "inverted speeds swapped",
			body: "movement:\n  min_speed: 900\n  max_speed: 100\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 100.0, cfg.Movement.MinSpeed)
				assert.Equal(t, 900.0, cfg.Movement.MaxSpeed)
			},
		},
		{
			name: "inverted wander delays swapped",
			body: "wander:\n  direction_delay_min: 2\n  direction_delay_max: 1\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 1.0, cfg.Wander.DirectionDelayMin)
				assert.Equal(t, 2.0, cfg.Wander.DirectionDelayMax)
			},
		},
		{
			name: "non-positive dt replaced",
			body: "sim:\n  dt: 0\n",
			check: func(t *testing.T, cfg *Config) {
				assert.InDelta(t, 1.0/60.0, cfg.Sim.DT, 1e-12)
			},
		},
		{
			name: "zero chance floor",
			body: "wander:\n  zero_chance_out_of: 0\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 1, cfg.Wander.ZeroChanceOutOf)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.body))
			require.NoError(t, err)
			assert.NotEmpty(t, cfg.Derived.Corrections)
			tt.check(t, cfg)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")

	_, err = Load(writeFile(t, "cone: [not, a, map]\n"))
	assert.ErrorContains(t, err, "parsing config file")
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Cone.SampleCount = 16
	cfg.Arena.Triggers = append(cfg.Arena.Triggers, TriggerConfig{Name: "cave", Center: [3]float64{100, 200, 300}, Radius: 50})

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, loaded.Cone.SampleCount)
	assert.Equal(t, cfg.Arena.Triggers, loaded.Arena.Triggers)
}

func TestInitAndCfg(t *testing.T) {
	prev := global
	t.Cleanup(func() { global = prev })

	global = nil
	assert.Panics(t, func() { Cfg() })

	require.NoError(t, Init(""))
	assert.Equal(t, 12, Cfg().Cone.SampleCount)

	assert.Error(t, Init(filepath.Join(t.TempDir(), "missing.yaml")))
}
