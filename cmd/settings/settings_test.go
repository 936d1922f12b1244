package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/asm"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/link"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/sim"
	"github.com/fatih/color"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	s, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, asm.DefaultConfig(), s.Asm)
	assert.Equal(t, link.DefaultOptions().BaseAddress, s.Link.BaseAddress)
	assert.Equal(t, sim.DefaultOptions(), s.Sim)
	assert.Equal(t, "warn", s.Log.Level)
	assert.Equal(t, "auto", s.Color)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("A64ASM_SIM_MAX_STEPS", "10")
	t.Setenv("A64ASM_ASM_NARROW_OOP_SHIFT", "4")
	t.Setenv("A64ASM_LINK_BASE_ADDRESS", "0x20000")

	v := viper.New()
	SetDefaults(v)

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Sim.MaxSteps)
	assert.Equal(t, 4, s.Asm.NarrowOopShift)
	assert.Equal(t, uint64(0x20000), s.Link.BaseAddress)
}

func TestLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a64asm.log")
	s := &Settings{Log: LogSettings{Level: "error", File: path}}

	logger, closer, err := s.Logger()
	require.NoError(t, err)
	logger.Debug("emit", "word", "0xd503201f")
	require.NoError(t, closer.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), `"msg":"emit"`)
	assert.Contains(t, string(contents), `"word":"0xd503201f"`)
}

func TestLogger_InvalidLevel(t *testing.T) {
	_, _, err := (&Settings{Log: LogSettings{Level: "loud"}}).Logger()
	assert.Error(t, err)
}

func TestColorize(t *testing.T) {
	previous := color.NoColor
	t.Cleanup(func() { color.NoColor = previous })

	assert.True(t, (&Settings{Color: "always"}).Colorize(os.Stdout))
	assert.False(t, color.NoColor)

	assert.False(t, (&Settings{Color: "never"}).Colorize(os.Stdout))
	assert.True(t, color.NoColor)
}
