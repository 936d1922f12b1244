// Package settings holds the configuration shared by every a64asm command: assembler
// platform constants, linker and simulator options, logging and color output.
package settings

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/asm"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/link"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/sim"
	"github.com/fatih/color"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

const EnvPrefix = "A64ASM"

type LogSettings struct {
	Level string `mapstructure:"level" yaml:"level"`
	// JSON log file, in addition to the text log written to stderr
	File string `mapstructure:"file" yaml:"file"`
}

type Settings struct {
	Asm  asm.Config   `mapstructure:"asm" yaml:"asm"`
	Link link.Options `mapstructure:"link" yaml:"link"`
	Sim  sim.Options  `mapstructure:"sim" yaml:"sim"`
	Log  LogSettings  `mapstructure:"log" yaml:"log"`
	// auto, always or never
	Color string `mapstructure:"color" yaml:"color"`
}

// Registers the default value of every setting, so that each one can also be set from
// the environment (A64ASM_ASM_DATA_ALIGNMENT, A64ASM_SIM_MAX_STEPS...)
func SetDefaults(v *viper.Viper) {
	config := asm.DefaultConfig()
	v.SetDefault("asm.handle_deopt_stub", config.HandleDeoptStub)
	v.SetDefault("asm.verified_entry_mark", config.VerifiedEntryMark)
	v.SetDefault("asm.deopt_handler_entry_mark", config.DeoptHandlerEntryMark)
	v.SetDefault("asm.data_alignment", config.DataAlignment)
	v.SetDefault("asm.narrow_oop_base", config.NarrowOopBase)
	v.SetDefault("asm.narrow_oop_shift", config.NarrowOopShift)

	linkOptions := link.DefaultOptions()
	v.SetDefault("link.base_address", linkOptions.BaseAddress)
	v.SetDefault("link.data_alignment", linkOptions.DataAlignment)

	simOptions := sim.DefaultOptions()
	v.SetDefault("sim.memory_base", simOptions.MemoryBase)
	v.SetDefault("sim.memory_size", simOptions.MemorySize)
	v.SetDefault("sim.max_steps", simOptions.MaxSteps)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
	v.SetDefault("color", "auto")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Reads the current settings from viper
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings

	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &s, nil
}

// Returns the settings of the global viper instance. Exits on invalid configuration
func Current() *Settings {
	s, err := Load(viper.GetViper())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	return s
}

func parseLevel(level string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(level))
	return l, err
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Builds the logger: text records to stderr and, if a log file is configured, JSON
// records to that file. The returned closer releases the log file
func (s *Settings) Logger() (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(s.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level '%v': %w", s.Log.Level, err)
	}

	options := &slog.HandlerOptions{Level: level}
	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, options)}
	var closer io.Closer = nopCloser{}

	if s.Log.File != "" {
		file, err := os.Create(s.Log.File)
		if err != nil {
			return nil, nil, fmt.Errorf("creating log file: %w", err)
		}

		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = file
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

// Decides whether output to f is colored, and configures fatih/color accordingly
func (s *Settings) Colorize(f *os.File) bool {
	colorize := false

	switch s.Color {
	case "always":
		colorize = true
	case "never":
	default:
		colorize = term.IsTerminal(int(f.Fd()))
	}

	color.NoColor = !colorize
	return colorize
}
