package asm

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Manu343726/a64asm/cmd/settings"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/asm"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/testgen"
	"github.com/spf13/cobra"
)

// AsmCmd represents the asm command
var AsmCmd = &cobra.Command{
	Use:   "asm",
	Short: "Build, list and run the synthetic test functions",
	Long: `Builds the functions of the scenario catalog with the assembler.

Every subcommand takes the name of a scenario. Use "a64asm asm scenarios" to see the catalog.`,
}

// Everything a scenario command needs, ready to use
type session struct {
	settings *settings.Settings
	logger   *slog.Logger
	closer   io.Closer
	scenario *testgen.Scenario
	code     *code.CompiledCode
}

func (s *session) Close() {
	s.closer.Close()
}

// Loads the settings, builds the logger and compiles the named scenario. Exits on failure
func compileScenario(name string) *session {
	s := &session{settings: settings.Current()}

	logger, closer, err := s.settings.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	s.logger, s.closer = logger, closer

	s.scenario, err = testgen.Find(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s.code, err = s.scenario.Compile(s.settings.Asm, asm.WithLogger(s.logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error compiling %v: %v\n", name, err)
		os.Exit(2)
	}

	return s
}

func scenarioArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	return testgen.Names(), cobra.ShellCompDirectiveNoFileComp
}
