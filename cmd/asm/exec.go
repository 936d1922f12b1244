package asm

import (
	"fmt"
	"math"
	"os"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/testgen"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	execMaxSteps int
	execVerbose  bool
)

var execCmd = &cobra.Command{
	Use:   "exec <scenario>",
	Short: "Link and run a scenario in the simulator",
	Long: `Builds a scenario, links it against the scenario constants and runs it in the AArch64
simulator, then checks the result against the one the scenario expects.

The command prints x0 and v0 on return, or the fault if the function trapped.
It exits with status 5 if the result is not the expected one.

Example:
  a64asm asm exec native-call
  a64asm asm exec trap -v`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: scenarioArgs,
	Run:               runExec,
}

func init() {
	AsmCmd.AddCommand(execCmd)
	execCmd.Flags().IntVarP(&execMaxSteps, "max-steps", "n", 0, "Maximum number of steps to execute (0 = configured sim.max_steps)")
	execCmd.Flags().BoolVarP(&execVerbose, "verbose", "v", false, "Print execution details")
}

func runExec(cmd *cobra.Command, args []string) {
	s := compileScenario(args[0])
	defer s.Close()

	s.settings.Colorize(os.Stdout)

	simOptions := s.settings.Sim
	if execMaxSteps > 0 {
		simOptions.MaxSteps = execMaxSteps
	}

	outcome, err := testgen.Execute(s.code, s.settings.Link, simOptions, s.logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running %v: %v\n", s.scenario.Name, err)
		os.Exit(4)
	}

	if execVerbose {
		fmt.Fprintf(os.Stderr, "Image: code=0x%08x (%d bytes), data=0x%08x (%d bytes)\n",
			outcome.Image.BaseAddress, len(outcome.Image.Code), outcome.Image.DataAddress, len(outcome.Image.Data))
		fmt.Fprintf(os.Stderr, "Entry sp=0x%x, exit sp=0x%x\n", outcome.EntrySP, outcome.State.SP)
	}

	if outcome.Fault != nil {
		fmt.Printf("fault: %v\n", outcome.Fault)
	} else {
		x0 := outcome.Result(registers.R0)
		v0 := outcome.Result(registers.V0)
		fmt.Printf("x0 = 0x%016x (%d)\n", x0, int64(x0))
		fmt.Printf("v0 = 0x%016x (%g as double, %g as float)\n", v0, math.Float64frombits(v0), math.Float32frombits(uint32(v0)))
	}

	if err := s.scenario.Check(s.settings.Asm, outcome); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stdout, "FAIL: %v\n", err)
		os.Exit(5)
	}

	color.New(color.FgGreen, color.Bold).Fprintln(os.Stdout, "OK")
}
