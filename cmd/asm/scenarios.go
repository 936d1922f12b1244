package asm

import (
	"fmt"
	"os"

	"github.com/Manu343726/a64asm/cmd/settings"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/testgen"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the scenario catalog",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings.Current().Colorize(os.Stdout)
		name := color.New(color.FgCyan, color.Bold)

		for _, scenario := range testgen.Catalog {
			fmt.Printf("%v %v\n", name.Sprintf("%-20v", scenario.Name), scenario.Description)
		}
	},
}

func init() {
	AsmCmd.AddCommand(scenariosCmd)
}
