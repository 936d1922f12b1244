package tools

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/encoding"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/testgen"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var supportedModules = map[string]func() string{
	"aarch64.registers": registers.DocString,
	"aarch64.forms":     encoding.DocString,
	"aarch64.scenarios": scenariosDocString,
}

func scenariosDocString() string {
	return strings.Join(lo.Map(testgen.Catalog, func(s *testgen.Scenario, _ int) string {
		return fmt.Sprintf("%-20v %v", s.Name, s.Description)
	}), "\n")
}

func moduleNames() []string {
	names := lo.Keys(supportedModules)
	sort.Strings(names)
	return names
}

var docsCmd = &cobra.Command{
	Use:   "docs module",
	Short: "Show a64asm documentation",
	Long: `Dumps the documentation of the specified a64asm module.
By default the tool dumps the documentation to stdout, but it can be redirected to a file using the --output flag.

Supported modules:
` + strings.Join(lo.Map(moduleNames(), func(module string, _ int) string { return "  " + module }), "\n"),
	Args:      cobra.MatchAll(cobra.OnlyValidArgs, cobra.ExactArgs(1)),
	ValidArgs: moduleNames(),
	Run: func(cmd *cobra.Command, args []string) {
		module := args[0]
		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			file, err := os.Create(outputFile)
			if err != nil {
				fmt.Println("Error creating file:", err)
				os.Exit(1)
			}
			defer file.Close()
			fmt.Fprintln(file, supportedModules[module]())
		} else {
			fmt.Println(supportedModules[module]())
		}
	},
}

func init() {
	ToolsCmd.AddCommand(docsCmd)
	docsCmd.Flags().StringP("output", "o", "", "Output file. If not specified, the documentation is dumped to stdout.")
}
