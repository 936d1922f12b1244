package asm

import (
	"fmt"
	"os"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/disasm"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/link"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/testgen"
	"github.com/Manu343726/a64asm/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	listExplain bool
	listLinked  bool
)

var listCmd = &cobra.Command{
	Use:   "list <scenario>",
	Short: "Disassemble a scenario",
	Long: `Builds a scenario and prints its code as an annotated listing, followed by its data section.

Each instruction shows its address, encoding, GNU syntax and the assembler form it was
emitted with. The patch, call, mark and exception sites recorded at an instruction are
listed below it.

Example:
  a64asm asm list native-call
  a64asm asm list constant-pointer --linked
  a64asm asm list int-add --explain`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: scenarioArgs,
	Run:               runList,
}

func init() {
	AsmCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVarP(&listExplain, "explain", "e", false, "Print the bit field diagram of every instruction")
	listCmd.Flags().BoolVarP(&listLinked, "linked", "l", false, "List the code after the linker resolved every patch site")
}

func runList(cmd *cobra.Command, args []string) {
	s := compileScenario(args[0])
	defer s.Close()

	colorize := s.settings.Colorize(os.Stdout)
	cc := s.code
	base := s.settings.Link.BaseAddress
	dataAddress := utils.AlignUp(base+uint64(len(cc.Code)), uint64(max(cc.DataAlignment, 1)))

	if listLinked {
		options := s.settings.Link
		options.Constants = testgen.Constants
		options.Logger = s.logger

		img, err := link.Link(cc, options)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error linking %v: %v\n", cc.Name, err)
			os.Exit(3)
		}

		cc = cc.Clone()
		cc.Code, cc.Data = img.Code, img.Data
		dataAddress = img.DataAddress
	}

	lines, err := disasm.List(cc, base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(4)
	}

	fmt.Printf("%v: %d bytes of code, %d bytes of data, frame size %d\n\n", cc.Name, len(cc.Code), len(cc.Data), cc.TotalFrameSize)

	for _, line := range lines {
		if err := disasm.Write(os.Stdout, []disasm.Line{line}, colorize); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(4)
		}

		if listExplain && line.Form != nil {
			diagram, err := disasm.Explain(line.Word)
			if err == nil {
				fmt.Println(diagram)
			}
		}
	}

	if len(cc.Data) > 0 {
		fmt.Println("\ndata:")
		if err := disasm.WriteData(os.Stdout, cc, dataAddress, colorize); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(4)
		}
	}
}
