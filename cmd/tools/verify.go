package tools

import (
	"fmt"
	"os"

	"github.com/Manu343726/a64asm/cmd/settings"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/crosscheck"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Cross-check the encoder against the Go arm64 assembler",
	Long: `Assembles a fixed set of instructions with the a64asm encoders and with the Go toolchain's
arm64 backend, and compares the resulting words. Exits with status 2 on any mismatch.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := settings.Current()
		s.Colorize(os.Stdout)

		logger, closer, err := s.Logger()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closer.Close()

		results, err := crosscheck.Run(nil, crosscheck.WithLogger(logger))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ok := color.New(color.FgGreen)
		mismatch := color.New(color.FgRed, color.Bold)

		for _, result := range results {
			if result.Match() {
				ok.Println(result)
			} else {
				mismatch.Println(result)
			}
		}

		if err := crosscheck.Verify(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	},
}

func init() {
	ToolsCmd.AddCommand(verifyCmd)
}
