package asm

import (
	"fmt"
	"io"
	"os"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/utils"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	emitFormat string
	emitOutput string
)

var emitCmd = &cobra.Command{
	Use:   "emit <scenario>",
	Short: "Dump the compiled code of a scenario",
	Long: `Builds a scenario and writes its compiled code, before linking.

Formats:
  hex   code and data words, one per line
  yaml  a report with the code, data, frame size and every recorded site
  bin   the raw code bytes followed by the raw data bytes

Example:
  a64asm asm emit load-double --format yaml
  a64asm asm emit int-add --format bin -o int-add.bin`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: scenarioArgs,
	Run:               runEmit,
}

func init() {
	AsmCmd.AddCommand(emitCmd)
	emitCmd.Flags().StringVarP(&emitFormat, "format", "f", "hex", "Output format (hex, yaml, bin)")
	emitCmd.Flags().StringVarP(&emitOutput, "output", "o", "", "Output file. If not specified, the code is dumped to stdout.")
}

type siteReport struct {
	Kind     string `yaml:"kind"`
	Position int    `yaml:"position"`
	Text     string `yaml:"text"`
}

type codeReport struct {
	Name          string       `yaml:"name"`
	FrameSize     int          `yaml:"frame_size"`
	DataAlignment int          `yaml:"data_alignment"`
	Code          []string     `yaml:"code"`
	Data          []string     `yaml:"data,omitempty"`
	Sites         []siteReport `yaml:"sites,omitempty"`
}

func siteKind(site code.Site) string {
	switch site.(type) {
	case code.Mark:
		return "mark"
	case code.Call:
		return "call"
	case code.ImplicitException:
		return "implicit_exception"
	case code.DataPatch:
		return "data_patch"
	case code.DataItemPatch:
		return "data_item_patch"
	}

	return "unknown"
}

func words(data []byte) []string {
	return lo.Map(lo.Chunk(data, 4), func(chunk []byte, _ int) string {
		word := uint64(0)
		for i, b := range chunk {
			word |= uint64(b) << (8 * i)
		}

		return utils.FormatUintHex(word, 2*len(chunk))
	})
}

func report(cc *code.CompiledCode) codeReport {
	return codeReport{
		Name:          cc.Name,
		FrameSize:     cc.TotalFrameSize,
		DataAlignment: cc.DataAlignment,
		Code:          words(cc.Code),
		Data:          words(cc.Data),
		Sites: lo.Map(cc.Sites, func(site code.Site, _ int) siteReport {
			return siteReport{Kind: siteKind(site), Position: site.Position(), Text: site.String()}
		}),
	}
}

func writeCode(w io.Writer, cc *code.CompiledCode, format string) error {
	switch format {
	case "hex":
		if _, err := fmt.Fprintf(w, "code:\n%vdata:\n%v", utils.FormatWords(cc.Code, 0), utils.FormatWords(cc.Data, 0)); err != nil {
			return err
		}
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report(cc)); err != nil {
			return err
		}
		return encoder.Close()
	case "bin":
		if _, err := w.Write(cc.Code); err != nil {
			return err
		}
		if _, err := w.Write(cc.Data); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format '%v', expected hex, yaml or bin", format)
	}

	return nil
}

func runEmit(cmd *cobra.Command, args []string) {
	s := compileScenario(args[0])
	defer s.Close()

	var out io.Writer = os.Stdout

	if emitOutput != "" {
		file, err := os.Create(emitOutput)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error creating file:", err)
			os.Exit(1)
		}
		defer file.Close()
		out = file
	}

	if err := writeCode(out, s.code, emitFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(3)
	}
}
