package cmd

import (
	"fmt"
	"os"

	"github.com/Manu343726/a64asm/cmd/asm"
	"github.com/Manu343726/a64asm/cmd/settings"
	"github.com/Manu343726/a64asm/cmd/tools"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "a64asm",
	Short: "AArch64 test assembler",
	Long: `a64asm is a small AArch64 assembler for writing compiled-code test fixtures: functions with
a VM style frame, calls, constant pointers and patch sites, handed to a linker that resolves them.

This CLI builds the catalog of synthetic functions, lists and dumps their machine code, runs
them in a simulator and cross-checks the encoder against the Go toolchain's arm64 backend.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(asm.AsmCmd, tools.ToolsCmd)
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.a64asm.yaml)")
	RootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this file")
	RootCmd.PersistentFlags().String("color", "auto", "Colored output (auto, always, never)")

	cobra.CheckErr(viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("log.file", RootCmd.PersistentFlags().Lookup("log-file")))
	cobra.CheckErr(viper.BindPFlag("color", RootCmd.PersistentFlags().Lookup("color")))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".a64asm" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".a64asm")
	}

	settings.SetDefaults(viper.GetViper())

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
