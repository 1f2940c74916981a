package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Args:  cobra.NoArgs,
	Short: "Creates a fabric_interchange.json configuration file",
	Long: `Creates a fabric_interchange.json configuration file with the default
device naming in the working directory.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	bindFlags(initCmd)
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := config.FileName

	if _, err := os.Stat(configPath); err == nil && !opts.GetBool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("creating config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", configPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - Output path and compression")
	fmt.Fprintln(out, "  - Reserved wire, cell and bel names of the device family")
	fmt.Fprintln(out, "  - Contract validation and the integrity audit")
	return nil
}
