package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/builder"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/config"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/fabric"
)

var generateCmd = &cobra.Command{
	Use:   "generate <model>",
	Args:  cobra.ExactArgs(1),
	Short: "Builds and writes the device document for a fabric model",
	Long: `Builds the device document for a fabric model (JSON or YAML) and writes it.

The configuration is taken from --config, otherwise from fabric_interchange.json in
the working directory or next to the model, otherwise from
~/.config/fabric_interchange/config.json. Nothing is written if any check fails.`,
	RunE: runGenerate,
}

func init() {
	flags := generateCmd.Flags()
	flags.StringP("output", "o", "", "Output path (overrides the configured path)")
	flags.StringP("config", "c", "", "Configuration file")
	flags.Bool("audit", false, "Run the integrity policy on the finished document")
	flags.Bool("no-compress", false, "Write the document without gzip")
	bindFlags(generateCmd)
	rootCmd.AddCommand(generateCmd)
}

func loadConfig(modelPath string) (*config.Config, error) {
	if path := opts.GetString("config"); path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.Load(modelPath)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	modelPath := args[0]

	cfg, err := loadConfig(modelPath)
	if err != nil {
		return err
	}
	if out := opts.GetString("output"); out != "" {
		cfg.Output.Path = out
	}
	if opts.GetBool("audit") {
		cfg.Validation.Audit = true
	}
	if opts.GetBool("no-compress") {
		compress := false
		cfg.Output.Compress = &compress
	}
	outPath, err := cfg.OutputPath()
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	dev, err := fabric.Load(modelPath)
	if err != nil {
		return err
	}

	// the spinner and debug output would fight over stderr
	stopSpinner := func() {}
	if !opts.GetBool("verbose") {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = " generating " + dev.Name
		s.Start()
		stopSpinner = s.Stop
		if log.GetLevel() > logrus.WarnLevel {
			log.SetLevel(logrus.WarnLevel)
		}
	}

	start := time.Now()
	doc, err := builder.New(cfg, log).Generate(cmd.Context(), dev, outPath)
	stopSpinner()
	if err != nil {
		return err
	}

	st := doc.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tile types, %d site types, %d tiles, %d wires, %d nodes, %d strings (%s)\n",
		outPath, st.TileTypes, st.SiteTypes, st.Tiles, st.Wires, st.Nodes, st.Strings,
		time.Since(start).Round(time.Millisecond))
	return nil
}
