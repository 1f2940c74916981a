package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/config"
)

// envPrefix prefixes every flag override read from the environment,
// e.g. FABRIC_INTERCHANGE_NO_COMPRESS=true
const envPrefix = "FABRIC_INTERCHANGE"

var opts = viper.New()

var rootCmd = &cobra.Command{
	Use:   "fabric-interchange",
	Short: "Generates device interchange documents from FPGA fabric models",
	Long: `fabric-interchange consolidates an FPGA fabric model into a device document:
tile and site types stored once, a flattened wire/node graph, package pins resolved
to sites, and every name interned in a single string table.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug output")
	_ = opts.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	opts.SetEnvPrefix(envPrefix)
	opts.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	opts.AutomaticEnv()
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger returns a stderr logger at the configured level; --verbose wins
func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	level := logrus.InfoLevel
	if cfg != nil && cfg.LogLevel != "" {
		if parsed, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			level = parsed
		} else {
			log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		}
	}
	if opts.GetBool("verbose") {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}

// bindFlags makes every local flag of cmd readable through opts
func bindFlags(cmd *cobra.Command) {
	if err := opts.BindPFlags(cmd.Flags()); err != nil {
		panic(err)
	}
}
