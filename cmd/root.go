package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	environment string
	verbose     bool

	rootCmd = &cobra.Command{
		Use:           "group-load",
		Short:         "Publish group enrollment records to Kafka",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&environment, "environment", "e", "", "target environment (dev|qa); overrides config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(sendSampleCmd)
	rootCmd.AddCommand(sendFileCmd)
	rootCmd.AddCommand(configInfoCmd)
	rootCmd.AddCommand(generateDataCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(migrateCmd)
}
