package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

type rootOptions struct {
	envFiles   []string
	ownersFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "circlepay",
		Short:         "Payment circle matching and withdrawal ledger",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&opts.ownersFile, "owners", "", "YAML file with owner payout accounts (overrides OWNER_ACCOUNTS_FILE)")

	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(sweepCmd(opts))
	rootCmd.AddCommand(ensureSheetsCmd(opts))
	rootCmd.AddCommand(inferSchemaCmd(opts))
	rootCmd.AddCommand(tokenCmd(opts))

	return rootCmd
}
