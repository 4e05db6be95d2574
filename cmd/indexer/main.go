package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected at build time
	Version = "dev"
	// ProgramName is injected at build time
	ProgramName = "indexer"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, ProgramName, args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exit(1)
	}
}

// Execute builds the command tree and runs it with args.
func Execute(version, programName string, args []string) error {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Document ingestion indexer",
		Long:          "Routes document fields into the document store, the word index and the ranked map.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(`{{.Version}}
`)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config file")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "consume",
			Short: "Index documents from the ingest topic until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runConsume(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "ingest FILE...",
			Short: "Index JSON or JSON-lines documents from files",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, files []string) error {
				return runIngest(cmd.Context(), configPath, files, cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "produce FILE...",
			Short: "Publish JSON or JSON-lines documents to the ingest topic",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, files []string) error {
				return runProduce(cmd.Context(), configPath, files, cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "search TERM",
			Short: "Print the postings of a term across every shard",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSearch(cmd.Context(), configPath, args[0], cmd.OutOrStdout())
			},
		},
	)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}
