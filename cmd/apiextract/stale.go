package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"apiextract/internal/errors"
	"apiextract/internal/storage"
)

var staleFormat string

var staleCmd = &cobra.Command{
	Use:   "stale <qualified-name>...",
	Short: "List artifacts that depend on changed seeds",
	Long: `Query the artifact ledger for every recorded artifact whose dependency
set contains one of the given seed names. Those are the artifacts to
regenerate after the seeds change.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStale,
}

func init() {
	staleCmd.Flags().StringVar(&staleFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(staleCmd)
}

func runStale(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	db, err := storage.Open(s.root, s.logger)
	if err != nil {
		return errors.New(errors.LedgerFailed, "cannot open the artifact ledger", err)
	}
	defer db.Close()

	stale, err := storage.NewLedger(db).Stale(args)
	if err != nil {
		return errors.New(errors.LedgerFailed, "cannot query the artifact ledger", err)
	}
	resp := &StaleResponseCLI{Seeds: args, Artifacts: make([]ArtifactCLI, 0, len(stale))}
	for _, a := range stale {
		resp.Artifacts = append(resp.Artifacts, artifactFromRecord(a))
	}

	out, err := FormatResponse(resp, OutputFormat(staleFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
