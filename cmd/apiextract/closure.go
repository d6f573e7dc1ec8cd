package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"apiextract/internal/extract"
	"apiextract/internal/paths"
	"apiextract/internal/seeds"
)

var (
	closureInput  inputFlags
	closureFormat string
)

var closureCmd = &cobra.Command{
	Use:   "closure [paths...]",
	Short: "Show the API closure without writing artifacts",
	Long: `Compute the closure of the marked API and print every included
declaration with its member-inclusion set and the seeds that reach it.`,
	RunE: runClosure,
}

func init() {
	closureInput.register(closureCmd)
	closureCmd.Flags().StringVar(&closureFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(closureCmd)
}

func runClosure(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.cfg.Validate(); err != nil {
		return err
	}
	in, err := loadInput(cmd.Context(), s, closureInput, args)
	if err != nil {
		return err
	}
	manifest, err := seeds.Load(paths.SeedsPath(s.root))
	if err != nil {
		return err
	}
	res, err := extract.Resolve(in, s.cfg, manifest, s.logger)
	if err != nil {
		return err
	}

	out, err := FormatResponse(convertClosure(res), OutputFormat(closureFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
