package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"apiextract/internal/extract"
)

var (
	extractInput    inputFlags
	extractOut      string
	extractJar      string
	extractWorkers  int
	extractNoLedger bool
	extractFormat   string
)

var extractCmd = &cobra.Command{
	Use:   "extract [paths...]",
	Short: "Generate API stub class files",
	Long: `Parse the Java sources below paths (default: the project root) or a
declaration snapshot, compute the closure of the marked API and write one
stub class file per type to the configured directory and/or jar.`,
	RunE: runExtract,
}

func init() {
	extractInput.register(extractCmd)
	extractCmd.Flags().StringVar(&extractOut, "out", "", "Output directory (overrides output.dir)")
	extractCmd.Flags().StringVar(&extractJar, "jar", "", "Output jar (overrides output.jar)")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 0, "Parallel emitters, 0 for one per CPU (overrides emit.workers)")
	extractCmd.Flags().BoolVar(&extractNoLedger, "no-ledger", false, "Do not record artifacts in the ledger")
	extractCmd.Flags().StringVar(&extractFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	flags := cmd.Flags()
	if flags.Changed("out") {
		s.cfg.Output.Dir = extractOut
	}
	if flags.Changed("jar") {
		s.cfg.Output.Jar = extractJar
	}
	if flags.Changed("workers") {
		s.cfg.Emit.Workers = extractWorkers
	}
	if extractNoLedger {
		s.cfg.Ledger.Enabled = false
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	in, err := loadInput(ctx, s, extractInput, args)
	if err != nil {
		return err
	}
	report, err := extract.Run(ctx, in, extract.Options{
		Root:   s.root,
		Config: s.cfg,
		Logger: s.logger,
	})
	if err != nil {
		return err
	}

	resp := &ExtractResponseCLI{
		RunID:        report.RunID,
		Seeds:        len(report.Closure.Seeds()),
		Declarations: report.Closure.Len(),
		Artifacts:    make([]ArtifactCLI, 0, len(report.Artifacts)),
		Warnings:     report.Closure.Warnings,
		DocWarnings:  report.DocWarnings,
		DurationMs:   report.Duration.Milliseconds(),
	}
	for _, r := range report.Artifacts {
		resp.Artifacts = append(resp.Artifacts, artifactFromResource(r))
	}
	out, err := FormatResponse(resp, OutputFormat(extractFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
