package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"apiextract/internal/config"
	"apiextract/internal/paths"
)

var (
	initForce        bool
	initBasePackages []string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration",
	Long:  "Creates .apiextract/config.toml with the default settings in the project root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration")
	initCmd.Flags().StringSliceVar(&initBasePackages, "base-package", nil, "Package prefix that makes up the API (repeatable)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	target := configFile
	if target == "" {
		target = paths.ConfigPath(root)
	}
	if _, statErr := os.Stat(target); statErr == nil && !initForce {
		fmt.Fprintln(out, "apiextract already initialized.")
		fmt.Fprintf(out, "Configuration at: %s\n", target)
		fmt.Fprintln(out, "\nRun 'apiextract init --force' to overwrite it.")
		return nil
	}

	// Existing files are replaced, never merged.
	cfg := config.DefaultConfig()
	if len(initBasePackages) > 0 {
		cfg.BasePackages = initBasePackages
	}
	if configFile == "" {
		err = cfg.Save(root)
	} else {
		err = cfg.WriteFile(target)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Configuration written to %s\n", target)
	if len(cfg.BasePackages) == 0 {
		fmt.Fprintln(out, "\nSet basePackages before running 'apiextract extract'.")
	}
	return nil
}
