package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"apiextract/internal/config"
	"apiextract/internal/paths"
	"apiextract/internal/slogutil"
	"apiextract/internal/version"
)

var (
	// verbosity is the number of -v flags
	verbosity  int
	quiet      bool
	configFile string
	rootDir    string
)

var rootCmd = &cobra.Command{
	Use:   "apiextract",
	Short: "apiextract - public API stub extraction for Java code bases",
	Long: `apiextract computes the transitive closure of the declarations marked as
public API and writes a body-less stub class file for every type in it. The
stubs compile against the API without exposing the implementation.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("apiextract version {{.Version}}\n")
	pf := rootCmd.PersistentFlags()
	pf.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	pf.BoolVar(&quiet, "quiet", false, "Only log errors")
	pf.StringVar(&configFile, "config", "", "Configuration file (default: .apiextract/config.toml)")
	pf.StringVar(&rootDir, "root", "", "Project root (default: current directory)")
}

// projectRoot returns the absolute project root.
func projectRoot() (string, error) {
	if rootDir != "" {
		return filepath.Abs(rootDir)
	}
	return os.Getwd()
}

// session is what every command that touches the project needs: the root,
// its configuration and the process logger.
type session struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func newSession(cmd *cobra.Command) (*session, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(root, configFile)
	if err != nil {
		return nil, err
	}

	logFile := cfg.Logging.File
	if logFile != "" && !filepath.IsAbs(logFile) {
		logFile = filepath.Join(paths.LogsDir(root), logFile)
	}
	logger, closer, err := slogutil.Setup(slogutil.Options{
		Console:      cmd.ErrOrStderr(),
		ConsoleLevel: slogutil.LevelFromVerbosity(verbosity, quiet),
		File:         logFile,
		FileLevel:    slogutil.LevelFromString(cfg.Logging.Level),
		MaxSizeBytes: cfg.Logging.MaxSizeBytes,
		MaxBackups:   cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Session started", "root", root, "version", version.Info())
	return &session{root: root, cfg: cfg, logger: logger, closer: closer}, nil
}

func (s *session) Close() {
	_ = s.closer.Close()
}
