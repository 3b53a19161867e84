// Package cli implements the hsound command line: one-shot and looping
// sounds, an interactive music player, and the playback journal report.
package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"hsound.dev/internal/audio"
	"hsound.dev/internal/config"
	"hsound.dev/internal/fs"
	"hsound.dev/internal/journal"
	"hsound.dev/internal/line"
	"hsound.dev/internal/resource"
	"hsound.dev/internal/sound"
)

// Version is the command line version, kept in step with the library
const Version = sound.Version

// CLI represents the command-line interface
type CLI struct {
	rootCmd          *cobra.Command
	configManager    *config.ConfigManager
	fs               afero.Fs
	terminalDetector TerminalDetector

	// newFactory builds the line factory; tests swap in a null factory
	newFactory func(cfg *config.Config) (line.Factory, error)

	cfg        *config.Config
	logCloser  io.Closer
	configFile string
	backend    string
	logLevel   string
}

// NewCLI creates a new CLI instance on the OS filesystem
func NewCLI() *CLI {
	return newCLI(fs.NewDefaultFactory().Production())
}

func newCLI(filesystem afero.Fs) *CLI {
	c := &CLI{
		configManager:    config.NewConfigManagerWithFilesystem(filesystem),
		fs:               filesystem,
		terminalDetector: &DefaultTerminalDetector{},
		newFactory: func(cfg *config.Config) (line.Factory, error) {
			return line.NewFactory(cfg.LineOptions())
		},
	}

	rootCmd := &cobra.Command{
		Use:           "hsound",
		Short:         "Play sounds and music from the command line",
		Long:          "hsound plays one-shot and looping sounds, controls a music track interactively, and reports the playback journal.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.prepare(cmd)
		},
	}
	rootCmd.SetVersionTemplate("hsound version {{.Version}} (" + sound.LibraryID + ")\n")

	rootCmd.PersistentFlags().StringVar(&c.configFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&c.backend, "backend", "", "Audio backend (auto, malgo, oto, null)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		c.newPlayCommand(),
		c.newMusicCommand(),
		c.newFormatsCommand(),
		c.newHistoryCommand(),
	)

	c.rootCmd = rootCmd
	return c
}

// Run executes the CLI with the given arguments and I/O streams
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c.rootCmd.SetArgs(args[1:])
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)

	defer func() {
		if c.logCloser != nil {
			if err := c.logCloser.Close(); err != nil {
				fmt.Fprintf(stderr, "Error closing log file: %v\n", err)
			}
		}
	}()

	if err := c.rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		slog.Debug("command failed", "error", err)
		return 1
	}
	return 0
}

// prepare loads configuration, applies flag overrides and sets up logging
func (c *CLI) prepare(cmd *cobra.Command) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	if c.backend != "" {
		cfg.Backend = c.backend
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if err := c.configManager.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.cfg = cfg
	c.setupLogging(cmd.ErrOrStderr())
	return nil
}

func (c *CLI) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if c.configFile != "" {
		cfg, err = c.configManager.LoadFromFile(c.configFile)
		if err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		cfg, err = c.configManager.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}
	return c.configManager.ApplyEnvironmentOverrides(cfg), nil
}

// setupLogging sends records at the configured level to stderr and, when
// file logging is enabled, every debug record to a rotated log file
func (c *CLI) setupLogging(stderr io.Writer) {
	level, err := config.ParseLogLevel(c.cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}),
	}

	if fl := c.cfg.FileLogging; fl != nil && fl.Enabled {
		path := c.configManager.ResolveLogFilePath(fl.Filename)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			slog.Error("failed to create log directory", "path", path, "error", err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   path,
				MaxSize:    fl.MaxSizeMB,
				MaxBackups: fl.MaxBackups,
				MaxAge:     fl.MaxAgeDays,
				Compress:   fl.Compress,
			}
			c.logCloser = fileWriter
			handlers = append(handlers, slog.NewTextHandler(fileWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
	}

	slog.SetDefault(slog.New(NewMultiLevelHandler(handlers...)))
	slog.Debug("logging setup completed",
		"level", level.String(),
		"handlers", len(handlers))
}

// newResolver searches the configured manifests first, then the resource
// roots, then the working directory
func (c *CLI) newResolver(filesystem afero.Fs) *resource.Resolver {
	var mappers []resource.Mapper
	for _, path := range c.cfg.Manifests {
		manifest, err := resource.LoadManifest(filesystem, path)
		if err != nil {
			slog.Warn("skipping manifest", "path", path, "error", err)
			continue
		}
		mappers = append(mappers, manifest)
	}
	mappers = append(mappers,
		resource.NewDirectoryMapper("resource-roots", c.configManager.ResolveResourceRoots(c.cfg)),
		resource.NewDirectoryMapper("working-directory", []string{"."}),
	)
	return resource.NewResolver(filesystem, mappers...)
}

// session is everything a playback command needs. close releases it all.
type session struct {
	library *sound.Library
	journal *journal.Journal
	db      *sql.DB
}

func (s *session) close() error {
	var errs []error
	if err := s.library.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openSession builds the line factory, the resource loader and, when
// enabled, the journal listener
func (c *CLI) openSession() (*session, error) {
	factory, err := c.newFactory(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("error initializing audio backend: %w", err)
	}

	filesystem := fs.NewDefaultFactory().ReadOnly(c.fs)
	source := audio.NewLoader(filesystem, c.newResolver(filesystem), nil)

	opts := []sound.Option{
		sound.WithFactory(factory),
		sound.WithSource(source),
		sound.WithLogger(slog.Default()),
	}

	s := &session{}
	if c.cfg.JournalEnabled() {
		s.journal, s.db = c.openJournal()
		if s.journal != nil {
			opts = append(opts, sound.WithListener(s.journal))
		}
	}

	s.library = sound.NewLibrary(opts...)
	return s, nil
}

// openJournal returns nil when the database cannot be opened; playback
// continues without a journal
func (c *CLI) openJournal() (*journal.Journal, *sql.DB) {
	path := c.configManager.ResolveJournalPath(c.cfg)
	db, err := journal.Open(path)
	if err != nil {
		slog.Error("failed to open journal, continuing without it", "path", path, "error", err)
		return nil, nil
	}
	slog.Debug("journal opened", "path", path)
	return journal.New(db, journal.DefaultQueueSize), db
}
