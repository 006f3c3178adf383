package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Flag overrides for Config; empty means "use the environment".
	Database  string
	Content   string
	RedisAddr string
	World     string

	// Config is resolved before any subcommand runs.
	Config Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the storylet CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storylet",
		Short: "storylet - quality-based narrative engine",
		Long:  "Compile storylet content, evaluate its rule language against characters, and persist the results.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolve()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $STORYLET_DB)")
	cmd.PersistentFlags().StringVar(&opts.Content, "content", "", "content directory (default $STORYLET_CONTENT)")
	cmd.PersistentFlags().StringVar(&opts.RedisAddr, "redis", "", "Redis address for the world overlay (default $STORYLET_REDIS_ADDR)")
	cmd.PersistentFlags().StringVar(&opts.World, "world", "", "world name (default $STORYLET_WORLD)")

	// Add subcommands
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewNewCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewEquipCommand(opts))
	cmd.AddCommand(NewUnequipCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewWorldCommand(opts))

	return cmd
}

// resolve loads Config from the environment and applies flag overrides.
func (o *RootOptions) resolve() error {
	cfg, err := LoadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.Content != "" {
		cfg.Content = o.Content
	}
	if o.RedisAddr != "" {
		cfg.RedisAddr = o.RedisAddr
	}
	if o.World != "" {
		cfg.World = o.World
	}
	o.Config = cfg
	return nil
}

// Logger returns a text logger on w at the configured level, or debug
// when --verbose is set.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level, err := ParseLogLevel(o.Config.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout(), Verbose: o.Verbose}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
