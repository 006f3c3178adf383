package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/worldstate"
)

// WorldResult holds a world overlay snapshot.
type WorldResult struct {
	World   string        `json:"world"`
	Version int64         `json:"version"`
	Values  ir.WorldState `json:"values"`
}

// WorldSetOptions holds flags for world set.
type WorldSetOptions struct {
	Unset []string
}

// NewWorldCommand creates the world command and its subcommands.
func NewWorldCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "world",
		Short: "Inspect or edit the shared world overlay",
		Long: `The world overlay holds string values shared by every character and
addressed in content with #id. It lives in Redis under the configured
world name; without --redis (or $STORYLET_REDIS_ADDR) these commands fail.`,
	}
	cmd.AddCommand(newWorldGetCommand(rootOpts))
	cmd.AddCommand(newWorldSetCommand(rootOpts))
	return cmd
}

func newWorldGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the world overlay",
		Long: `Print every value of the world overlay and its version.

Examples:
  storylet world get --redis localhost:6379
  storylet world get --world winter --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorldGet(rootOpts, cmd)
		},
	}
}

func newWorldSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorldSetOptions{}
	cmd := &cobra.Command{
		Use:   "set [key=value]...",
		Short: "Set or remove world values",
		Long: `Set world values atomically. The update is retried when another writer
changes the world concurrently.

Exit codes:
  0 - Updated
  1 - Gave up after repeated concurrent writes
  2 - Command error (no Redis configured, malformed pair)

Examples:
  storylet world set weather=rain season=winter
  storylet world set --unset weather`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorldSet(rootOpts, opts, args, cmd)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Unset, "unset", nil, "remove a world value (repeatable)")
	return cmd
}

func requireRedis(cfg Config) error {
	if cfg.RedisAddr == "" {
		return NewExitError(ExitCommandError, "no Redis address configured (use --redis or STORYLET_REDIS_ADDR)")
	}
	return nil
}

func runWorldGet(opts *RootOptions, cmd *cobra.Command) error {
	if err := requireRedis(opts.Config); err != nil {
		return err
	}
	ws, closeFn, err := openWorldStore(opts.Config)
	if err != nil {
		return err
	}
	defer closeFn()

	snap, err := ws.Get(context.Background(), opts.Config.World)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read world", err)
	}

	result := WorldResult{World: opts.Config.World, Version: snap.Version, Values: snap.World}
	return opts.formatter(cmd).Success(result, func(w io.Writer) {
		writeWorld(w, result)
	})
}

func runWorldSet(opts *RootOptions, setOpts *WorldSetOptions, pairs []string, cmd *cobra.Command) error {
	if err := requireRedis(opts.Config); err != nil {
		return err
	}
	if len(pairs) == 0 && len(setOpts.Unset) == 0 {
		return NewExitError(ExitCommandError, "nothing to set: pass key=value pairs or --unset")
	}

	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid world value %q: want key=value", p))
		}
		values[key] = value
	}

	ws, closeFn, err := openWorldStore(opts.Config)
	if err != nil {
		return err
	}
	defer closeFn()

	snap, err := ws.Update(context.Background(), opts.Config.World, func(world ir.WorldState) error {
		for k, v := range values {
			world[k] = v
		}
		for _, k := range setOpts.Unset {
			delete(world, k)
		}
		return nil
	})
	if errors.Is(err, worldstate.ErrVersionConflict) {
		return WrapExitError(ExitFailure, "world kept changing; gave up", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to update world", err)
	}

	result := WorldResult{World: opts.Config.World, Version: snap.Version, Values: snap.World}
	return opts.formatter(cmd).Success(result, func(w io.Writer) {
		writeWorld(w, result)
	})
}

func writeWorld(w io.Writer, result WorldResult) {
	fmt.Fprintf(w, "world %s (version %d)\n", result.World, result.Version)
	keys := make([]string, 0, len(result.Values))
	for k := range result.Values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  #%s = %q\n", k, result.Values[k])
	}
}
