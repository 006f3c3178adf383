package cli

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/storylet/internal/engine"
	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/store"
	"github.com/roach88/storylet/internal/worldstate"
)

// session is one character loaded with its content and world, ready for
// evaluation. Commands that mutate call commit.
type session struct {
	content   *ir.Content
	store     *store.Store
	character store.Character
	engine    *engine.Engine
	log       *slog.Logger
}

// openSession loads content, the character and the world overlay, and
// builds an engine whose clock continues from the character's last seq.
func openSession(ctx context.Context, opts *RootOptions, cmd *cobra.Command, characterID string) (*session, error) {
	log := opts.Logger(cmd.ErrOrStderr())

	content, err := loadContentStrict(opts.Config.Content)
	if err != nil {
		return nil, err
	}
	world, err := loadWorld(ctx, opts.Config)
	if err != nil {
		return nil, err
	}

	st, err := openStore(opts.Config.Database)
	if err != nil {
		return nil, err
	}
	char, err := st.LoadCharacter(ctx, characterID)
	if err != nil {
		st.Close()
		if errors.Is(err, store.ErrNotFound) {
			return nil, WrapExitError(ExitCommandError, "character not found", err)
		}
		return nil, WrapExitError(ExitCommandError, "failed to load character", err)
	}

	eng := engine.New(engine.Context{
		Definitions: content.Qualities,
		Qualities:   char.Qualities,
		Equipment:   char.Equipment,
		World:       world,
	},
		engine.WithLogger(log),
		engine.WithMacros(engine.Builtins()),
		engine.WithClock(engine.NewClockAt(char.LastSeq)),
	)

	return &session{content: content, store: st, character: char, engine: eng, log: log}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Warn("failed to close store", "error", err)
	}
}

// commit saves the engine's state and change log against the version the
// character was loaded at.
func (s *session) commit(ctx context.Context) (store.Character, error) {
	c := s.character
	c.Qualities = s.engine.Qualities()
	c.Equipment = s.engine.Equipment()

	saved, err := s.store.Commit(ctx, c, s.character.Version, s.engine.Changes())
	if errors.Is(err, store.ErrVersionConflict) {
		return store.Character{}, WrapExitError(ExitFailure, "character was modified concurrently; retry", err)
	}
	if err != nil {
		return store.Character{}, WrapExitError(ExitCommandError, "failed to save character", err)
	}
	s.log.Debug("character saved", "id", saved.ID, "version", saved.Version, "last_seq", saved.LastSeq)
	return saved, nil
}

func openStore(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// loadContentStrict fails on any load or compile error.
func loadContentStrict(dir string) (*ir.Content, error) {
	content, errs := LoadContent(dir)
	if len(errs) == 0 {
		return content, nil
	}
	return nil, NewExitError(ExitCommandError, "failed to load content: "+strings.Join(errorStrings(errs), "; "))
}

// loadWorld reads the world overlay from Redis. Without a Redis address
// the world is empty.
func loadWorld(ctx context.Context, cfg Config) (ir.WorldState, error) {
	if cfg.RedisAddr == "" {
		return ir.WorldState{}, nil
	}
	ws, closeFn, err := openWorldStore(cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	snap, err := ws.Get(ctx, cfg.World)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read world", err)
	}
	return snap.World, nil
}

// openWorldStore connects to Redis. The returned func closes the client.
func openWorldStore(cfg Config) (*worldstate.Store, func(), error) {
	client, err := worldstate.NewClient(cfg.RedisAddr, nil)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to create redis client", err)
	}
	closeFn := func() { _ = client.Close() }
	ws, err := worldstate.NewRedis(&worldstate.Config{Client: client})
	if err != nil {
		closeFn()
		return nil, nil, WrapExitError(ExitCommandError, "failed to create world store", err)
	}
	return ws, closeFn, nil
}

// formatChanges renders changes one per line.
func formatChanges(changes []ir.Change) []string {
	out := make([]string, len(changes))
	for i, ch := range changes {
		out[i] = ch.String()
	}
	return out
}

func errorStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
