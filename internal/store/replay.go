package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/storylet/internal/ir"
)

// ReplayResult reports a rebuilt snapshot and how it compares with the
// stored one.
type ReplayResult struct {
	CharacterID string
	Qualities   ir.PlayerQualities
	Changes     int
	LastSeq     int64

	// Digest is the SnapshotDigest of Qualities; StoredDigest is the one
	// saved with the character.
	Digest       string
	StoredDigest string
	Match        bool

	// Breaks lists the seqs whose recorded Previous state did not match
	// the state rebuilt so far.
	Breaks []int64
}

// Replay rebuilds a character's qualities by folding its change log, in
// seq order, over the qualities it was created with.
func (s *Store) Replay(ctx context.Context, characterID string) (ir.PlayerQualities, error) {
	res, err := s.replay(ctx, characterID)
	if err != nil {
		return nil, err
	}
	return res.Qualities, nil
}

// VerifyReplay replays the change log and compares digests with the stored
// snapshot. A mismatch is reported in the result, not as an error.
func (s *Store) VerifyReplay(ctx context.Context, characterID string) (ReplayResult, error) {
	return s.replay(ctx, characterID)
}

func (s *Store) replay(ctx context.Context, characterID string) (ReplayResult, error) {
	var initial, stored string
	err := s.db.QueryRowContext(ctx, `
		SELECT initial_qualities, snapshot_digest FROM characters WHERE id = ?
	`, characterID).Scan(&initial, &stored)
	if errors.Is(err, sql.ErrNoRows) {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", characterID, ErrNotFound)
	}
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", characterID, err)
	}

	qualities, err := unmarshalQualities(initial)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", characterID, err)
	}
	changes, err := s.ReadChanges(ctx, characterID, 0)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", characterID, err)
	}

	res := ReplayResult{CharacterID: characterID, StoredDigest: stored, Changes: len(changes)}
	for _, ch := range changes {
		if qualities[ch.QualityID] != ch.Previous {
			res.Breaks = append(res.Breaks, ch.Seq)
		}
		qualities[ch.QualityID] = ch.New
		res.LastSeq = ch.Seq
	}

	res.Qualities = qualities
	res.Digest, err = ir.SnapshotDigest(qualities)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", characterID, err)
	}
	res.Match = res.Digest == res.StoredDigest && len(res.Breaks) == 0
	return res, nil
}
