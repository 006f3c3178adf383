package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/storylet/internal/ir"
)

// CreateCharacter inserts a new character at version 1 and returns it.
// The given qualities become both the current snapshot and the replay
// baseline.
func (s *Store) CreateCharacter(ctx context.Context, name string, qualities ir.PlayerQualities, equipment ir.Equipment) (Character, error) {
	c := Character{
		ID:        s.ids.Generate(),
		Name:      name,
		Qualities: qualities.Clone(),
		Equipment: equipment.Clone(),
		Version:   1,
	}

	initial, err := marshalQualities(c.Qualities)
	if err != nil {
		return Character{}, fmt.Errorf("create character: %w", err)
	}
	equip, err := marshalStrings(c.Equipment)
	if err != nil {
		return Character{}, fmt.Errorf("create character: %w", err)
	}
	digest, err := ir.SnapshotDigest(c.Qualities)
	if err != nil {
		return Character{}, fmt.Errorf("create character: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO characters
		(id, name, initial_qualities, qualities, equipment, snapshot_digest, version, last_seq, engine_version, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, 1, 0, ?, ?)
	`,
		c.ID,
		c.Name,
		initial,
		initial,
		equip,
		digest,
		ir.EngineVersion,
		ir.SchemaVersion,
	)
	if err != nil {
		return Character{}, fmt.Errorf("create character: %w", err)
	}
	return c, nil
}

// SaveCharacter writes c's snapshot if the stored version still equals
// expectedVersion. It returns c with Version advanced by one.
//
// Returns ErrNotFound if the character does not exist and
// ErrVersionConflict if another writer saved first.
func (s *Store) SaveCharacter(ctx context.Context, c Character, expectedVersion int64) (Character, error) {
	return s.Commit(ctx, c, expectedVersion, nil)
}

// Commit atomically saves c (see SaveCharacter) and appends changes to its
// log. LastSeq is raised to the highest seq in changes.
func (s *Store) Commit(ctx context.Context, c Character, expectedVersion int64, changes []ir.Change) (Character, error) {
	quals, err := marshalQualities(c.Qualities)
	if err != nil {
		return Character{}, fmt.Errorf("save character: %w", err)
	}
	equip, err := marshalStrings(c.Equipment)
	if err != nil {
		return Character{}, fmt.Errorf("save character: %w", err)
	}
	digest, err := ir.SnapshotDigest(c.Qualities)
	if err != nil {
		return Character{}, fmt.Errorf("save character: %w", err)
	}
	for _, ch := range changes {
		c.LastSeq = max(c.LastSeq, ch.Seq)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE characters
			SET name = ?, qualities = ?, equipment = ?, snapshot_digest = ?,
			    version = version + 1, last_seq = MAX(last_seq, ?), engine_version = ?
			WHERE id = ? AND version = ?
		`,
			c.Name,
			quals,
			equip,
			digest,
			c.LastSeq,
			ir.EngineVersion,
			c.ID,
			expectedVersion,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return missOrConflict(ctx, tx, c.ID)
		}
		return appendChanges(ctx, tx, c.ID, changes)
	})
	if err != nil {
		return Character{}, fmt.Errorf("save character %s: %w", c.ID, err)
	}

	c.Version = expectedVersion + 1
	return c, nil
}

// AppendChanges appends changes to a character's log.
// Uses ON CONFLICT(character_id, seq) DO NOTHING for idempotency - a change
// already recorded at the same seq is silently ignored.
func (s *Store) AppendChanges(ctx context.Context, characterID string, changes []ir.Change) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return appendChanges(ctx, tx, characterID, changes)
	})
	if err != nil {
		return fmt.Errorf("append changes: %w", err)
	}
	return nil
}

func appendChanges(ctx context.Context, tx *sql.Tx, characterID string, changes []ir.Change) error {
	if len(changes) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO changes
		(character_id, seq, quality_id, op, previous, new, created, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(character_id, seq) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ch := range changes {
		prev, err := marshalState(ch.Previous)
		if err != nil {
			return err
		}
		next, err := marshalState(ch.New)
		if err != nil {
			return err
		}
		meta, err := marshalStrings(ch.Meta)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, characterID, ch.Seq, ch.QualityID, string(ch.Op), prev, next, ch.Created, meta); err != nil {
			return fmt.Errorf("change seq %d: %w", ch.Seq, err)
		}
	}
	return nil
}

func missOrConflict(ctx context.Context, tx *sql.Tx, id string) error {
	var exists int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM characters WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}
