package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/storylet/internal/ir"
)

// LoadCharacter returns the stored character. Returns ErrNotFound if no
// character has the id.
func (s *Store) LoadCharacter(ctx context.Context, id string) (Character, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, qualities, equipment, version, last_seq
		FROM characters
		WHERE id = ?
	`, id)

	c, err := scanCharacter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Character{}, fmt.Errorf("load character %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Character{}, fmt.Errorf("load character %s: %w", id, err)
	}
	return c, nil
}

// ListCharacters returns every character ordered by id.
func (s *Store) ListCharacters(ctx context.Context) ([]Character, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, qualities, equipment, version, last_seq
		FROM characters
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query characters: %w", err)
	}
	defer rows.Close()

	characters := []Character{}
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate characters: %w", err)
	}
	return characters, nil
}

// ReadChanges returns a character's changes with seq > afterSeq, ordered
// by seq ASC. Returns an empty slice (not nil) if there are none.
func (s *Store) ReadChanges(ctx context.Context, characterID string, afterSeq int64) ([]ir.Change, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, quality_id, op, previous, new, created, meta
		FROM changes
		WHERE character_id = ? AND seq > ?
		ORDER BY seq ASC, id ASC
	`, characterID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	changes := []ir.Change{}
	for rows.Next() {
		ch, err := scanChange(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}
	return changes, nil
}

// QualityHistory returns every change to one quality, ordered by seq ASC.
func (s *Store) QualityHistory(ctx context.Context, characterID, qualityID string) ([]ir.Change, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, quality_id, op, previous, new, created, meta
		FROM changes
		WHERE character_id = ? AND quality_id = ?
		ORDER BY seq ASC, id ASC
	`, characterID, qualityID)
	if err != nil {
		return nil, fmt.Errorf("query quality history: %w", err)
	}
	defer rows.Close()

	changes := []ir.Change{}
	for rows.Next() {
		ch, err := scanChange(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quality history: %w", err)
	}
	return changes, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row scanner) (Character, error) {
	var (
		c                 Character
		quals, equipJSON string
	)
	if err := row.Scan(&c.ID, &c.Name, &quals, &equipJSON, &c.Version, &c.LastSeq); err != nil {
		return Character{}, err
	}

	q, err := unmarshalQualities(quals)
	if err != nil {
		return Character{}, err
	}
	equip, err := unmarshalStrings(equipJSON)
	if err != nil {
		return Character{}, err
	}
	c.Qualities = q
	c.Equipment = ir.Equipment(equip)
	return c, nil
}

func scanChange(row scanner) (ir.Change, error) {
	var (
		ch                   ir.Change
		op, prev, next, meta string
	)
	if err := row.Scan(&ch.Seq, &ch.QualityID, &op, &prev, &next, &ch.Created, &meta); err != nil {
		return ir.Change{}, fmt.Errorf("scan change: %w", err)
	}
	ch.Op = ir.Op(op)

	var err error
	if ch.Previous, err = unmarshalState(prev); err != nil {
		return ir.Change{}, err
	}
	if ch.New, err = unmarshalState(next); err != nil {
		return ir.Change{}, err
	}
	m, err := unmarshalStrings(meta)
	if err != nil {
		return ir.Change{}, err
	}
	if len(m) > 0 {
		ch.Meta = m
	}
	return ch, nil
}
