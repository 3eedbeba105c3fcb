package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/booksum/internal/cache"
	"github.com/roasbeef/booksum/internal/summary"
)

// SaveSnapshot replaces the stored cache contents with snap.
func (s *Store) SaveSnapshot(ctx context.Context, snap cache.Snapshot) error {
	err := s.ExecTx(ctx, false, func(tx *sql.Tx) error {
		for _, table := range []string{
			"cached_summaries", "recent_summaries",
			"current_summary",
		} {
			_, err := tx.ExecContext(ctx, "DELETE FROM "+table)
			if err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		for pos, rec := range snap.Entries {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO cached_summaries (
					id, position, title, description,
					custom_instructions, original_text,
					summarized_text, created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, pos, rec.Title,
				optToNull(rec.Description),
				optToNull(rec.CustomInstructions),
				rec.OriginalText, rec.SummarizedText,
				formatTime(rec.CreatedAt),
				formatTime(rec.UpdatedAt),
			)
			if err != nil {
				return fmt.Errorf("insert cached summary %s: %w",
					rec.ID, err)
			}
		}

		for pos, b := range snap.Recent {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO recent_summaries (
					id, position, title, description,
					custom_instructions, created_at,
					updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				b.ID, pos, b.Title,
				optToNull(b.Description),
				optToNull(b.CustomInstructions),
				formatTime(b.CreatedAt),
				formatTime(b.UpdatedAt),
			)
			if err != nil {
				return fmt.Errorf("insert recent summary %s: %w",
					b.ID, err)
			}
		}

		current, ok := optRecord(snap.Current)
		if !ok {
			return nil
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO current_summary (
				slot, id, title, description,
				custom_instructions, original_text,
				summarized_text, created_at, updated_at
			) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)`,
			current.ID, current.Title,
			optToNull(current.Description),
			optToNull(current.CustomInstructions),
			current.OriginalText, current.SummarizedText,
			formatTime(current.CreatedAt),
			formatTime(current.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert current summary: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("save cache snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot reads the stored cache contents. An empty database yields an
// empty snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (cache.Snapshot, error) {
	var snap cache.Snapshot
	err := s.ExecTx(ctx, true, func(tx *sql.Tx) error {
		entries, err := loadRecords(ctx, tx, `
			SELECT id, title, description, custom_instructions,
				original_text, summarized_text, created_at,
				updated_at
			FROM cached_summaries
			ORDER BY position`,
		)
		if err != nil {
			return fmt.Errorf("load cached summaries: %w", err)
		}

		recent, err := loadBases(ctx, tx)
		if err != nil {
			return fmt.Errorf("load recent summaries: %w", err)
		}

		current, err := loadRecords(ctx, tx, `
			SELECT id, title, description, custom_instructions,
				original_text, summarized_text, created_at,
				updated_at
			FROM current_summary
			WHERE slot = 1`,
		)
		if err != nil {
			return fmt.Errorf("load current summary: %w", err)
		}

		snap = cache.Snapshot{
			Entries: entries,
			Recent:  recent,
			Current: fn.None[summary.Record](),
		}
		if len(current) > 0 {
			snap.Current = fn.Some(current[0])
		}

		return nil
	})
	if err != nil {
		return cache.Snapshot{}, err
	}

	return snap, nil
}

func loadRecords(ctx context.Context, tx *sql.Tx,
	query string) ([]summary.Record, error) {

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []summary.Record
	for rows.Next() {
		var (
			rec                summary.Record
			desc, instructions sql.NullString
			created, updated   string
		)
		err := rows.Scan(
			&rec.ID, &rec.Title, &desc, &instructions,
			&rec.OriginalText, &rec.SummarizedText, &created,
			&updated,
		)
		if err != nil {
			return nil, err
		}

		rec.Description = nullToOpt(desc)
		rec.CustomInstructions = nullToOpt(instructions)
		if rec.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if rec.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}

		out = append(out, rec)
	}

	return out, rows.Err()
}

func loadBases(ctx context.Context, tx *sql.Tx) ([]summary.Base, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, title, description, custom_instructions,
			created_at, updated_at
		FROM recent_summaries
		ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []summary.Base
	for rows.Next() {
		var (
			b                  summary.Base
			desc, instructions sql.NullString
			created, updated   string
		)
		err := rows.Scan(
			&b.ID, &b.Title, &desc, &instructions, &created,
			&updated,
		)
		if err != nil {
			return nil, err
		}

		b.Description = nullToOpt(desc)
		b.CustomInstructions = nullToOpt(instructions)
		if b.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if b.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}

		out = append(out, b)
	}

	return out, rows.Err()
}

func optRecord(o fn.Option[summary.Record]) (summary.Record, bool) {
	rec, err := o.UnwrapOrErr(errors.New("none"))
	return rec, err == nil
}

func optToNull(o fn.Option[string]) sql.NullString {
	return sql.NullString{
		String: o.UnwrapOr(""),
		Valid:  o.IsSome(),
	}
}

func nullToOpt(n sql.NullString) fn.Option[string] {
	if !n.Valid {
		return fn.None[string]()
	}

	return fn.Some(n.String)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s,
			err)
	}

	return t, nil
}
