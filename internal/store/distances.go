package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/cropflow/internal/distance"
)

// UpsertDistances stores distance facts. Pairs are stored canonically so a
// fact and its reverse overwrite each other.
func (db *DB) UpsertDistances(ctx context.Context, facts []distance.Fact, source string) (int, error) {
	if source == "" {
		source = "import"
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(timeFormat)
	n := 0
	for _, f := range facts {
		if f.From == f.To || f.Km < 0 {
			continue
		}
		p := distance.NewPair(f.From, f.To)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO interstate_distances (state_a, state_b, distance_km, source, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (state_a, state_b) DO UPDATE SET
				distance_km = excluded.distance_km,
				source = excluded.source,
				updated_at = excluded.updated_at`,
			p.A, p.B, f.Km, source, now,
		); err != nil {
			return 0, fmt.Errorf("upserting distance %s: %w", p, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Distance implements distance.Provider over the stored table.
func (db *DB) Distance(ctx context.Context, a, b string) (float64, error) {
	if a == b {
		return 0, nil
	}
	p := distance.NewPair(a, b)
	var km float64
	err := db.conn.QueryRowContext(ctx,
		"SELECT distance_km FROM interstate_distances WHERE state_a = ? AND state_b = ?",
		p.A, p.B,
	).Scan(&km)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, distance.ErrUnknownPair
	}
	if err != nil {
		return 0, fmt.Errorf("querying distance %s: %w", p, err)
	}
	return km, nil
}

// ListDistances returns stored distances, optionally limited to pairs that
// include region.
func (db *DB) ListDistances(ctx context.Context, region string) ([]DistanceRow, error) {
	query := "SELECT state_a, state_b, distance_km, source, updated_at FROM interstate_distances"
	var args []any
	if region != "" {
		query += " WHERE state_a = ? OR state_b = ?"
		args = append(args, region, region)
	}
	query += " ORDER BY state_a, state_b"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []DistanceRow
	for rows.Next() {
		var d DistanceRow
		if err := rows.Scan(&d.RegionA, &d.RegionB, &d.DistanceKm, &d.Source, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
