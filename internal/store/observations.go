package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/cropflow/internal/crop"
)

// InsertObservations upserts observations keyed on (region, district, crop
// year, season, crop). A re-imported record replaces the previous values.
// Records without a parseable start year are skipped. It returns the number
// of rows written.
func (db *DB) InsertObservations(ctx context.Context, obs []crop.Observation) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations
		(state_name, district_name, crop_year, year_start, season, crop, area, production, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (state_name, district_name, crop_year, season, crop) DO UPDATE SET
			area = excluded.area,
			production = excluded.production,
			year_start = excluded.year_start,
			imported_at = excluded.imported_at`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeFormat)
	n := 0
	for _, o := range obs {
		o = crop.Normalize(o)
		start := o.YearStart()
		if start == 0 || o.Region == "" || o.Crop == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			o.Region, o.District, o.CropYear, start, o.Season, o.Crop, o.Area, o.Production, now,
		); err != nil {
			return 0, fmt.Errorf("upserting %s/%s/%s: %w", o.Region, o.Crop, o.CropYear, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// QueryObservations returns the observations matching q, ordered by region,
// crop, season and year.
func (db *DB) QueryObservations(ctx context.Context, q crop.Query) ([]crop.Observation, error) {
	var (
		where []string
		args  []any
	)
	if q.Region != "" {
		where = append(where, "state_name = ? COLLATE NOCASE")
		args = append(args, strings.TrimSpace(q.Region))
	}
	if q.Crop != "" {
		where = append(where, "crop = ? COLLATE NOCASE")
		args = append(args, strings.TrimSpace(q.Crop))
	}
	if q.CropYear != "" {
		where = append(where, "year_start = ?")
		args = append(args, crop.YearStart(q.CropYear))
	}

	query := `SELECT state_name, district_name, crop_year, season, crop, area, production FROM observations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY state_name, crop, season, year_start, district_name"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []crop.Observation
	for rows.Next() {
		var o crop.Observation
		if err := rows.Scan(&o.Region, &o.District, &o.CropYear, &o.Season, &o.Crop, &o.Area, &o.Production); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Coverage returns per-region observation counts and year ranges.
func (db *DB) Coverage(ctx context.Context) ([]Coverage, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT state_name, COUNT(*), COUNT(DISTINCT crop), MIN(year_start), MAX(year_start)
		FROM observations GROUP BY state_name ORDER BY state_name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Coverage
	for rows.Next() {
		var c Coverage
		if err := rows.Scan(&c.Region, &c.Records, &c.Crops, &c.FirstYear, &c.LastYear); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
