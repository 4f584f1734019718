package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ReplaceStrategies deletes the strategies stored for (region, cropYear) and
// inserts rows in their place, atomically. Regions match case-insensitively.
func (db *DB) ReplaceStrategies(ctx context.Context, region, cropYear string, rows []StrategyRow) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM crop_strategies WHERE state_name = ? COLLATE NOCASE AND crop_year = ?",
		region, cropYear,
	); err != nil {
		return fmt.Errorf("clearing strategies: %w", err)
	}

	now := time.Now().UTC().Format(timeFormat)
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO crop_strategies
			(state_name, crop_year, crop, season, recommended_area, predicted_yield,
			 predicted_production, priority_score, strategy_notes, historical_trend,
			 is_prediction, ai_powered, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			region, cropYear, r.Crop, r.Season, r.RecommendedArea, r.PredictedYield,
			r.PredictedProduction, r.PriorityScore, r.Notes, r.Trend,
			r.Predicted, r.Advised, now,
		); err != nil {
			return fmt.Errorf("inserting strategy %s: %w", r.Crop, err)
		}
	}
	return tx.Commit()
}

// ListStrategies returns stored strategies for a region, newest crop year
// first and by priority within a year. An empty cropYear lists every year.
func (db *DB) ListStrategies(ctx context.Context, region, cropYear string) ([]StrategyRow, error) {
	query := `SELECT id, state_name, crop_year, crop, season, recommended_area, predicted_yield,
		predicted_production, priority_score, strategy_notes, historical_trend,
		is_prediction, ai_powered, created_at
		FROM crop_strategies WHERE state_name = ? COLLATE NOCASE`
	args := []any{region}
	if cropYear != "" {
		query += " AND crop_year = ?"
		args = append(args, cropYear)
	}
	query += " ORDER BY crop_year DESC, priority_score DESC, id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []StrategyRow
	for rows.Next() {
		var s StrategyRow
		if err := rows.Scan(&s.ID, &s.Region, &s.CropYear, &s.Crop, &s.Season,
			&s.RecommendedArea, &s.PredictedYield, &s.PredictedProduction,
			&s.PriorityScore, &s.Notes, &s.Trend, &s.Predicted, &s.Advised, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReplaceTransactions deletes the transactions stored for cropYear (and crop,
// when non-empty) and inserts rows in their place, atomically.
func (db *DB) ReplaceTransactions(ctx context.Context, cropYear, cropName string, rows []TransactionRow) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	del := "DELETE FROM trade_transactions WHERE crop_year = ?"
	args := []any{cropYear}
	if cropName != "" {
		del += " AND crop = ? COLLATE NOCASE"
		args = append(args, cropName)
	}
	if _, err := tx.ExecContext(ctx, del, args...); err != nil {
		return fmt.Errorf("clearing transactions: %w", err)
	}

	now := time.Now().UTC().Format(timeFormat)
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trade_transactions
			(crop_year, crop, surplus_state, deficit_state, recommended_quantity,
			 estimated_cost, estimated_co2, distance_km, distance_known, priority_score, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cropYear, r.Crop, r.SurplusRegion, r.DeficitRegion, r.Quantity,
			nullable(r.Cost), nullable(r.CO2), r.DistanceKm, r.DistanceKnown, r.PriorityScore, now,
		); err != nil {
			return fmt.Errorf("inserting transaction %s %s->%s: %w", r.Crop, r.SurplusRegion, r.DeficitRegion, err)
		}
	}
	return tx.Commit()
}

// ListTransactions returns stored transactions for a crop year by priority.
// An empty cropName lists every crop.
func (db *DB) ListTransactions(ctx context.Context, cropYear, cropName string) ([]TransactionRow, error) {
	query := `SELECT id, crop_year, crop, surplus_state, deficit_state, recommended_quantity,
		estimated_cost, estimated_co2, distance_km, distance_known, priority_score, created_at
		FROM trade_transactions WHERE crop_year = ?`
	args := []any{cropYear}
	if cropName != "" {
		query += " AND crop = ? COLLATE NOCASE"
		args = append(args, cropName)
	}
	query += " ORDER BY priority_score DESC, id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []TransactionRow
	for rows.Next() {
		var t TransactionRow
		var cost, co2 sql.NullFloat64
		if err := rows.Scan(&t.ID, &t.CropYear, &t.Crop, &t.SurplusRegion, &t.DeficitRegion,
			&t.Quantity, &cost, &co2, &t.DistanceKm, &t.DistanceKnown, &t.PriorityScore, &t.CreatedAt); err != nil {
			return nil, err
		}
		if cost.Valid {
			t.Cost = &cost.Float64
		}
		if co2.Valid {
			t.CO2 = &co2.Float64
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
