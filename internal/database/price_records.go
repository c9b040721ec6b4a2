package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/mandi-price-service/internal/models"
)

// ErrNoPriceData is returned when a lookup finds no rows
var ErrNoPriceData = errors.New("no price data found")

const priceRecordColumns = `id, date, crop, mandi, modal_price, arrivals, temp, rain, humidity, festival, created_at`

// AppendPriceRecords inserts records, keeping the first row stored for each
// (date, crop, mandi). It returns the number of rows actually inserted.
func (db *DB) AppendPriceRecords(ctx context.Context, records []models.PriceRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_records (date, crop, mandi, modal_price, arrivals, temp, rain, humidity, festival, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (date, crop, mandi) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	var inserted int64
	for _, p := range records {
		res, err := stmt.ExecContext(ctx,
			models.Truncate(p.Date), p.Crop, p.Mandi, p.ModalPrice, p.Arrivals,
			p.Temp, p.Rain, p.Humidity, p.Festival, now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert price record %s: %w", p.Key(), err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

// GetPriceHistory retrieves all records for a crop and mandi ordered by date ascending.
// Both names match exactly.
func (db *DB) GetPriceHistory(ctx context.Context, crop, mandi string) ([]models.PriceRecord, error) {
	query := `
		SELECT ` + priceRecordColumns + `
		FROM price_records
		WHERE crop = $1 AND mandi = $2
		ORDER BY date ASC
	`
	return db.scanPriceRecords(db.conn.QueryContext(ctx, query, crop, mandi))
}

// GetRecentPriceHistory retrieves the most recent limit records for a crop and
// mandi, returned in ascending date order
func (db *DB) GetRecentPriceHistory(ctx context.Context, crop, mandi string, limit int) ([]models.PriceRecord, error) {
	query := `
		SELECT ` + priceRecordColumns + ` FROM (
			SELECT ` + priceRecordColumns + `
			FROM price_records
			WHERE crop = $1 AND mandi = $2
			ORDER BY date DESC
			LIMIT $3
		) recent
		ORDER BY date ASC
	`
	return db.scanPriceRecords(db.conn.QueryContext(ctx, query, crop, mandi, limit))
}

// GetAllPriceRecords retrieves the entire store ordered by crop, mandi and date
func (db *DB) GetAllPriceRecords(ctx context.Context) ([]models.PriceRecord, error) {
	query := `
		SELECT ` + priceRecordColumns + `
		FROM price_records
		ORDER BY crop, mandi, date
	`
	return db.scanPriceRecords(db.conn.QueryContext(ctx, query))
}

// GetLatestPriceRecord retrieves the most recent record for a crop and mandi
func (db *DB) GetLatestPriceRecord(ctx context.Context, crop, mandi string) (*models.PriceRecord, error) {
	query := `
		SELECT ` + priceRecordColumns + `
		FROM price_records
		WHERE crop = $1 AND mandi = $2
		ORDER BY date DESC
		LIMIT 1
	`
	var p models.PriceRecord
	err := db.conn.QueryRowContext(ctx, query, crop, mandi).Scan(
		&p.ID, &p.Date, &p.Crop, &p.Mandi, &p.ModalPrice, &p.Arrivals,
		&p.Temp, &p.Rain, &p.Humidity, &p.Festival, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for %s at %s", ErrNoPriceData, crop, mandi)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price record: %w", err)
	}
	return &p, nil
}

// CountPriceRecords returns the number of stored rows
func (db *DB) CountPriceRecords(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM price_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count price records: %w", err)
	}
	return n, nil
}

func (db *DB) scanPriceRecords(rows *sql.Rows, err error) ([]models.PriceRecord, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query price records: %w", err)
	}
	defer rows.Close()

	var records []models.PriceRecord
	for rows.Next() {
		var p models.PriceRecord
		err := rows.Scan(
			&p.ID, &p.Date, &p.Crop, &p.Mandi, &p.ModalPrice, &p.Arrivals,
			&p.Temp, &p.Rain, &p.Humidity, &p.Festival, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price records: %w", err)
	}
	return records, nil
}
