package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/daybook/internal/apperr"
)

// DayRow is one row of the days table.
type DayRow struct {
	Date       string    `json:"date"`
	Checksum   string    `json:"checksum"`
	ImageCount int       `json:"image_count"`
	Bytes      int64     `json:"bytes"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UpsertDay inserts or replaces a day.
func (db *DB) UpsertDay(r DayRow) error {
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO days (date, checksum, image_count, bytes, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			checksum    = excluded.checksum,
			image_count = excluded.image_count,
			bytes       = excluded.bytes,
			updated_at  = excluded.updated_at
	`, r.Date, r.Checksum, r.ImageCount, r.Bytes, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert day: %w", err)
	}
	return nil
}

// DeleteDay removes a day and reports whether a row existed.
func (db *DB) DeleteDay(date string) (bool, error) {
	res, err := db.conn.Exec(`DELETE FROM days WHERE date = ?`, date)
	if err != nil {
		return false, fmt.Errorf("index: delete day: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("index: delete day: %w", err)
	}
	return n > 0, nil
}

// DeleteAll empties the catalog.
func (db *DB) DeleteAll() error {
	if _, err := db.conn.Exec(`DELETE FROM days`); err != nil {
		return fmt.Errorf("index: delete all: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum for a day, or empty string if not found.
func (db *DB) GetChecksum(date string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM days WHERE date = ?`, date).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetDay returns one day or apperr.ErrNotFound.
func (db *DB) GetDay(date string) (*DayRow, error) {
	var r DayRow
	err := db.conn.QueryRow(
		`SELECT date, checksum, image_count, bytes, updated_at FROM days WHERE date = ?`, date,
	).Scan(&r.Date, &r.Checksum, &r.ImageCount, &r.Bytes, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: day %s: %w", date, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get day: %w", err)
	}
	return &r, nil
}

// ListDays returns days in [from, to], ascending. Empty bounds are open.
func (db *DB) ListDays(from, to string) ([]DayRow, error) {
	query := `SELECT date, checksum, image_count, bytes, updated_at FROM days WHERE 1=1`
	var args []any
	if from != "" {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY date ASC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list days: %w", err)
	}
	defer rows.Close()

	out := []DayRow{}
	for rows.Next() {
		var r DayRow
		if err := rows.Scan(&r.Date, &r.Checksum, &r.ImageCount, &r.Bytes, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("index: scan day: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllChecksums maps every catalogued date to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT date, checksum FROM days`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var d, cs string
		if err := rows.Scan(&d, &cs); err != nil {
			return nil, err
		}
		out[d] = cs
	}
	return out, rows.Err()
}
