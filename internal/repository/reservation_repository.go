package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/concept-booking/internal/model"
)

// ReservationRepo stores reservation records in the `reservations` table.
// Rows keep the persisted shape {holder_id, date, time, quantity,
// duration_minutes} at minute precision; the auto-increment `seq` column
// preserves insertion order so All returns records in the order they were
// written.  Dates and times are wall-clock values of the venue, which is
// why the repository needs the venue location to rebuild them.
type ReservationRepo struct {
	db  *sql.DB
	loc *time.Location
}

// NewReservationRepo returns a ReservationRepo bound to the provided
// database and venue location.  A nil location means UTC.
func NewReservationRepo(db *sql.DB, loc *time.Location) *ReservationRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &ReservationRepo{db: db, loc: loc}
}

// DB exposes the underlying handle so callers can run health checks.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const insertReservation = `INSERT INTO reservations
    (id, holder_id, booking_date, booking_time, duration_minutes, quantity, created_at)
    VALUES (?, ?, ?, ?, ?, ?, ?)`

// Append inserts a single record at the end of the collection.
func (r *ReservationRepo) Append(ctx context.Context, res model.Reservation) error {
	_, err := r.db.ExecContext(ctx, insertReservation, r.args(res)...)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole collection for rs inside one transaction.
// Either every row is replaced or, on error, nothing changes.
func (r *ReservationRepo) ReplaceAll(ctx context.Context, rs []model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations`); err != nil {
		return fmt.Errorf("clear reservations: %w", err)
	}
	if len(rs) > 0 {
		query := `INSERT INTO reservations
            (id, holder_id, booking_date, booking_time, duration_minutes, quantity, created_at) VALUES `
		args := make([]interface{}, 0, len(rs)*7)
		for i, res := range rs {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?, ?)"
			args = append(args, r.args(res)...)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("reinsert reservations: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	committed = true
	return nil
}

// All returns every record in insertion order.
func (r *ReservationRepo) All(ctx context.Context) ([]model.Reservation, error) {
	const q = `SELECT id, holder_id, booking_date, booking_time, duration_minutes, quantity, created_at
               FROM reservations
               ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		var (
			res     model.Reservation
			date    time.Time
			clockAt string
		)
		if err := rows.Scan(&res.ID, &res.HolderID, &date, &clockAt, &res.DurationMinutes, &res.Quantity, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		start, err := r.combine(date, clockAt)
		if err != nil {
			return nil, err
		}
		res.Start = start
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReservationRepo) args(res model.Reservation) []interface{} {
	start := res.Start.In(r.loc)
	created := res.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return []interface{}{
		res.ID,
		res.HolderID,
		start.Format("2006-01-02"),
		start.Format("15:04:00"),
		res.DurationMinutes,
		res.Quantity,
		created.UTC().Format("2006-01-02 15:04:05"),
	}
}

// combine rebuilds the start instant from the DATE and TIME columns.  The
// driver returns DATE as a time.Time (parseTime=true) and TIME as text.
func (r *ReservationRepo) combine(date time.Time, clockAt string) (time.Time, error) {
	t, err := time.Parse("15:04:05", clockAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse booking_time %q: %w", clockAt, err)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, r.loc), nil
}
