package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/iliyamo/concept-booking/internal/model"
)

// SettingsRepo reads and writes the administrator-controlled venue
// configuration: capacity and verification password (key/value rows in
// `venue_settings`), weekday timetable (`opening_hours`) and closed
// periods (`closed_periods`).  Nothing is cached; every call hits the
// database so an administrator's change applies to the next request.
type SettingsRepo struct {
	db              *sql.DB
	loc             *time.Location
	defaultCapacity int
}

// NewSettingsRepo returns a SettingsRepo.  defaultCapacity is used while
// no administrator has stored a capacity.
func NewSettingsRepo(db *sql.DB, loc *time.Location, defaultCapacity int) *SettingsRepo {
	if loc == nil {
		loc = time.UTC
	}
	if defaultCapacity <= 0 {
		defaultCapacity = model.DefaultCapacity
	}
	return &SettingsRepo{db: db, loc: loc, defaultCapacity: defaultCapacity}
}

const (
	keyCapacity     = "capacity"
	keyPasswordHash = "verification_password_hash"
)

// Venue loads the full configuration.  Weekdays without a row fall back to
// the default timetable.
func (r *SettingsRepo) Venue(ctx context.Context) (model.Venue, error) {
	v := model.Venue{Hours: model.DefaultHours(), Capacity: r.defaultCapacity}

	raw, err := r.get(ctx, keyCapacity)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return model.Venue{}, err
	}
	if err == nil {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 1 {
			return model.Venue{}, fmt.Errorf("%w: stored capacity %q", ErrInvalidSetting, raw)
		}
		v.Capacity = n
	}

	rows, err := r.db.QueryContext(ctx, `SELECT weekday, is_closed, open_min, close_min FROM opening_hours`)
	if err != nil {
		return model.Venue{}, fmt.Errorf("query opening_hours: %w", err)
	}
	for rows.Next() {
		var (
			day int
			h   model.DayHours
		)
		if err := rows.Scan(&day, &h.Closed, &h.Open, &h.Close); err != nil {
			rows.Close()
			return model.Venue{}, fmt.Errorf("scan opening_hours: %w", err)
		}
		if day >= 0 && day < len(v.Hours) {
			v.Hours[day] = h
		}
	}
	if err := rows.Close(); err != nil {
		return model.Venue{}, err
	}

	v.Closures, err = r.closures(ctx)
	if err != nil {
		return model.Venue{}, err
	}
	return v, nil
}

func (r *SettingsRepo) closures(ctx context.Context) ([]model.ClosedPeriod, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, from_at, until_at, reason FROM closed_periods ORDER BY from_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query closed_periods: %w", err)
	}
	defer rows.Close()
	var out []model.ClosedPeriod
	for rows.Next() {
		var p model.ClosedPeriod
		if err := rows.Scan(&p.ID, &p.From, &p.Until, &p.Reason); err != nil {
			return nil, fmt.Errorf("scan closed_periods: %w", err)
		}
		p.From = p.From.In(r.loc)
		p.Until = p.Until.In(r.loc)
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetCapacity stores the number of bookable concepts.
func (r *SettingsRepo) SetCapacity(ctx context.Context, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", ErrInvalidSetting)
	}
	return r.set(ctx, keyCapacity, strconv.Itoa(n))
}

// SetDayHours replaces the timetable of one weekday.
func (r *SettingsRepo) SetDayHours(ctx context.Context, day time.Weekday, h model.DayHours) error {
	if err := checkDayHours(day, h); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO opening_hours (weekday, is_closed, open_min, close_min) VALUES (?, ?, ?, ?)
         ON DUPLICATE KEY UPDATE is_closed = VALUES(is_closed), open_min = VALUES(open_min), close_min = VALUES(close_min)`,
		int(day), h.Closed, h.Open, h.Close)
	return err
}

// AddClosure stores a closed period and returns it with its new ID.
func (r *SettingsRepo) AddClosure(ctx context.Context, p model.ClosedPeriod) (model.ClosedPeriod, error) {
	if !p.Until.After(p.From) {
		return model.ClosedPeriod{}, fmt.Errorf("%w: closure must end after it starts", ErrInvalidSetting)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO closed_periods (from_at, until_at, reason) VALUES (?, ?, ?)`,
		p.From.UTC().Format("2006-01-02 15:04:05"), p.Until.UTC().Format("2006-01-02 15:04:05"), p.Reason)
	if err != nil {
		return model.ClosedPeriod{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ClosedPeriod{}, err
	}
	p.ID = uint64(id)
	return p, nil
}

// RemoveClosure deletes a closed period.  It returns ErrNotFound when no
// period has that ID.
func (r *SettingsRepo) RemoveClosure(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM closed_periods WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PasswordHash returns the bcrypt hash of the verification password, or
// an empty string when none has been set.
func (r *SettingsRepo) PasswordHash(ctx context.Context) (string, error) {
	v, err := r.get(ctx, keyPasswordHash)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetPasswordHash stores a new verification password hash.
func (r *SettingsRepo) SetPasswordHash(ctx context.Context, hash string) error {
	return r.set(ctx, keyPasswordHash, hash)
}

func (r *SettingsRepo) get(ctx context.Context, key string) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT v FROM venue_settings WHERE k = ? LIMIT 1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	return v, nil
}

func (r *SettingsRepo) set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO venue_settings (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)`,
		key, value)
	return err
}
