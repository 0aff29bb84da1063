package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/concept-booking/internal/model"
)

// HolderRepo mirrors the `holders` table.  A holder row is written once
// the person passes password verification and is touched again only when
// they rename themselves or their role changes.
type HolderRepo struct{ DB *sql.DB }

func NewHolderRepo(db *sql.DB) *HolderRepo { return &HolderRepo{DB: db} }

// Upsert inserts the holder or refreshes name, contact and role of an
// existing row.  created_at is never overwritten.
func (r *HolderRepo) Upsert(ctx context.Context, h model.Holder) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO holders (id, name, contact, role) VALUES (?,?,?,?)
         ON DUPLICATE KEY UPDATE name = VALUES(name), contact = VALUES(contact), role = VALUES(role)`,
		h.ID, strings.TrimSpace(h.Name), h.Contact, h.Role)
	return err
}

// GetByID fetches a holder by chat id.
func (r *HolderRepo) GetByID(ctx context.Context, id string) (model.Holder, error) {
	var h model.Holder
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,contact,role,created_at,updated_at FROM holders WHERE id=? LIMIT 1",
		id).Scan(&h.ID, &h.Name, &h.Contact, &h.Role, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Holder{}, ErrNotFound
	}
	return h, err
}

// Rename changes the display name of a verified holder.
func (r *HolderRepo) Rename(ctx context.Context, id, name string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE holders SET name=? WHERE id=?", strings.TrimSpace(name), id)
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
