package repository

import (
	"context"
	"database/sql"
	"strings"
)

// ActivityFilters narrows List. Zero values mean no filter.
type ActivityFilters struct {
	Kind    string
	Account string
	Status  string
	Limit   int
}

// ActivityRepo handles the activity journal.
type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

func (r *ActivityRepo) Insert(ctx context.Context, a Activity) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO activity(
	 id, kind, account, target, amount, proposal, tx_hash, status, error, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, a.ID, a.Kind, a.Account, a.Target, a.Amount, a.Proposal, a.TxHash, a.Status, a.Error)
	return err
}

// SetStatus moves an entry to status; errText is stored only when non-empty.
func (r *ActivityRepo) SetStatus(ctx context.Context, id, status, errText string) error {
	var errVal *string
	if errText != "" {
		errVal = &errText
	}
	_, err := r.db.ExecContext(ctx, `UPDATE activity SET status = ?, error = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, status, errVal, id)
	return err
}

func (r *ActivityRepo) Get(ctx context.Context, id string) (*Activity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activity WHERE id = ?`, id)
	a, err := scanActivity(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// List returns entries newest first.
func (r *ActivityRepo) List(ctx context.Context, f ActivityFilters) ([]Activity, error) {
	var where []string
	var args []interface{}

	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Account != "" {
		where = append(where, "account = ? COLLATE NOCASE")
		args = append(args, f.Account)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}

	query := "SELECT " + activityColumns + " FROM activity"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Recent returns the newest limit entries.
func (r *ActivityRepo) Recent(ctx context.Context, limit int) ([]Activity, error) {
	return r.List(ctx, ActivityFilters{Limit: limit})
}

const activityColumns = "id, kind, account, target, amount, proposal, tx_hash, status, error, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(s rowScanner) (Activity, error) {
	var a Activity
	err := s.Scan(&a.ID, &a.Kind, &a.Account, &a.Target, &a.Amount, &a.Proposal, &a.TxHash, &a.Status, &a.Error, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
