package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/hrygo/homepref/store"
)

// erDupEntry is ER_DUP_ENTRY.
const erDupEntry = 1062

const preferenceColumns = "id, user_id, max_budget, min_size, rooms, created_ts, updated_ts"

func (d *DB) CreatePreference(ctx context.Context, create *store.Preference) (*store.Preference, error) {
	fields := []string{"`id`", "`user_id`", "`max_budget`", "`min_size`", "`rooms`", "`created_ts`", "`updated_ts`"}
	args := []any{create.ID, create.UserID, create.MaxBudget, create.MinSize, create.Rooms, create.CreatedTs, create.UpdatedTs}

	stmt := "INSERT INTO `preference` (" + strings.Join(fields, ", ") + ") VALUES (" + placeholders(len(args)) + ")"
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		var mysqlErr *gomysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == erDupEntry {
			return nil, store.ErrPreferenceExists
		}
		return nil, fmt.Errorf("failed to create preference: %w", err)
	}
	return create, nil
}

func (d *DB) ListPreferences(ctx context.Context, find *store.FindPreference) ([]*store.Preference, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "`id` = ?"), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "`user_id` = ?"), append(args, *v)
	}

	query := "SELECT " + preferenceColumns + " FROM `preference` WHERE " + strings.Join(where, " AND ")
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Preference, 0)
	for rows.Next() {
		preference, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, preference)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate preferences: %w", err)
	}
	return list, nil
}

// UpdatePreference runs the UPDATE and re-reads the row, since MySQL has no
// RETURNING clause. A zero affected-row count is not treated as "missing":
// MySQL reports only changed rows, so the follow-up SELECT decides.
func (d *DB) UpdatePreference(ctx context.Context, update *store.UpdatePreference) (*store.Preference, error) {
	set, args := []string{}, []any{}

	if v := update.MaxBudget; v != nil {
		set, args = append(set, "`max_budget` = ?"), append(args, *v)
	}
	if v := update.MinSize; v != nil {
		set, args = append(set, "`min_size` = ?"), append(args, *v)
	}
	if v := update.Rooms; v != nil {
		set, args = append(set, "`rooms` = ?"), append(args, *v)
	}
	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "`updated_ts` = ?"), append(args, *v)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	args = append(args, update.ID)

	stmt := "UPDATE `preference` SET " + strings.Join(set, ", ") + " WHERE `id` = ?"
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to update preference: %w", err)
	}

	preference, err := scanPreference(d.db.QueryRowContext(ctx, "SELECT "+preferenceColumns+" FROM `preference` WHERE `id` = ?", update.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return preference, nil
}

func (d *DB) DeletePreference(ctx context.Context, delete *store.DeletePreference) (bool, error) {
	result, err := d.db.ExecContext(ctx, "DELETE FROM `preference` WHERE `user_id` = ?", delete.UserID)
	if err != nil {
		return false, fmt.Errorf("failed to delete preference: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreference(row scanner) (*store.Preference, error) {
	var preference store.Preference
	var maxBudget, minSize, rooms sql.NullInt32
	if err := row.Scan(
		&preference.ID,
		&preference.UserID,
		&maxBudget,
		&minSize,
		&rooms,
		&preference.CreatedTs,
		&preference.UpdatedTs,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan preference: %w", err)
	}
	if maxBudget.Valid {
		preference.MaxBudget = &maxBudget.Int32
	}
	if minSize.Valid {
		preference.MinSize = &minSize.Int32
	}
	if rooms.Valid {
		preference.Rooms = &rooms.Int32
	}
	return &preference, nil
}
