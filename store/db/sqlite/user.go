package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/vendora/vendora/store"
)

func (d *DB) CreateUser(ctx context.Context, create *store.User) (*store.User, error) {
	fields := []string{"uid", "username", "email", "nickname", "avatar_url"}
	args := []any{create.UID, create.Username, create.Email, create.Nickname, create.AvatarURL}

	stmt := `INSERT INTO user (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts, updated_ts, row_status`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
		&create.RowStatus,
	); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return create, nil
}

func (d *DB) ListUsers(ctx context.Context, find *store.FindUser) ([]*store.User, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "user.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "user.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Username; v != nil {
		where, args = append(where, "user.username = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.RowStatus; v != nil {
		where, args = append(where, "user.row_status = "+placeholder(len(args)+1)), append(args, v.String())
	}
	if v := find.IDs; len(v) > 0 {
		holders := []string{}
		for _, id := range v {
			holders = append(holders, placeholder(len(args)+1))
			args = append(args, id)
		}
		where = append(where, "user.id IN ("+strings.Join(holders, ", ")+")")
	}

	query := `
		SELECT
			id, uid, row_status, created_ts, updated_ts,
			username, email, nickname, avatar_url
		FROM user
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY user.id ASC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	list := make([]*store.User, 0)
	for rows.Next() {
		user := &store.User{}
		if err := rows.Scan(
			&user.ID,
			&user.UID,
			&user.RowStatus,
			&user.CreatedTs,
			&user.UpdatedTs,
			&user.Username,
			&user.Email,
			&user.Nickname,
			&user.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		list = append(list, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateUser(ctx context.Context, update *store.UpdateUser) (*store.User, error) {
	set, args := []string{"updated_ts = strftime('%s', 'now')"}, []any{}

	if v := update.RowStatus; v != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, v.String())
	}
	if v := update.Username; v != nil {
		set, args = append(set, "username = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Email; v != nil {
		set, args = append(set, "email = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Nickname; v != nil {
		set, args = append(set, "nickname = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.AvatarURL; v != nil {
		set, args = append(set, "avatar_url = "+placeholder(len(args)+1)), append(args, *v)
	}
	args = append(args, update.ID)

	stmt := `UPDATE user SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, row_status, created_ts, updated_ts, username, email, nickname, avatar_url`

	user := &store.User{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&user.ID,
		&user.UID,
		&user.RowStatus,
		&user.CreatedTs,
		&user.UpdatedTs,
		&user.Username,
		&user.Email,
		&user.Nickname,
		&user.AvatarURL,
	); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func (d *DB) DeleteUser(ctx context.Context, delete *store.DeleteUser) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM user WHERE id = ?`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
