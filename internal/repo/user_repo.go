package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/zornyy/photoCloud/internal/model"
	"github.com/zornyy/photoCloud/internal/pkg/dbutil"
	appErr "github.com/zornyy/photoCloud/internal/pkg/errors"
)

var userColumns = []string{"id", "username", "email", "password_hash", "full_name", "storage_quota_mb", "ctime", "mtime"}

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts the user. Uniqueness of username and email is enforced by
// the table constraints, so a concurrent duplicate registration loses here
// rather than at the pre-check.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	data := map[string]interface{}{
		"id":               user.ID,
		"username":         user.Username,
		"email":            user.Email,
		"password_hash":    user.PasswordHash,
		"full_name":        user.FullName,
		"storage_quota_mb": user.StorageQuotaMB,
		"ctime":            user.Ctime,
		"mtime":            user.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("users", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return mapUserConflict(err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"id": userID})
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"username": username})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"email": email})
}

func (r *UserRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.User, error) {
	sqlStr, args, err := builder.BuildSelect("users", where, userColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var user model.User
	if err := scanUser(rows, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a partial update; nil fields are left untouched.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID string, fullName, email *string, mtime int64) error {
	update := map[string]interface{}{"mtime": mtime}
	if fullName != nil {
		update["full_name"] = *fullName
	}
	if email != nil {
		update["email"] = *email
	}
	sqlStr, args, err := builder.BuildUpdate("users", map[string]interface{}{"id": userID}, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return mapUserConflict(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *UserRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanUser(rows *sql.Rows, user *model.User) error {
	return rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FullName, &user.StorageQuotaMB, &user.Ctime, &user.Mtime)
}

func mapUserConflict(err error) error {
	switch dbutil.ConflictConstraint(err) {
	case "users_username_key":
		return appErr.ErrDuplicateUsername
	case "users_email_key":
		return appErr.ErrDuplicateEmail
	}
	if dbutil.IsConflict(err) {
		return appErr.ErrDuplicateUsername
	}
	return err
}
