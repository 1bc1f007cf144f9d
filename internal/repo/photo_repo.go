package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/zornyy/photoCloud/internal/model"
	"github.com/zornyy/photoCloud/internal/pkg/dbutil"
	appErr "github.com/zornyy/photoCloud/internal/pkg/errors"
)

var photoColumns = []string{"id", "user_id", "name", "file_key", "original_filename", "path", "size", "mime_type", "ctime", "mtime"}

type PhotoRepo struct {
	db *sql.DB
}

func NewPhotoRepo(db *sql.DB) *PhotoRepo {
	return &PhotoRepo{db: db}
}

// CreateWithinQuota inserts the photo record only if the owner's consumed
// bytes plus the new size stay within quota. The owner row is locked for the
// duration of the transaction, so concurrent uploads for one account
// serialize here while other accounts proceed independently.
func (r *PhotoRepo) CreateWithinQuota(ctx context.Context, photo *model.Photo) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var quotaMB int64
	row := tx.QueryRowContext(ctx, `SELECT storage_quota_mb FROM users WHERE id = $1 FOR UPDATE`, photo.UserID)
	if err := row.Scan(&quotaMB); err != nil {
		if err == sql.ErrNoRows {
			return appErr.ErrNotFound
		}
		return err
	}

	var consumed int64
	row = tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0) FROM photos WHERE user_id = $1`, photo.UserID)
	if err := row.Scan(&consumed); err != nil {
		return err
	}

	quotaBytes := quotaMB * 1024 * 1024
	if consumed+photo.Size > quotaBytes {
		return fmt.Errorf("%w: %d bytes required, %d available", appErr.ErrQuotaExceeded, photo.Size, quotaBytes-consumed)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO photos (id, user_id, name, file_key, original_filename, path, size, mime_type, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		photo.ID, photo.UserID, photo.Name, photo.FileKey, photo.OriginalFilename,
		photo.Path, photo.Size, photo.MimeType, photo.Ctime, photo.Mtime,
	)
	if err != nil {
		if dbutil.IsConflict(err) {
			return fmt.Errorf("file key collision: %w", err)
		}
		return err
	}
	return tx.Commit()
}

func (r *PhotoRepo) GetByID(ctx context.Context, userID, photoID string) (*model.Photo, error) {
	sqlStr, args, err := builder.BuildSelect("photos", map[string]interface{}{"id": photoID, "user_id": userID}, photoColumns)
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
	var item model.Photo
	if err := scanPhoto(rows, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *PhotoRepo) ListByUser(ctx context.Context, userID string) ([]model.Photo, error) {
	sqlStr, args, err := builder.BuildSelect("photos", map[string]interface{}{"user_id": userID}, photoColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Photo, 0)
	for rows.Next() {
		var item model.Photo
		if err := scanPhoto(rows, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PhotoRepo) DeleteByID(ctx context.Context, userID, photoID string) error {
	sqlStr, args, err := builder.BuildDelete("photos", map[string]interface{}{"id": photoID, "user_id": userID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *PhotoRepo) SumSizeByUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	row := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0) FROM photos WHERE user_id = $1`, userID)
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ListFileKeysByUser returns the set of stored keys the sweep job treats as
// live.
func (r *PhotoRepo) ListFileKeysByUser(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT file_key FROM photos WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys[key] = struct{}{}
	}
	return keys, rows.Err()
}

func scanPhoto(rows *sql.Rows, item *model.Photo) error {
	return rows.Scan(&item.ID, &item.UserID, &item.Name, &item.FileKey, &item.OriginalFilename, &item.Path, &item.Size, &item.MimeType, &item.Ctime, &item.Mtime)
}
