package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/zornyy/photoCloud/internal/blobstore"
	"github.com/zornyy/photoCloud/internal/model"
	appErr "github.com/zornyy/photoCloud/internal/pkg/errors"
	"github.com/zornyy/photoCloud/internal/pkg/timeutil"
	"github.com/zornyy/photoCloud/internal/repo"
)

var allowedMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

type PhotoService struct {
	photos *repo.PhotoRepo
	users  *repo.UserRepo
	store  blobstore.Store
}

func NewPhotoService(photos *repo.PhotoRepo, users *repo.UserRepo, store blobstore.Store) *PhotoService {
	return &PhotoService{photos: photos, users: users, store: store}
}

// Consumed reports the account's aggregate stored bytes.
func (s *PhotoService) Consumed(ctx context.Context, userID string) (int64, error) {
	return s.photos.SumSizeByUser(ctx, userID)
}

// Upload validates the media type, admits the size against the quota, writes
// the blob, then inserts the record. The early admit check keeps a doomed
// upload from touching the store at all; the authoritative check runs again
// inside CreateWithinQuota with the account row locked, and if that loses the
// already-written blob is removed. A blob left behind by a crash between the
// two steps has no record and is collected by the orphan sweep.
func (s *PhotoService) Upload(ctx context.Context, userID, name, originalFilename string, r io.Reader, size int64, mimeType string) (*model.Photo, error) {
	if _, ok := allowedMimeTypes[mimeType]; !ok {
		return nil, fmt.Errorf("%w: %s", appErr.ErrUnsupportedMedia, mimeType)
	}
	if name == "" {
		name = originalFilename
	}
	if size < 0 {
		return nil, appErr.ErrInvalid
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	consumed, err := s.photos.SumSizeByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if consumed+size > user.QuotaBytes() {
		return nil, fmt.Errorf("%w: %d bytes required, %d available", appErr.ErrQuotaExceeded, size, user.QuotaBytes()-consumed)
	}

	fileKey := newFileKey(originalFilename)
	path := userPrefix(userID) + "/" + fileKey
	if err := s.store.Save(ctx, path, r, size); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	now := timeutil.NowUnix()
	photo := &model.Photo{
		ID:               newID(),
		UserID:           userID,
		Name:             name,
		FileKey:          fileKey,
		OriginalFilename: originalFilename,
		Path:             path,
		Size:             size,
		MimeType:         mimeType,
		Ctime:            now,
		Mtime:            now,
	}
	if err := s.photos.CreateWithinQuota(ctx, photo); err != nil {
		if delErr := s.store.Delete(ctx, path); delErr != nil {
			logutil.GetLogger(ctx).Warn("remove rejected upload failed",
				zap.String("path", path), zap.Error(delErr))
		}
		return nil, err
	}
	return photo, nil
}

func (s *PhotoService) Get(ctx context.Context, userID, photoID string) (*model.Photo, error) {
	return s.photos.GetByID(ctx, userID, photoID)
}

func (s *PhotoService) List(ctx context.Context, userID string) ([]model.Photo, error) {
	return s.photos.ListByUser(ctx, userID)
}

// OpenContent returns the photo record and a reader over its stored bytes.
func (s *PhotoService) OpenContent(ctx context.Context, userID, photoID string) (*model.Photo, io.ReadCloser, error) {
	photo, err := s.photos.GetByID(ctx, userID, photoID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, photo.Path)
	if err != nil {
		return nil, nil, appErr.ErrNotFound
	}
	return photo, rc, nil
}

// Delete removes the blob first, then the record. A missing blob is treated
// as already deleted; a blob-removal failure is logged and does not block the
// record delete.
func (s *PhotoService) Delete(ctx context.Context, userID, photoID string) error {
	photo, err := s.photos.GetByID(ctx, userID, photoID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, photo.Path); err != nil {
		logutil.GetLogger(ctx).Warn("delete blob failed, removing record anyway",
			zap.String("path", photo.Path), zap.Error(err))
	}
	return s.photos.DeleteByID(ctx, userID, photoID)
}

func userPrefix(userID string) string {
	return "user_" + userID
}

// newFileKey is a 128-bit random hex name keeping the original extension so
// served files get a sensible content type.
func newFileKey(originalFilename string) string {
	id := uuid.New()
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return hex.EncodeToString(id[:]) + ext
}
