package service_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zornyy/photoCloud/internal/blobstore"
	"github.com/zornyy/photoCloud/internal/config"
	"github.com/zornyy/photoCloud/internal/model"
	appErr "github.com/zornyy/photoCloud/internal/pkg/errors"
	"github.com/zornyy/photoCloud/internal/repo"
	"github.com/zornyy/photoCloud/internal/service"
	"github.com/zornyy/photoCloud/internal/testutil"
)

type photoFixture struct {
	auth   *service.AuthService
	photos *service.PhotoService
	store  blobstore.Store
}

func newPhotoFixture(t *testing.T) (*photoFixture, func()) {
	t.Helper()
	conn, cleanup := testutil.OpenTestDB(t)
	userRepo := repo.NewUserRepo(conn)
	photoRepo := repo.NewPhotoRepo(conn)
	store, err := blobstore.New(config.UploadStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	return &photoFixture{
		auth:   service.NewAuthService(userRepo, testSecret, time.Hour, 1024),
		photos: service.NewPhotoService(photoRepo, userRepo, store),
		store:  store,
	}, cleanup
}

func (f *photoFixture) registerUser(t *testing.T, quotaMB int64) *model.User {
	t.Helper()
	username := uniqueName("user")
	user, err := f.auth.RegisterWithQuota(context.Background(), username, username+"@example.com", "Passw0rd", "", quotaMB)
	require.NoError(t, err)
	return user
}

func (f *photoFixture) upload(t *testing.T, userID string, size int, mimeType string) (*model.Photo, error) {
	t.Helper()
	data := bytes.Repeat([]byte("x"), size)
	return f.photos.Upload(context.Background(), userID, "my photo", "photo.jpg", bytes.NewReader(data), int64(size), mimeType)
}

func TestUploadRoundTrip(t *testing.T) {
	f, cleanup := newPhotoFixture(t)
	defer cleanup()
	ctx := context.Background()
	user := f.registerUser(t, 1)

	photo, err := f.upload(t, user.ID, 1000, "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, int64(1000), photo.Size)
	require.Equal(t, "image/jpeg", photo.MimeType)
	require.Equal(t, user.ID, photo.UserID)

	got, err := f.photos.Get(ctx, user.ID, photo.ID)
	require.NoError(t, err)
	require.Equal(t, photo.Size, got.Size)
	require.Equal(t, photo.MimeType, got.MimeType)

	_, rc, err := f.photos.OpenContent(ctx, user.ID, photo.ID)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Len(t, content, 1000)

	items, err := f.photos.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, photo.ID, items[0].ID)

	require.NoError(t, f.photos.Delete(ctx, user.ID, photo.ID))
	_, err = f.photos.Get(ctx, user.ID, photo.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestUploadRejectsUnsupportedMedia(t *testing.T) {
	f, cleanup := newPhotoFixture(t)
	defer cleanup()
	user := f.registerUser(t, 1)

	for _, mimeType := range []string{"text/plain", "application/pdf", "image/tiff", ""} {
		_, err := f.upload(t, user.ID, 10, mimeType)
		require.ErrorIs(t, err, appErr.ErrUnsupportedMedia, "mime %q", mimeType)
	}
}

func TestUploadQuotaEnforced(t *testing.T) {
	f, cleanup := newPhotoFixture(t)
	defer cleanup()
	ctx := context.Background()
	user := f.registerUser(t, 1) // 1 MiB budget

	_, err := f.upload(t, user.ID, 600*1024, "image/jpeg")
	require.NoError(t, err)

	_, err = f.upload(t, user.ID, 600*1024, "image/png")
	require.ErrorIs(t, err, appErr.ErrQuotaExceeded)

	consumed, err := f.photos.Consumed(ctx, user.ID)
	require.NoError(t, err)
	require.LessOrEqual(t, consumed, user.QuotaBytes())
	require.Equal(t, int64(600*1024), consumed)

	// The rejected upload never reached the store.
	keys, err := f.store.List(ctx, "user_"+user.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
}

func TestUploadOversizedRejectedBeforeWrite(t *testing.T) {
	f, cleanup := newPhotoFixture(t)
	defer cleanup()
	ctx := context.Background()
	user := f.registerUser(t, 1)

	_, err := f.photos.Upload(ctx, user.ID, "big", "big.jpg", bytes.NewReader(nil), 2*1024*1024, "image/jpeg")
	require.ErrorIs(t, err, appErr.ErrQuotaExceeded)

	keys, err := f.store.List(ctx, "user_"+user.ID)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestCrossAccountAccessIsNotFound(t *testing.T) {
	f, cleanup := newPhotoFixture(t)
	defer cleanup()
	ctx := context.Background()
	owner := f.registerUser(t, 1)
	stranger := f.registerUser(t, 1)

	photo, err := f.upload(t, owner.ID, 100, "image/jpeg")
	require.NoError(t, err)

	_, err = f.photos.Get(ctx, stranger.ID, photo.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	err = f.photos.Delete(ctx, stranger.ID, photo.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	// Still visible to its owner.
	_, err = f.photos.Get(ctx, owner.ID, photo.ID)
	require.NoError(t, err)
}

func TestDeleteToleratesMissingBlob(t *testing.T) {
	f, cleanup := newPhotoFixture(t)
	defer cleanup()
	ctx := context.Background()
	user := f.registerUser(t, 1)

	photo, err := f.upload(t, user.ID, 100, "image/jpeg")
	require.NoError(t, err)
	require.NoError(t, f.store.Delete(ctx, photo.Path))

	require.NoError(t, f.photos.Delete(ctx, user.ID, photo.ID))
	_, err = f.photos.Get(ctx, user.ID, photo.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
