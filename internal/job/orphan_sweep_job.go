package job

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/zornyy/photoCloud/internal/blobstore"
	"github.com/zornyy/photoCloud/internal/repo"
)

// OrphanSweepJob deletes stored blobs that have no matching photo record.
// Such blobs only appear when an upload wrote its file but the record insert
// lost (quota race, crash); the record is authoritative, so an unreferenced
// blob is garbage.
type OrphanSweepJob struct {
	users  *repo.UserRepo
	photos *repo.PhotoRepo
	store  blobstore.Store
}

func NewOrphanSweepJob(users *repo.UserRepo, photos *repo.PhotoRepo, store blobstore.Store) *OrphanSweepJob {
	return &OrphanSweepJob{users: users, photos: photos, store: store}
}

func (j *OrphanSweepJob) Name() string {
	return "orphan_sweep"
}

func (j *OrphanSweepJob) Run(ctx context.Context) error {
	userIDs, err := j.users.ListIDs(ctx)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	var removed int
	for _, userID := range userIDs {
		live, err := j.photos.ListFileKeysByUser(ctx, userID)
		if err != nil {
			return err
		}
		prefix := "user_" + userID
		keys, err := j.store.List(ctx, prefix)
		if err != nil {
			logger.Warn("list user blobs failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		for _, key := range keys {
			fileKey := strings.TrimPrefix(key, prefix+"/")
			if _, ok := live[fileKey]; ok {
				continue
			}
			if err := j.store.Delete(ctx, key); err != nil {
				logger.Warn("delete orphan blob failed", zap.String("key", key), zap.Error(err))
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		logger.Info("orphan sweep removed blobs", zap.Int("count", removed))
	}
	return nil
}
