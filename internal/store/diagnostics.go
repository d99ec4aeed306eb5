package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shyamtrading/siteserver/internal/storage"
)

// OrphanReport is the read-only reconciliation of media rows against
// bucket blobs. It never deletes anything; cleanup stays a deliberate
// operator action.
type OrphanReport struct {
	OrphanBlobs []storage.ObjectInfo `json:"orphanBlobs"` // blob exists, no row points at it
	MissingIDs  []string             `json:"missingIds"`  // row exists, blob is gone
	CheckedAt   time.Time            `json:"checkedAt"`
}

// OrphanSweep compares every media row's object path with the bucket
// listing, in both directions.
func (r *Remote) OrphanSweep(ctx context.Context) (*OrphanReport, error) {
	if r.objstore == nil {
		return nil, storage.ErrNotConfigured
	}

	var rows []mediaRow
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	objects, err := r.objstore.List(ctx, "")
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool, len(rows))
	for _, row := range rows {
		referenced[row.ObjectPath] = true
	}
	present := make(map[string]bool, len(objects))
	for _, obj := range objects {
		present[obj.Key] = true
	}

	report := &OrphanReport{CheckedAt: time.Now().UTC()}
	for _, obj := range objects {
		if !referenced[obj.Key] {
			report.OrphanBlobs = append(report.OrphanBlobs, obj)
		}
	}
	for _, row := range rows {
		if row.ObjectPath != "" && !present[row.ObjectPath] {
			report.MissingIDs = append(report.MissingIDs, row.ID)
		}
	}

	if len(report.OrphanBlobs) > 0 || len(report.MissingIDs) > 0 {
		zap.L().Warn("media storage out of sync",
			zap.Int("orphan_blobs", len(report.OrphanBlobs)),
			zap.Int("missing_blobs", len(report.MissingIDs)))
	}
	return report, nil
}
