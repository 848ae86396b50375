package jobs

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"

	"cnpjbase/cmd/internal/domain/entity"
)

const refreshDeadline = 5 * time.Minute

type TableRefresher interface {
	Refresh(ctx context.Context) (*entity.Table, error)
}

// DatasetRefresher keeps the cached table warm by forcing a refresh on a
// fixed interval, so interactive lookups rarely pay the download cost.
type DatasetRefresher struct {
	provider TableRefresher
	interval time.Duration
}

func NewDatasetRefresher(provider TableRefresher, interval time.Duration) *DatasetRefresher {
	return &DatasetRefresher{
		provider: provider,
		interval: interval,
	}
}

func (r *DatasetRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info("Dataset refresher cron started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping dataset refresher...")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *DatasetRefresher) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, refreshDeadline)
	defer cancel()

	table, err := r.provider.Refresh(ctx)
	if err != nil {
		log.Errorf("Refresher: failed to refresh dataset: %v", err)
		return
	}

	if table.Stale {
		log.Warnf("Refresher: refresh failed, stale table retained (%d records)", table.Len())
		return
	}
	log.Debugf("Refresher: dataset refreshed, %d records", table.Len())
}
