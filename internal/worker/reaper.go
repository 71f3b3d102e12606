package worker

import (
	"context"
	"time"

	"photolab_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/robfig/cron/v3"
)

// StalePaymentExpirer is the slice of the payment store the reaper needs.
type StalePaymentExpirer interface {
	ExpireStalePayments(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Reaper expires pending payments nobody ever completed. Expired orders
// never credit generations or earnings even if a late notification shows
// up.
type Reaper struct {
	repo      StalePaymentExpirer
	olderThan time.Duration
	cron      *cron.Cron
}

func NewReaper(repo StalePaymentExpirer, olderThan time.Duration) *Reaper {
	if olderThan <= 0 {
		olderThan = 24 * time.Hour
	}
	return &Reaper{
		repo:      repo,
		olderThan: olderThan,
		cron:      cron.New(),
	}
}

func (r *Reaper) Start(ctx context.Context) error {
	log := logger.Logger()

	_, err := r.cron.AddFunc("@hourly", func() {
		expired, err := r.repo.ExpireStalePayments(ctx, r.olderThan)
		if err != nil {
			log.Error("failed to expire stale payments", zap.Error(err))
			return
		}
		if expired > 0 {
			log.Info("expired stale payments", zap.Int64("count", expired))
		}
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	log.Info("payment reaper started", zap.Duration("older_than", r.olderThan))

	go func() {
		<-ctx.Done()
		r.cron.Stop()
	}()

	return nil
}
