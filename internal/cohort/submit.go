package cohort

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/okian/lifeline/pkg/logger"
)

// submitRecords posts records with at most workers requests in flight and
// returns the ones the service accepted. Rejected records are counted, not
// fatal; a cancelled ctx is.
func submitRecords(ctx context.Context, client *Client, records []Record, workers int, stats *Stats) ([]Record, error) {
	log := logger.Named("cohort")
	log.Info(ctx, "submitting records", logger.Int("records", len(records)), logger.Int("workers", workers))

	var (
		accepted, duplicate, failed atomic.Int64
		mu                          sync.Mutex
		kept                        = make([]Record, 0, len(records))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, r := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ack, err := client.PostRecord(gctx, r)
			switch {
			case err != nil:
				failed.Add(1)
				log.Warn(gctx, "record rejected", logger.String("record_id", r.RecordID), logger.Error(err))
			case ack.Duplicate:
				duplicate.Add(1)
			default:
				accepted.Add(1)
				mu.Lock()
				kept = append(kept, r)
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()

	stats.Accepted = int(accepted.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Failed = int(failed.Load())

	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed))
	return kept, err
}
