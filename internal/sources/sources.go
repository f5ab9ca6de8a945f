package sources

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marvmedia/grantfinder/internal/grants"
)

// Max sources fetched at once.
const defaultFetchLimit = 4

// Source produces grants from one upstream site or API.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*grants.Grants, error)
}

// FetchAll queries every source concurrently and merges the results, deduping
// by grant ID with the first source to report an ID winning. A failing source
// logs a warning and contributes nothing, the scan keeps going. The only error
// returned is context cancellation.
func FetchAll(ctx context.Context, srcs []Source, limit int, logger *zap.Logger) (*grants.Grants, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	collected := make([]*grants.Grants, len(srcs))
	for i, src := range srcs {
		group.Go(func() error {
			found, err := src.Fetch(gctx)
			if err != nil {
				logger.Warn("source failed",
					zap.String("source", src.Name()),
					zap.Error(err),
				)
				return nil
			}

			logger.Info("source fetched",
				zap.String("source", src.Name()),
				zap.Int("found", found.Len()),
			)
			collected[i] = found

			return nil
		})
	}

	_ = group.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := &grants.Grants{}
	for _, found := range collected {
		merged.Append(found)
	}

	return merged, nil
}
