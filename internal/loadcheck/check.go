package loadcheck

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/talentflow/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Reorder fires cfg.Requests reorder calls at cfg.Job with at most
// cfg.Workers in flight, alternating the target between positions 1 and 2.
func Reorder(ctx context.Context, cfg Config) (ReorderReport, error) {
	if err := cfg.Validate(); err != nil {
		return ReorderReport{}, err
	}
	c := newClient(cfg)
	log := logger.GetOrNop().Named("loadcheck")
	start := time.Now()

	var ok, simulated, other atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range cfg.Requests {
		g.Go(func() error {
			switch c.reorder(gctx, cfg.Job, i%2+1) {
			case outcomeOK:
				ok.Add(1)
			case outcomeSimulated:
				simulated.Add(1)
			default:
				other.Add(1)
			}
			return gctx.Err()
		})
	}
	err := g.Wait()

	r := ReorderReport{
		Attempts:  int(ok.Load() + simulated.Load() + other.Load()),
		Succeeded: int(ok.Load()),
		Simulated: int(simulated.Load()),
		Other:     int(other.Load()),
		Duration:  time.Since(start),
	}
	log.Info(ctx, "reorder burst finished",
		logger.Int("attempts", r.Attempts),
		logger.Int("succeeded", r.Succeeded),
		logger.Int("simulated", r.Simulated),
		logger.Int("other", r.Other),
		logger.Float64("failureRatio", r.FailureRatio()),
		logger.Duration("took", r.Duration))
	if err != nil {
		return r, fmt.Errorf("reorder burst: %w", err)
	}
	return r, nil
}

// Paginate walks cfg.Path page by page until has_more is false, retrying
// simulated failures, and checks that the pages cover the reported total
// with no repeated ids.
func Paginate(ctx context.Context, cfg Config) (PageReport, error) {
	if err := cfg.Validate(); err != nil {
		return PageReport{}, err
	}
	c := newClient(cfg)
	log := logger.GetOrNop().Named("loadcheck")
	start := time.Now()

	var r PageReport
	seen := make(map[int64]struct{})
	for page := 1; ; page++ {
		p, retried, err := fetchPage(ctx, c, cfg, page)
		r.Retried += retried
		if err != nil {
			return r, err
		}
		r.Pages++
		r.Records += len(p.Data)
		r.Total = p.Pagination.Total
		for _, m := range p.Data {
			seen[m.ID] = struct{}{}
		}
		if cfg.Verbose {
			log.Debug(ctx, "page fetched", logger.Int("page", page), logger.Int("records", len(p.Data)))
		}
		if !p.Pagination.HasMore {
			break
		}
	}
	r.Distinct = len(seen)
	r.Duration = time.Since(start)

	log.Info(ctx, "pagination walk finished",
		logger.String("path", cfg.Path),
		logger.Int("pages", r.Pages),
		logger.Int("records", r.Records),
		logger.Int("total", r.Total),
		logger.Int("retried", r.Retried),
		logger.Duration("took", r.Duration))

	if r.Records != r.Total || r.Distinct != r.Records {
		return r, fmt.Errorf("%w: %d records, %d distinct, total %d", ErrInconsistent, r.Records, r.Distinct, r.Total)
	}
	return r, nil
}

func fetchPage(ctx context.Context, c *client, cfg Config, page int) (pageOf, int, error) {
	retries := max(cfg.Retries, 1)
	for attempt := range retries {
		p, o, err := c.page(ctx, cfg.Path, page, cfg.Limit)
		switch o {
		case outcomeOK:
			return p, attempt, nil
		case outcomeOther:
			return p, attempt, err
		}
	}
	return pageOf{}, retries, fmt.Errorf("%w: page %d failed %d times", ErrUnexpected, page, retries)
}

// Run checks health, then runs the reorder burst and the pagination walk.
func Run(ctx context.Context, cfg Config) (ReorderReport, PageReport, error) {
	if err := newClient(cfg).health(ctx); err != nil {
		return ReorderReport{}, PageReport{}, err
	}
	rr, err := Reorder(ctx, cfg)
	if err != nil {
		return rr, PageReport{}, err
	}
	pr, err := Paginate(ctx, cfg)
	return rr, pr, err
}
