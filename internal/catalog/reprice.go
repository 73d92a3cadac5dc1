package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

const defaultRepriceConcurrency = 8

// RepriceResult summarises a catalog reprice run.
type RepriceResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
}

// RepriceAll re-derives margin and commission of every article against the
// current rate table and stores the ones that changed.
func (s *Service) RepriceAll(ctx context.Context, concurrency int) (RepriceResult, error) {
	if concurrency <= 0 {
		concurrency = defaultRepriceConcurrency
	}
	rates, err := s.rates.Rates(ctx)
	if err != nil {
		return RepriceResult{}, fmt.Errorf("load rates: %w", err)
	}
	articles, err := s.repo.AllArticles(ctx)
	if err != nil {
		return RepriceResult{}, fmt.Errorf("load articles: %w", err)
	}

	changed := make([]bool, len(articles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range articles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			before := articles[i]
			articles[i].Reprice(rates)
			changed[i] = !samePricing(before, articles[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RepriceResult{}, err
	}

	result := RepriceResult{Scanned: len(articles)}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for i, a := range articles {
			if !changed[i] {
				continue
			}
			if err := repo.UpdateArticlePricing(ctx, a); err != nil {
				return fmt.Errorf("update article %d: %w", a.ID, err)
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return RepriceResult{}, err
	}
	s.logger.Info("catalog repriced", slog.Int("scanned", result.Scanned), slog.Int("updated", result.Updated))
	return result, nil
}
