package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"weatherdash/internal/types"
)

// RefreshAll refetches the primary location's weather sequentially, then
// fans out over the watchlist concurrently with an all-settled barrier. The
// loading flag covers the whole operation and clears exactly once every
// sub-fetch has settled, however many failed. Per-city failures are isolated
// and never abort siblings.
func (s *Service) RefreshAll(ctx context.Context) (*View, error) {
	s.mu.Lock()
	s.state.Loading = true
	cities := make([]types.WatchlistCity, len(s.state.Watchlist))
	copy(cities, s.state.Watchlist)
	s.mu.Unlock()

	s.fetchPrimary(ctx)

	// fetchCity never returns an error; the group is purely an all-settled
	// barrier over the fan-out.
	g, gctx := errgroup.WithContext(ctx)
	for _, city := range cities {
		city := city
		g.Go(func() error {
			s.fetchCity(gctx, city)
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = false
	return s.buildViewLocked(), nil
}

// InitialLoad runs the startup sequence: the persisted state is already
// restored and servable from cached snapshots, so this only refreshes. The
// primary fetch runs first, then each watchlist city strictly in sequence to
// bound the startup request burst.
func (s *Service) InitialLoad(ctx context.Context) {
	s.fetchPrimary(ctx)

	s.mu.Lock()
	cities := make([]types.WatchlistCity, len(s.state.Watchlist))
	copy(cities, s.state.Watchlist)
	s.mu.Unlock()

	for _, city := range cities {
		if ctx.Err() != nil {
			return
		}
		s.fetchCity(ctx, city)
	}
}
