package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/GoPolymarket/vaultscope/internal/pkg/apperrors"
	"github.com/GoPolymarket/vaultscope/internal/pkg/logger"
	"github.com/GoPolymarket/vaultscope/internal/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// PageSource is what the aggregator pages through. VaultService implements it.
type PageSource interface {
	GetTotalVaults(ctx context.Context) (int, error)
	GetVaultsWithPagination(ctx context.Context, q model.QueryParam) ([]model.VaultRecord, error)
}

// Aggregator loads the full vault list page by page: the first page is
// published as soon as it arrives, the remaining pages are fetched
// concurrently and appended behind it.
type Aggregator struct {
	src   PageSource
	store SnapshotStore
	log   *slog.Logger
}

func NewAggregator(src PageSource, store SnapshotStore) *Aggregator {
	if store == nil {
		store = NewMemorySnapshotStore()
	}
	return &Aggregator{
		src:   src,
		store: store,
		log:   logger.Component("aggregator"),
	}
}

func (a *Aggregator) Store() SnapshotStore {
	return a.store
}

// FetchAll returns the first batch followed by the rest, each group
// version-sorted on its own. The two groups are not re-sorted into one
// order. Addresses already in the first batch are dropped from the rest.
//
// On failure the batches already published stay in the store. Nothing is
// retried.
func (a *Aggregator) FetchAll(ctx context.Context, pageSize int) ([]model.VaultRecord, error) {
	if pageSize <= 0 {
		return nil, apperrors.NewInvalidArgument("page size must be > 0, got %d", pageSize)
	}

	// 1. total count
	total, err := a.src.GetTotalVaults(ctx)
	if err != nil {
		return nil, sourceError("total_vaults", err)
	}

	// 2. first page, published right away
	first, err := a.fetchPage(ctx, model.ToQueryParam(0, pageSize), total)
	if err != nil {
		return nil, sourceError("first_page", err)
	}
	first = SortByVersion(first)
	// an empty first batch still replaces the previous cycle's snapshot
	if err := a.store.Replace(ctx, first); err != nil {
		return nil, apperrors.New(apperrors.ErrInternal, "publish first batch", err)
	}
	a.log.Info("first batch loaded", "total", total, "count", len(first))

	if total <= pageSize {
		return first, nil
	}

	// 3. remaining pages in parallel
	remaining := (total - pageSize + pageSize - 1) / pageSize
	pages := make([][]model.VaultRecord, remaining)
	var g errgroup.Group
	for i := 0; i < remaining; i++ {
		q := model.ToQueryParam(pageSize*(i+1), pageSize)
		g.Go(func() error {
			page, err := a.fetchPage(ctx, q, total)
			if err != nil {
				return err
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.log.Error("page load failed", "error", err, "published", len(first))
		return nil, apperrors.NewAggregationFailure("loading remaining vault pages failed", err)
	}

	// 4. flatten, sort, append behind the first batch
	seen := make(map[string]struct{}, total)
	for _, v := range first {
		seen[v.Address] = struct{}{}
	}
	rest := make([]model.VaultRecord, 0, total-len(first))
	for _, v := range SortByVersion(slices.Concat(pages...)) {
		if _, dup := seen[v.Address]; dup {
			continue
		}
		rest = append(rest, v)
	}

	if len(rest) > 0 {
		if err := a.store.Append(ctx, rest); err != nil {
			return nil, apperrors.New(apperrors.ErrInternal, "publish remaining batch", err)
		}
	}
	a.log.Info("all batches loaded", "total", total, "count", len(first)+len(rest), "pages", remaining+1)

	return slices.Concat(first, rest), nil
}

// fetchPage returns an empty page without a request when the offset is
// past the total.
func (a *Aggregator) fetchPage(ctx context.Context, q model.QueryParam, total int) ([]model.VaultRecord, error) {
	if q.Pagination.Offset >= total {
		metrics.AggregatorPages.WithLabelValues("empty").Inc()
		return []model.VaultRecord{}, nil
	}
	page, err := a.src.GetVaultsWithPagination(ctx, q)
	if err != nil {
		metrics.AggregatorPages.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.AggregatorPages.WithLabelValues("ok").Inc()
	return page, nil
}
