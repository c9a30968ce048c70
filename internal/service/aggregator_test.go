package service

import (
	"context"
	"errors"
	"testing"

	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/GoPolymarket/vaultscope/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAllFortyFiveInPagesOfThirty(t *testing.T) {
	src := &fakePages{vaults: genVaults(45)}
	store := NewMemorySnapshotStore()
	agg := NewAggregator(src, store)

	out, err := agg.FetchAll(context.Background(), 30)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 30}, src.offsets())
	for _, q := range src.requests {
		assert.Equal(t, 30, q.Pagination.Limit)
	}
	assert.Len(t, out, 45)

	seen := map[string]bool{}
	for _, v := range out {
		assert.False(t, seen[v.Address], "address %s repeated", v.Address)
		seen[v.Address] = true
	}

	// first 30 are the first page sorted on its own, the rest follow
	firstPage := SortByVersion(genVaults(45)[:30])
	assert.Equal(t, addresses(firstPage), addresses(out[:30]))

	snap, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Batches)
	assert.Equal(t, addresses(out), addresses(snap.Vaults))
}

func TestFetchAllGroupsAreNotReSorted(t *testing.T) {
	vaults := []model.VaultRecord{
		{Address: "0xa", APIVersion: "0.3.0"},
		{Address: "0xb", APIVersion: "0.4.0"},
		{Address: "0xc", APIVersion: "0.9.0"},
	}
	agg := NewAggregator(&fakePages{vaults: vaults}, nil)

	out, err := agg.FetchAll(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xb", "0xa", "0xc"}, addresses(out))
}

func TestFetchAllSinglePage(t *testing.T) {
	src := &fakePages{vaults: genVaults(10)}
	agg := NewAggregator(src, nil)

	out, err := agg.FetchAll(context.Background(), 30)
	require.NoError(t, err)
	assert.Len(t, out, 10)
	assert.Equal(t, []int{0}, src.offsets())
}

func TestFetchAllRemainingPageCount(t *testing.T) {
	src := &fakePages{vaults: genVaults(90)}
	_, err := NewAggregator(src, nil).FetchAll(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 30, 60}, src.offsets(), "exact multiple issues no extra page")

	src = &fakePages{vaults: genVaults(91)}
	_, err = NewAggregator(src, nil).FetchAll(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 30, 60, 90}, src.offsets())
}

func TestFetchAllEmptySource(t *testing.T) {
	src := &fakePages{}
	store := NewMemorySnapshotStore()
	out, err := NewAggregator(src, store).FetchAll(context.Background(), 30)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, src.offsets(), "offset 0 is already past an empty total")

	snap, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Batches, "empty first batch still published")
	assert.Empty(t, snap.Vaults)
}

func TestFetchAllEmptyCycleClearsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	src := &fakePages{vaults: genVaults(5)}
	store := NewMemorySnapshotStore()
	agg := NewAggregator(src, store)

	_, err := agg.FetchAll(ctx, 30)
	require.NoError(t, err)
	snap, err := store.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Vaults, 5)

	src.vaults = nil
	out, err := agg.FetchAll(ctx, 30)
	require.NoError(t, err)
	assert.Empty(t, out)

	snap, err = store.Latest(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Vaults, "vaults from the previous cycle are gone")
	assert.Equal(t, 1, snap.Batches)
}

func TestFetchAllPageFailureKeepsFirstBatch(t *testing.T) {
	boom := errors.New("page 2 exploded")
	src := &fakePages{vaults: genVaults(70), failAt: map[int]error{60: boom}}
	store := NewMemorySnapshotStore()

	out, err := NewAggregator(src, store).FetchAll(context.Background(), 30)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, apperrors.Is(err, apperrors.ErrAggregationFailure))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{0, 30, 60}, src.offsets(), "all remaining pages still issued")

	snap, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Vaults, 30, "first batch stays published")
	assert.Equal(t, 1, snap.Batches)
}

func TestFetchAllTotalAndFirstPageFailures(t *testing.T) {
	boom := errors.New("api down")

	_, err := NewAggregator(&fakePages{totalErr: boom}, nil).FetchAll(context.Background(), 30)
	assert.True(t, apperrors.Is(err, apperrors.ErrSourceFailure))
	assert.ErrorIs(t, err, boom)

	src := &fakePages{vaults: genVaults(40), failAt: map[int]error{0: boom}}
	_, err = NewAggregator(src, nil).FetchAll(context.Background(), 30)
	assert.True(t, apperrors.Is(err, apperrors.ErrSourceFailure))
	assert.Equal(t, []int{0}, src.offsets(), "no remaining pages after a failed first page")
}

func TestFetchAllRejectsPageSize(t *testing.T) {
	src := &fakePages{vaults: genVaults(5)}
	_, err := NewAggregator(src, nil).FetchAll(context.Background(), 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidArgument))
	assert.Empty(t, src.offsets())
}

func TestFetchAllDropsAddressesRepeatedAcrossGroups(t *testing.T) {
	vaults := genVaults(4)
	vaults[3] = model.VaultRecord{Address: vaults[0].Address, APIVersion: "9.0.0"}
	out, err := NewAggregator(&fakePages{vaults: vaults}, nil).FetchAll(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestFetchPagePastTotalIsEmpty(t *testing.T) {
	src := &fakePages{vaults: genVaults(5)}
	agg := NewAggregator(src, nil)

	page, err := agg.fetchPage(context.Background(), model.ToQueryParam(5, 30), 5)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Empty(t, src.offsets())
}
