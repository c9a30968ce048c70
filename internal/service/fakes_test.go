package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/GoPolymarket/vaultscope/internal/model"
)

type fakeVaultSource struct {
	raws  []model.RawVault
	err   error
	calls atomic.Int32
}

func (f *fakeVaultSource) FetchVaults(ctx context.Context) ([]model.RawVault, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return slices.Clone(f.raws), nil
}

type fakeStrategySource struct {
	byVault map[string][]model.SubgraphStrategy
	err     error
	calls   atomic.Int32
}

func (f *fakeStrategySource) StrategiesByVaults(ctx context.Context, vaults []string) (map[string][]model.SubgraphStrategy, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string][]model.SubgraphStrategy)
	for _, v := range vaults {
		if list, ok := f.byVault[v]; ok {
			out[v] = list
		}
	}
	return out, nil
}

// fakeChain marks every vault as read on-chain and puts each strategy in
// queue order with a fixed debt ratio.
type fakeChain struct {
	debtRatio int64
	err       error
}

func (f *fakeChain) ReadVaults(ctx context.Context, vaults []model.VaultRecord) ([]model.VaultRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := slices.Clone(vaults)
	for i := range out {
		out[i].OnChain = true
		for j := range out[i].Strategies {
			out[i].Strategies[j].QueueIndex = j
			out[i].Strategies[j].DebtRatio = f.debtRatio
		}
	}
	return out, nil
}

// fakePages serves a fixed vault list and records page requests.
type fakePages struct {
	vaults   []model.VaultRecord
	totalErr error
	failAt   map[int]error

	mu       sync.Mutex
	requests []model.QueryParam
}

func (f *fakePages) GetTotalVaults(ctx context.Context) (int, error) {
	if f.totalErr != nil {
		return 0, f.totalErr
	}
	return len(f.vaults), nil
}

func (f *fakePages) GetVaultsWithPagination(ctx context.Context, q model.QueryParam) ([]model.VaultRecord, error) {
	f.mu.Lock()
	f.requests = append(f.requests, q)
	f.mu.Unlock()
	if err, ok := f.failAt[q.Pagination.Offset]; ok {
		return nil, err
	}
	start, end := q.Window(len(f.vaults))
	return slices.Clone(f.vaults[start:end]), nil
}

func (f *fakePages) offsets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.requests))
	for i, q := range f.requests {
		out[i] = q.Pagination.Offset
	}
	slices.Sort(out)
	return out
}

func genVaults(n int) []model.VaultRecord {
	out := make([]model.VaultRecord, n)
	for i := range out {
		out[i] = model.VaultRecord{
			Address:    fmt.Sprintf("0x%040x", i+1),
			APIVersion: fmt.Sprintf("0.%d.0", 3+i%3),
		}
	}
	return out
}
