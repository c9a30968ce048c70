package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/GoPolymarket/vaultscope/internal/pkg/apperrors"
	"github.com/GoPolymarket/vaultscope/internal/pkg/logger"
	"github.com/GoPolymarket/vaultscope/internal/pkg/memo"
	"github.com/ethereum/go-ethereum/common"
)

// VaultSource returns the raw vault list of one REST endpoint.
type VaultSource interface {
	FetchVaults(ctx context.Context) ([]model.RawVault, error)
}

// StrategySource resolves strategy name/address pairs per vault address.
type StrategySource interface {
	StrategiesByVaults(ctx context.Context, vaults []string) (map[string][]model.SubgraphStrategy, error)
}

// ChainReader fills the on-chain fields of the given vaults and returns
// enriched copies.
type ChainReader interface {
	ReadVaults(ctx context.Context, vaults []model.VaultRecord) ([]model.VaultRecord, error)
}

type VaultServiceDeps struct {
	Main         VaultSource
	Experimental VaultSource    // optional
	Strategies   StrategySource // optional
	Chain        ChainReader    // optional
	AllowList    []string
	DenyList     []string
}

// VaultService owns the memoized entry points. Cached results live as long
// as the service, or until Reset.
type VaultService struct {
	main         VaultSource
	experimental VaultSource
	strategies   StrategySource
	chain        ChainReader
	filter       *VaultFilter
	allowList    []string
	log          *slog.Logger

	vaults             *memo.Func[[]string, []model.VaultRecord]
	pages              *memo.Func[model.QueryParam, []model.VaultRecord]
	endorsed           *memo.Func[[]string, []model.VaultRecord]
	single             *memo.Func[string, model.VaultRecord]
	strategiesByVaults *memo.Func[[]string, map[string][]model.SubgraphStrategy]
}

func NewVaultService(deps VaultServiceDeps) *VaultService {
	s := &VaultService{
		main:         deps.Main,
		experimental: deps.Experimental,
		strategies:   deps.Strategies,
		chain:        deps.Chain,
		filter:       NewVaultFilter(deps.DenyList),
		allowList:    normalizeAddresses(deps.AllowList),
		log:          logger.Component("vault_service"),
	}
	s.vaults = memo.New("vaults", s.loadVaults)
	s.pages = memo.New("vault_pages", s.loadPage)
	s.endorsed = memo.New("endorsed_vaults", s.loadEndorsed)
	s.single = memo.New("vault", s.loadVault)
	s.strategiesByVaults = memo.New("strategies_by_vaults", s.loadStrategies)
	return s
}

// Reset drops every cached result so the next call refetches.
func (s *VaultService) Reset() {
	s.vaults.Reset()
	s.pages.Reset()
	s.endorsed.Reset()
	s.single.Reset()
	s.strategiesByVaults.Reset()
}

// GetTotalVaults counts the eligible vaults, configured allow-list included.
func (s *VaultService) GetTotalVaults(ctx context.Context) (int, error) {
	vaults, err := s.vaults.Call(ctx, s.allowList)
	if err != nil {
		return 0, err
	}
	return len(vaults), nil
}

// GetVaultsWithPagination returns one enriched page of the version-sorted
// vault list. A page past the end is empty.
func (s *VaultService) GetVaultsWithPagination(ctx context.Context, q model.QueryParam) ([]model.VaultRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.pages.Call(ctx, q)
}

// GetEndorsedVaults returns every eligible vault plus the allow-listed ones,
// enriched.
func (s *VaultService) GetEndorsedVaults(ctx context.Context, allowList []string) ([]model.VaultRecord, error) {
	for _, addr := range allowList {
		if !common.IsHexAddress(addr) {
			return nil, apperrors.NewInvalidArgument("invalid vault address %q", addr)
		}
	}
	return s.endorsed.Call(ctx, s.withAllowList(allowList...))
}

func (s *VaultService) GetVault(ctx context.Context, address string) (model.VaultRecord, error) {
	if address == "" || !common.IsHexAddress(address) {
		return model.VaultRecord{}, apperrors.NewInvalidArgument("expected a valid vault address, got %q", address)
	}
	return s.single.Call(ctx, model.NormalizeAddress(address))
}

func (s *VaultService) GetStrategy(ctx context.Context, vaultAddress, strategyAddress string) (model.StrategyRecord, error) {
	if strategyAddress == "" || !common.IsHexAddress(strategyAddress) {
		return model.StrategyRecord{}, apperrors.NewInvalidArgument("expected a valid strategy address, got %q", strategyAddress)
	}
	vault, err := s.GetVault(ctx, vaultAddress)
	if err != nil {
		return model.StrategyRecord{}, err
	}
	strategy, ok := vault.Strategy(model.NormalizeAddress(strategyAddress))
	if !ok {
		return model.StrategyRecord{}, apperrors.NewNotFound("strategy %s not found in vault %s", strategyAddress, vault.Address)
	}
	return strategy, nil
}

func (s *VaultService) loadVaults(ctx context.Context, allow []string) ([]model.VaultRecord, error) {
	allowSet := model.NewAddressSet(allow...)

	raws, err := s.main.FetchVaults(ctx)
	if err != nil {
		return nil, sourceError("vaults_api", err)
	}
	payload := s.filter.FilterAndMap(raws, allowSet)

	if s.experimental != nil && vaultsAreMissing(payload, allowSet) {
		s.log.Info("fetching experimental vaults data", "requested", allowSet.Len())
		expRaws, err := s.experimental.FetchVaults(ctx)
		if err != nil {
			return nil, sourceError("experimental_api", err)
		}
		// experimental records replace main records with the same address
		payload = append(s.filter.FilterAndMap(expRaws, allowSet), payload...)
	}

	vaults := SortByVersion(payload)
	s.log.Debug("vaults loaded", "raw", len(raws), "eligible", len(vaults))
	return vaults, nil
}

func (s *VaultService) loadPage(ctx context.Context, q model.QueryParam) ([]model.VaultRecord, error) {
	all, err := s.vaults.Call(ctx, s.allowList)
	if err != nil {
		return nil, err
	}
	start, end := q.Window(len(all))
	if start == end {
		return []model.VaultRecord{}, nil
	}
	return s.enrich(ctx, all[start:end])
}

func (s *VaultService) loadEndorsed(ctx context.Context, allow []string) ([]model.VaultRecord, error) {
	all, err := s.vaults.Call(ctx, allow)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, all)
}

func (s *VaultService) loadVault(ctx context.Context, address string) (model.VaultRecord, error) {
	all, err := s.vaults.Call(ctx, s.withAllowList(address))
	if err != nil {
		return model.VaultRecord{}, err
	}
	idx := slices.IndexFunc(all, func(v model.VaultRecord) bool { return v.Address == address })
	if idx < 0 {
		return model.VaultRecord{}, apperrors.NewNotFound("vault %s not recognized", address)
	}
	enriched, err := s.enrich(ctx, all[idx:idx+1])
	if err != nil {
		return model.VaultRecord{}, err
	}
	return enriched[0], nil
}

func (s *VaultService) loadStrategies(ctx context.Context, vaults []string) (map[string][]model.SubgraphStrategy, error) {
	return s.strategies.StrategiesByVaults(ctx, vaults)
}

// enrich works on copies, the cached vault list stays untouched.
func (s *VaultService) enrich(ctx context.Context, vaults []model.VaultRecord) ([]model.VaultRecord, error) {
	out := make([]model.VaultRecord, len(vaults))
	for i, v := range vaults {
		v.Strategies = slices.Clone(v.Strategies)
		out[i] = v
	}
	if len(out) == 0 {
		return out, nil
	}

	if s.strategies != nil {
		addrs := make([]string, len(out))
		for i, v := range out {
			addrs[i] = v.Address
		}
		byVault, err := s.strategiesByVaults.Call(ctx, addrs)
		if err != nil {
			return nil, sourceError("subgraph", err)
		}
		for i := range out {
			if list, ok := byVault[out[i].Address]; ok {
				out[i].Strategies = mergeStrategies(out[i], list)
			}
		}
	}

	if s.chain != nil {
		read, err := s.chain.ReadVaults(ctx, out)
		if err != nil {
			return nil, sourceError("rpc", err)
		}
		out = read
	}

	for i := range out {
		out[i] = ApplyChecks(out[i])
	}
	return out, nil
}

// mergeStrategies takes the subgraph list as the vault's strategy set and
// keeps fields already known for matching addresses.
func mergeStrategies(v model.VaultRecord, list []model.SubgraphStrategy) []model.StrategyRecord {
	merged := make([]model.StrategyRecord, 0, len(list))
	for _, gs := range list {
		addr := model.NormalizeAddress(gs.Address)
		rec, ok := v.Strategy(addr)
		if !ok {
			rec = model.StrategyRecord{
				Address:    addr,
				Vault:      v.Address,
				QueueIndex: -1,
				Decimals:   v.Token.Decimals,
			}
		}
		if gs.Name != "" {
			rec.Name = gs.Name
		}
		merged = append(merged, rec)
	}
	return merged
}

func (s *VaultService) withAllowList(extra ...string) []string {
	return normalizeAddresses(append(slices.Clone(s.allowList), extra...))
}

func vaultsAreMissing(vaults []model.VaultRecord, allow model.AddressSet) bool {
	found := make(map[string]struct{}, len(vaults))
	for _, v := range vaults {
		found[v.Address] = struct{}{}
	}
	for addr := range allow {
		if _, ok := found[addr]; !ok {
			return true
		}
	}
	return false
}

// normalizeAddresses lowercases, dedups and sorts so that equal sets share
// one cache key.
func normalizeAddresses(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a = model.NormalizeAddress(a); a != "" {
			out = append(out, a)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func sourceError(source string, err error) error {
	if apperrors.Is(err, apperrors.ErrSourceFailure) || apperrors.Is(err, apperrors.ErrInvalidArgument) {
		return err
	}
	return apperrors.NewSourceFailure(source, err)
}
