package service

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/GoPolymarket/vaultscope/internal/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/mod/semver"
)

const eligibleVaultType = "v2"

// baseDenyList holds vaults the registry reports as endorsed v2 but that
// are not regular deposit vaults.
var baseDenyList = []string{
	"0x9d409a0A012CFbA9B15F6D4B36Ac57A46966Ab9a", // yvBOOST
}

var bpsPerUnit = decimal.NewFromInt(10000)

// VaultFilter applies the eligibility rules and maps raw API records into
// VaultRecords.
type VaultFilter struct {
	deny model.AddressSet
	log  *slog.Logger
}

func NewVaultFilter(extraDeny []string) *VaultFilter {
	return &VaultFilter{
		deny: model.NewAddressSet(append(slices.Clone(baseDenyList), extraDeny...)...),
		log:  logger.Component("vault_filter"),
	}
}

// Eligible reports the default rule: endorsed, type v2, not a 0.2.x release
// and not deny-listed.
func (f *VaultFilter) Eligible(r model.RawVault) bool {
	if !r.Endorsed || !strings.EqualFold(r.Type, eligibleVaultType) {
		return false
	}
	if semver.MajorMinor(CanonicalVersion(r.Version)) == "v0.2" {
		return false
	}
	return !f.deny.Has(r.Address)
}

// FilterAndMap keeps records that pass Eligible or whose address is in
// allow, then maps them. Records failing validation or mapping are dropped
// and logged.
func (f *VaultFilter) FilterAndMap(raws []model.RawVault, allow model.AddressSet) []model.VaultRecord {
	out := make([]model.VaultRecord, 0, len(raws))
	for _, r := range raws {
		if err := r.Validate(); err != nil {
			f.log.Warn("dropping raw vault", "error", err)
			continue
		}
		if !f.Eligible(r) && !allow.Has(r.Address) {
			continue
		}
		v, err := MapVault(r)
		if err != nil {
			f.log.Warn("dropping raw vault", "address", r.Address, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

// MapVault converts one validated raw record.
func MapVault(r model.RawVault) (model.VaultRecord, error) {
	addr := model.NormalizeAddress(r.Address)

	totalAssets := decimal.Zero
	if ta := r.TotalAssets(); ta != nil {
		if ta.IsNegative() {
			return model.VaultRecord{}, fmt.Errorf("negative total assets %s", ta.String())
		}
		totalAssets = ta.Truncate(0)
	}

	strategies := make([]model.StrategyRecord, 0, len(r.Strategies))
	for _, s := range r.Strategies {
		strategies = append(strategies, model.StrategyRecord{
			Address:    model.NormalizeAddress(s.Address),
			Name:       s.Name,
			Vault:      addr,
			QueueIndex: -1,
			Decimals:   r.Token.Decimals,
		})
	}

	return model.VaultRecord{
		Address:           addr,
		Name:              firstNonEmpty(r.DisplayName, r.Name),
		Symbol:            r.Symbol,
		Icon:              r.Icon,
		APIVersion:        r.Version,
		Version:           r.Version,
		Type:              strings.ToLower(r.Type),
		Endorsed:          r.Endorsed,
		EmergencyShutdown: r.EmergencyShutdown,
		Token: model.Token{
			Address:  model.NormalizeAddress(r.Token.Address),
			Name:     firstNonEmpty(r.Token.DisplayName, r.Token.Name),
			Symbol:   r.Token.Symbol,
			Decimals: r.Token.Decimals,
			Icon:     r.Token.Icon,
		},
		Strategies: strategies,
		Fees: model.Fees{
			Management:  FeeToBPS(r.ManagementFee()),
			Performance: FeeToBPS(r.PerformanceFee()),
		},
		TVL: model.TVL{TotalAssets: totalAssets},
	}, nil
}

// FeeToBPS turns a fee fraction (0.002) into basis points (20). A nil
// fraction is an unknown fee.
func FeeToBPS(fraction *decimal.Decimal) model.FeeBPS {
	if fraction == nil {
		return model.UnknownFee()
	}
	return model.KnownFee(fraction.Mul(bpsPerUnit).Round(0).IntPart())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
