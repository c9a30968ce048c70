package model

import (
	"strings"

	"github.com/GoPolymarket/vaultscope/internal/pkg/apperrors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Raw shapes returned by the vaults REST API (/vaults/all). Optional
// numeric fields are pointers so that "absent" and "zero" stay distinct.

type RawVault struct {
	Address           string        `json:"address"`
	Symbol            string        `json:"symbol"`
	Name              string        `json:"name"`
	DisplayName       string        `json:"display_name"`
	Icon              string        `json:"icon"`
	Version           string        `json:"version"`
	Type              string        `json:"type"`
	Endorsed          bool          `json:"endorsed"`
	EmergencyShutdown bool          `json:"emergency_shutdown"`
	Token             RawToken      `json:"token"`
	TVL               *RawTVL       `json:"tvl"`
	APY               *RawAPY       `json:"apy"`
	Strategies        []RawStrategy `json:"strategies"`
}

type RawToken struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Symbol      string `json:"symbol"`
	Decimals    int    `json:"decimals"`
	Icon        string `json:"icon"`
}

type RawTVL struct {
	TotalAssets *decimal.Decimal `json:"total_assets"`
}

type RawAPY struct {
	Fees *RawFees `json:"fees"`
}

type RawFees struct {
	Management  *decimal.Decimal `json:"management"`
	Performance *decimal.Decimal `json:"performance"`
}

type RawStrategy struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Validate checks the fields the pipeline cannot do without.
func (r RawVault) Validate() error {
	if strings.TrimSpace(r.Address) == "" {
		return apperrors.NewInvalidArgument("raw vault: missing address")
	}
	if !common.IsHexAddress(r.Address) {
		return apperrors.NewInvalidArgument("raw vault: malformed address %q", r.Address)
	}
	if strings.TrimSpace(r.Type) == "" {
		return apperrors.NewInvalidArgument("raw vault %s: missing type", r.Address)
	}
	return nil
}

// ManagementFee returns nil when the source did not report the fee.
func (r RawVault) ManagementFee() *decimal.Decimal {
	if r.APY == nil || r.APY.Fees == nil {
		return nil
	}
	return r.APY.Fees.Management
}

func (r RawVault) PerformanceFee() *decimal.Decimal {
	if r.APY == nil || r.APY.Fees == nil {
		return nil
	}
	return r.APY.Fees.Performance
}

func (r RawVault) TotalAssets() *decimal.Decimal {
	if r.TVL == nil {
		return nil
	}
	return r.TVL.TotalAssets
}

// SubgraphStrategy is one strategy entry of the subgraph vaults query.
type SubgraphStrategy struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type SubgraphVault struct {
	ID         string             `json:"id"`
	Strategies []SubgraphStrategy `json:"strategies"`
}

// AddressSet is a set of lowercase hex addresses.
type AddressSet map[string]struct{}

func NewAddressSet(addrs ...string) AddressSet {
	s := make(AddressSet, len(addrs))
	for _, a := range addrs {
		a = NormalizeAddress(a)
		if a != "" {
			s[a] = struct{}{}
		}
	}
	return s
}

func (s AddressSet) Has(addr string) bool {
	_, ok := s[NormalizeAddress(addr)]
	return ok
}

func (s AddressSet) Len() int {
	return len(s)
}

func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
