package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const UnknownFeeText = "unknown"

// FeeBPS is a fee in basis points. A fee the source did not report stays
// unknown and renders as "unknown" instead of 0.
type FeeBPS struct {
	Value int64
	Known bool
}

func KnownFee(bps int64) FeeBPS {
	return FeeBPS{Value: bps, Known: true}
}

func UnknownFee() FeeBPS {
	return FeeBPS{}
}

func (f FeeBPS) String() string {
	if !f.Known {
		return UnknownFeeText
	}
	return strconv.FormatInt(f.Value, 10)
}

func (f FeeBPS) MarshalJSON() ([]byte, error) {
	if !f.Known {
		return json.Marshal(UnknownFeeText)
	}
	return []byte(strconv.FormatInt(f.Value, 10)), nil
}

func (f *FeeBPS) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`"`+UnknownFeeText+`"`)) {
		*f = UnknownFee()
		return nil
	}
	v, err := strconv.ParseInt(string(bytes.Trim(data, `"`)), 10, 64)
	if err != nil {
		return err
	}
	*f = KnownFee(v)
	return nil
}

type Fees struct {
	Management  FeeBPS `json:"managementFee"`
	Performance FeeBPS `json:"performanceFee"`
}

type Token struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Icon     string `json:"icon,omitempty"`
}

// TVL amounts are integer token base units.
type TVL struct {
	TotalAssets decimal.Decimal `json:"totalAssets"`
}

// StrategyRecord only exists nested under its VaultRecord. Vault is the
// owning vault address, a relation and not ownership.
type StrategyRecord struct {
	Address    string          `json:"address"`
	Name       string          `json:"name"`
	Vault      string          `json:"vault"`
	QueueIndex int             `json:"queueIndex"` // -1 when not in the withdrawal queue
	DebtRatio  int64           `json:"debtRatio"`  // bps
	TotalDebt  decimal.Decimal `json:"totalDebt"`
	Decimals   int             `json:"decimals"`
}

func (s StrategyRecord) InQueue() bool {
	return s.QueueIndex >= 0
}

// VaultRecord is built once per fetch cycle and treated as read-only afterwards.
type VaultRecord struct {
	Address           string           `json:"address"`
	Name              string           `json:"name"`
	Symbol            string           `json:"symbol"`
	Icon              string           `json:"icon,omitempty"`
	APIVersion        string           `json:"apiVersion"`
	Version           string           `json:"version,omitempty"`
	Type              string           `json:"type"`
	Endorsed          bool             `json:"endorsed"`
	EmergencyShutdown bool             `json:"emergencyShutdown"`
	Token             Token            `json:"token"`
	Strategies        []StrategyRecord `json:"strategies"`
	Fees              Fees             `json:"fees"`
	TVL               TVL              `json:"tvl"`

	// on-chain reads, zero unless OnChain is set
	OnChain      bool            `json:"onChain"`
	DepositLimit decimal.Decimal `json:"depositLimit"`
	DebtRatio    int64           `json:"debtRatio"`
	TotalDebt    decimal.Decimal `json:"totalDebt"`
	LastReport   time.Time       `json:"lastReport,omitzero"`

	DebtUsage int64    `json:"debtUsage"`
	ConfigOK  bool     `json:"configOK"`
	Warnings  []string `json:"warnings,omitempty"`
}

func (v VaultRecord) Identity() string        { return v.Address }
func (v VaultRecord) PrimaryVersion() string  { return v.APIVersion }
func (v VaultRecord) FallbackVersion() string { return v.Version }

// Strategy returns the nested strategy with the given lowercase address.
func (v VaultRecord) Strategy(address string) (StrategyRecord, bool) {
	for _, s := range v.Strategies {
		if s.Address == address {
			return s, true
		}
	}
	return StrategyRecord{}, false
}
