package service

import (
	"encoding/json"
	"testing"

	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	addrYFI  = "0xdb25cA703181E7484a155DD612b06f57E12Be5F0"
	addrDAI  = "0xdA816459F1AB5631232FE5e97a05BBBb94970c95"
	addrUSDC = "0x5f18C75AbDAe578b483E5F43f12a39cF75b973a9"
	addrWETH = "0xa258C4606Ca8206D8aA700cE2143D7db854D168c"
	addrOld  = "0x19D3364A399d251E894aC732651be8B0E4e85001"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func rawVault(addr, version string, endorsed bool) model.RawVault {
	return model.RawVault{
		Address:     addr,
		DisplayName: "yv" + addr[2:6],
		Version:     version,
		Type:        "v2",
		Endorsed:    endorsed,
		APY: &model.RawAPY{Fees: &model.RawFees{
			Management:  dec("0.02"),
			Performance: dec("0.2"),
		}},
		TVL: &model.RawTVL{TotalAssets: dec("1000000000000000000")},
	}
}

func TestEligibility(t *testing.T) {
	f := NewVaultFilter(nil)

	assert.True(t, f.Eligible(rawVault(addrDAI, "0.4.3", true)))
	assert.False(t, f.Eligible(rawVault(addrDAI, "0.4.3", false)), "not endorsed")
	assert.False(t, f.Eligible(rawVault(addrDAI, "0.2.2", true)), "0.2.x release")

	v1 := rawVault(addrDAI, "0.4.3", true)
	v1.Type = "v1"
	assert.False(t, f.Eligible(v1), "wrong type")

	upper := rawVault(addrDAI, "0.4.3", true)
	upper.Type = "V2"
	assert.True(t, f.Eligible(upper), "type compared case-insensitively")

	assert.False(t, f.Eligible(rawVault("0x9d409a0A012CFbA9B15F6D4B36Ac57A46966Ab9a", "0.3.0", true)), "built-in deny-list")
	assert.False(t, NewVaultFilter([]string{addrUSDC}).Eligible(rawVault(addrUSDC, "0.4.3", true)), "configured deny-list")
}

func TestFilterAndMapAllowList(t *testing.T) {
	f := NewVaultFilter(nil)
	raws := []model.RawVault{
		rawVault(addrDAI, "0.4.3", true),
		rawVault(addrUSDC, "0.4.2", false),
	}

	out := f.FilterAndMap(raws, model.NewAddressSet())
	require.Len(t, out, 1)
	assert.Equal(t, model.NormalizeAddress(addrDAI), out[0].Address)

	out = f.FilterAndMap(raws, model.NewAddressSet(addrUSDC))
	require.Len(t, out, 2)
	assert.Equal(t, model.NormalizeAddress(addrUSDC), out[1].Address)
	assert.False(t, out[1].Endorsed)
}

func TestFilterAndMapDropsInvalidRecords(t *testing.T) {
	f := NewVaultFilter(nil)
	missing := rawVault(addrDAI, "0.4.3", true)
	missing.Address = ""
	negative := rawVault(addrUSDC, "0.4.3", true)
	negative.TVL = &model.RawTVL{TotalAssets: dec("-5")}

	out := f.FilterAndMap([]model.RawVault{missing, negative, rawVault(addrYFI, "0.4.3", true)}, nil)
	require.Len(t, out, 1)
	assert.Equal(t, model.NormalizeAddress(addrYFI), out[0].Address)
}

func TestMapVaultFields(t *testing.T) {
	r := rawVault(addrDAI, "0.4.3", true)
	r.Name = "raw name"
	r.EmergencyShutdown = true
	r.APY.Fees.Management = dec("0.002")
	r.TVL.TotalAssets = dec("123456789012345678901234567890.999")
	r.Token = model.RawToken{Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Symbol: "DAI", DisplayName: "Dai", Decimals: 18}
	r.Strategies = []model.RawStrategy{{Address: "0xAbC0000000000000000000000000000000000001", Name: "StrategyLender"}}

	v, err := MapVault(r)
	require.NoError(t, err)

	assert.Equal(t, "yvdA81", v.Name, "display name wins over name")
	assert.Equal(t, "0.4.3", v.APIVersion)
	assert.True(t, v.EmergencyShutdown)
	assert.Equal(t, model.KnownFee(20), v.Fees.Management)
	assert.Equal(t, model.KnownFee(2000), v.Fees.Performance)
	assert.Equal(t, "123456789012345678901234567890", v.TVL.TotalAssets.String())
	assert.Equal(t, "0x6b175474e89094c44da98b954eedeac495271d0f", v.Token.Address)
	assert.Equal(t, "Dai", v.Token.Name)

	require.Len(t, v.Strategies, 1)
	s := v.Strategies[0]
	assert.Equal(t, "0xabc0000000000000000000000000000000000001", s.Address)
	assert.Equal(t, v.Address, s.Vault)
	assert.Equal(t, -1, s.QueueIndex)
	assert.Equal(t, 18, s.Decimals)
}

func TestMapVaultUnknownFees(t *testing.T) {
	r := rawVault(addrDAI, "0.4.3", true)
	r.APY = nil
	r.TVL = nil

	v, err := MapVault(r)
	require.NoError(t, err)
	assert.Equal(t, model.UnknownFee(), v.Fees.Management)
	assert.Equal(t, model.UnknownFee(), v.Fees.Performance)
	assert.True(t, v.TVL.TotalAssets.IsZero())

	out, err := json.Marshal(v.Fees)
	require.NoError(t, err)
	assert.JSONEq(t, `{"managementFee":"unknown","performanceFee":"unknown"}`, string(out))
}

func TestFeeToBPS(t *testing.T) {
	assert.Equal(t, model.KnownFee(20), FeeToBPS(dec("0.002")))
	assert.Equal(t, model.KnownFee(0), FeeToBPS(dec("0")))
	assert.Equal(t, model.KnownFee(1000), FeeToBPS(dec("0.1")))
	assert.Equal(t, model.UnknownFee(), FeeToBPS(nil))
}
