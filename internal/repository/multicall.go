package repository

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/GoPolymarket/vaultscope/internal/pkg/apperrors"
	"github.com/GoPolymarket/vaultscope/internal/pkg/metrics"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

const (
	rpcSource         = "rpc"
	defaultMaxQueue   = 20
	maxCallsPerBatch  = 400
	strategyDebtRatio = 2 // strategies(address) output index
	strategyTotalDebt = 6
)

const multicall3ABI = `[{"inputs":[{"components":[{"name":"target","type":"address"},{"name":"allowFailure","type":"bool"},{"name":"callData","type":"bytes"}],"name":"calls","type":"tuple[]"}],"name":"aggregate3","outputs":[{"components":[{"name":"success","type":"bool"},{"name":"returnData","type":"bytes"}],"name":"returnData","type":"tuple[]"}],"stateMutability":"payable","type":"function"}]`

const vaultV2ABI = `[
{"inputs":[],"name":"totalAssets","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"debtRatio","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"totalDebt","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"lastReport","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"depositLimit","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"arg0","type":"uint256"}],"name":"withdrawalQueue","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"arg0","type":"address"}],"name":"strategies","outputs":[
 {"name":"performanceFee","type":"uint256"},{"name":"activation","type":"uint256"},{"name":"debtRatio","type":"uint256"},
 {"name":"minDebtPerHarvest","type":"uint256"},{"name":"maxDebtPerHarvest","type":"uint256"},{"name":"lastReport","type":"uint256"},
 {"name":"totalDebt","type":"uint256"},{"name":"totalGain","type":"uint256"},{"name":"totalLoss","type":"uint256"}],
 "stateMutability":"view","type":"function"}
]`

var (
	multicallABI = mustABI(multicall3ABI)
	vaultABI     = mustABI(vaultV2ABI)
)

func mustABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("parse abi: %v", err))
	}
	return parsed
}

type call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

type call3Result struct {
	Success    bool
	ReturnData []byte
}

// contractCaller is the part of ethclient the reader needs.
type contractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// pendingRead remembers which vault field a multicall entry fills.
type pendingRead struct {
	vault    int
	method   string
	strategy int // index into the vault's strategies, for "strategies"
	queue    int // withdrawal queue position, for "withdrawalQueue"
}

// MulticallReader reads vault and strategy state through Multicall3.
type MulticallReader struct {
	rpcURL    string
	multicall common.Address
	timeout   time.Duration
	maxQueue  int

	mu     sync.Mutex
	caller contractCaller
}

func NewMulticallReader(rpcURL, multicallAddress string, timeout time.Duration, maxQueue int) *MulticallReader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxQueue <= 0 {
		maxQueue = defaultMaxQueue
	}
	return &MulticallReader{
		rpcURL:    strings.TrimSpace(rpcURL),
		multicall: common.HexToAddress(multicallAddress),
		timeout:   timeout,
		maxQueue:  maxQueue,
	}
}

func newMulticallReaderWithCaller(caller contractCaller, multicallAddress string, maxQueue int) *MulticallReader {
	r := NewMulticallReader("", multicallAddress, 0, maxQueue)
	r.caller = caller
	return r
}

// Enabled reports whether an RPC endpoint is configured.
func (r *MulticallReader) Enabled() bool {
	return r.rpcURL != "" || r.caller != nil
}

// ReadVaults returns copies of vaults with the on-chain fields filled.
// Without an RPC endpoint the input is returned as is.
func (r *MulticallReader) ReadVaults(ctx context.Context, vaults []model.VaultRecord) ([]model.VaultRecord, error) {
	if !r.Enabled() || len(vaults) == 0 {
		return vaults, nil
	}
	caller, err := r.getCaller(ctx)
	if err != nil {
		return nil, apperrors.NewSourceFailure(rpcSource, err)
	}

	calls, pending, err := r.buildCalls(vaults)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInternal, "build multicall", err)
	}

	start := time.Now()
	results := make([]call3Result, 0, len(calls))
	for lo := 0; lo < len(calls); lo += maxCallsPerBatch {
		hi := min(lo+maxCallsPerBatch, len(calls))
		batch, err := r.aggregate(ctx, caller, calls[lo:hi])
		if err != nil {
			metrics.UpstreamRequests.WithLabelValues(rpcSource, "error").Inc()
			return nil, apperrors.NewSourceFailure(rpcSource, err)
		}
		results = append(results, batch...)
	}
	metrics.UpstreamLatency.WithLabelValues(rpcSource).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequests.WithLabelValues(rpcSource, "ok").Inc()

	out := make([]model.VaultRecord, len(vaults))
	for i, v := range vaults {
		v.Strategies = append([]model.StrategyRecord(nil), v.Strategies...)
		for j := range v.Strategies {
			v.Strategies[j].QueueIndex = -1
		}
		v.OnChain = true
		out[i] = v
	}
	if err := applyResults(out, pending, results); err != nil {
		return nil, apperrors.NewSourceFailure(rpcSource, err)
	}
	return out, nil
}

func (r *MulticallReader) buildCalls(vaults []model.VaultRecord) ([]call3, []pendingRead, error) {
	var calls []call3
	var pending []pendingRead
	add := func(target common.Address, p pendingRead, args ...any) error {
		data, err := vaultABI.Pack(p.method, args...)
		if err != nil {
			return fmt.Errorf("pack %s: %w", p.method, err)
		}
		calls = append(calls, call3{Target: target, AllowFailure: true, CallData: data})
		pending = append(pending, p)
		return nil
	}

	for i, v := range vaults {
		target := common.HexToAddress(v.Address)
		for _, m := range []string{"totalAssets", "debtRatio", "totalDebt", "lastReport", "depositLimit"} {
			if err := add(target, pendingRead{vault: i, method: m}); err != nil {
				return nil, nil, err
			}
		}
		for q := 0; q < r.maxQueue; q++ {
			if err := add(target, pendingRead{vault: i, method: "withdrawalQueue", queue: q}, big.NewInt(int64(q))); err != nil {
				return nil, nil, err
			}
		}
		for j, s := range v.Strategies {
			if err := add(target, pendingRead{vault: i, method: "strategies", strategy: j}, common.HexToAddress(s.Address)); err != nil {
				return nil, nil, err
			}
		}
	}
	return calls, pending, nil
}

// applyResults writes each successful read into its vault. Failed reads
// leave the field at zero.
func applyResults(vaults []model.VaultRecord, pending []pendingRead, results []call3Result) error {
	if len(results) != len(pending) {
		return fmt.Errorf("multicall returned %d results for %d calls", len(results), len(pending))
	}
	for k, p := range pending {
		res := results[k]
		if !res.Success || len(res.ReturnData) == 0 {
			continue
		}
		values, err := vaultABI.Unpack(p.method, res.ReturnData)
		if err != nil {
			return fmt.Errorf("unpack %s: %w", p.method, err)
		}
		v := &vaults[p.vault]
		switch p.method {
		case "totalAssets":
			v.TVL.TotalAssets = bigDecimal(values[0])
		case "debtRatio":
			v.DebtRatio = bigDecimal(values[0]).IntPart()
		case "totalDebt":
			v.TotalDebt = bigDecimal(values[0])
		case "depositLimit":
			v.DepositLimit = bigDecimal(values[0])
		case "lastReport":
			if ts := bigDecimal(values[0]).IntPart(); ts > 0 {
				v.LastReport = time.Unix(ts, 0).UTC()
			}
		case "withdrawalQueue":
			addr, ok := values[0].(common.Address)
			if !ok || addr == (common.Address{}) {
				continue
			}
			for j := range v.Strategies {
				if strings.EqualFold(v.Strategies[j].Address, addr.Hex()) {
					v.Strategies[j].QueueIndex = p.queue
				}
			}
		case "strategies":
			s := &v.Strategies[p.strategy]
			s.DebtRatio = bigDecimal(values[strategyDebtRatio]).IntPart()
			s.TotalDebt = bigDecimal(values[strategyTotalDebt])
		}
	}
	return nil
}

func (r *MulticallReader) aggregate(ctx context.Context, caller contractCaller, calls []call3) ([]call3Result, error) {
	data, err := multicallABI.Pack("aggregate3", calls)
	if err != nil {
		return nil, fmt.Errorf("pack aggregate3: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	output, err := caller.CallContract(callCtx, ethereum.CallMsg{To: &r.multicall, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("rpc call failed: %w", err)
	}

	values, err := multicallABI.Unpack("aggregate3", output)
	if err != nil {
		return nil, fmt.Errorf("unpack aggregate3: %w", err)
	}
	results := *abi.ConvertType(values[0], new([]call3Result)).(*[]call3Result)
	return results, nil
}

func (r *MulticallReader) getCaller(ctx context.Context) (contractCaller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.caller != nil {
		return r.caller, nil
	}
	client, err := ethclient.DialContext(ctx, r.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect rpc: %w", err)
	}
	r.caller = client
	return r.caller, nil
}

func bigDecimal(v any) decimal.Decimal {
	b, ok := v.(*big.Int)
	if !ok || b == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(b, 0)
}
