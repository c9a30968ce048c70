package service

import (
	"fmt"

	"github.com/GoPolymarket/vaultscope/internal/model"
)

const maxDebtRatioBPS = 10000

// TotalDebtUsage sums the strategies' debt ratios (bps).
func TotalDebtUsage(strategies []model.StrategyRecord) int64 {
	var total int64
	for _, s := range strategies {
		total += s.DebtRatio
	}
	return total
}

// StrategyWarnings lists per-strategy configuration problems. Queue and
// debt checks need on-chain data and are skipped without it.
func StrategyWarnings(onChain bool, strategies []model.StrategyRecord) []string {
	if !onChain {
		return nil
	}
	var warnings []string
	for _, s := range strategies {
		if !s.InQueue() {
			warnings = append(warnings, fmt.Sprintf("strategy %s (%s) is not in the withdrawal queue", s.Name, s.Address))
		}
		if s.DebtRatio == 0 {
			warnings = append(warnings, fmt.Sprintf("strategy %s (%s) has a zero debt ratio", s.Name, s.Address))
		}
	}
	return warnings
}

// ApplyChecks fills DebtUsage, Warnings and ConfigOK on a copy of v.
func ApplyChecks(v model.VaultRecord) model.VaultRecord {
	v.DebtUsage = TotalDebtUsage(v.Strategies)

	var warnings []string
	if v.EmergencyShutdown {
		warnings = append(warnings, "vault is in emergency shutdown")
	}
	if !v.Fees.Management.Known {
		warnings = append(warnings, "management fee is unknown")
	}
	if !v.Fees.Performance.Known {
		warnings = append(warnings, "performance fee is unknown")
	}
	if v.DebtUsage > maxDebtRatioBPS {
		warnings = append(warnings, fmt.Sprintf("strategies debt ratio %d bps exceeds %d bps", v.DebtUsage, maxDebtRatioBPS))
	}
	warnings = append(warnings, StrategyWarnings(v.OnChain, v.Strategies)...)

	v.Warnings = warnings
	v.ConfigOK = len(warnings) == 0
	return v
}
