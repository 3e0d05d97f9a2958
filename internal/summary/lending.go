package summary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aman-zulfiqar/onchain-intel/internal/constants"
	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

// SummarizeLending reduces borrow/deposit events plus market snapshots to a
// bounded lending digest with per-market health and per-account exposure.
func SummarizeLending(events []*models.LendingEvent, markets []*models.Market) *LendingSummary {
	s := &LendingSummary{
		Markets:       []MarketStat{},
		RiskSignals:   []RiskSignal{},
		TopBorrowers:  []AccountStat{},
		TopDepositors: []AccountStat{},
		NetExposures:  []AccountStat{},
	}

	var totalBorrow, totalDeposit float64
	accounts := make(map[string]*AccountStat)

	for _, ev := range events {
		acct := accounts[ev.Account]
		if acct == nil {
			acct = &AccountStat{Account: ev.Account}
			accounts[ev.Account] = acct
		}
		switch ev.EntityType {
		case "borrow":
			totalBorrow += ev.AmountUSD
			acct.BorrowUSD += ev.AmountUSD
		case "deposit":
			totalDeposit += ev.AmountUSD
			acct.DepositUSD += ev.AmountUSD
		}
	}

	s.Overview = LendingOverview{
		TotalBorrowUSD:       roundUSD(totalBorrow),
		TotalDepositUSD:      roundUSD(totalDeposit),
		BorrowToDepositRatio: roundRatio(safeDiv(totalBorrow, totalDeposit)),
		EventCount:           len(events),
		MarketCount:          len(markets),
	}

	for _, m := range markets {
		stat := marketStat(m)
		s.Markets = append(s.Markets, stat)

		if stat.Utilization > constants.UtilizationRiskLevel {
			s.RiskSignals = append(s.RiskSignals, RiskSignal{
				MarketID:    m.ID,
				Name:        m.Name,
				Kind:        "high_utilization",
				Detail:      fmt.Sprintf("utilization %.4f above %.2f", stat.Utilization, constants.UtilizationRiskLevel),
				Utilization: stat.Utilization,
			})
		}
		if stat.LiquidationBufferUSD < 0 {
			s.RiskSignals = append(s.RiskSignals, RiskSignal{
				MarketID:    m.ID,
				Name:        m.Name,
				Kind:        "negative_buffer",
				Detail:      fmt.Sprintf("liquidation buffer %.2f USD is negative", stat.LiquidationBufferUSD),
				Utilization: stat.Utilization,
			})
		}
	}

	sort.Slice(s.Markets, func(i, j int) bool {
		if s.Markets[i].BorrowUSD != s.Markets[j].BorrowUSD {
			return s.Markets[i].BorrowUSD > s.Markets[j].BorrowUSD
		}
		return s.Markets[i].MarketID < s.Markets[j].MarketID
	})
	sort.Slice(s.RiskSignals, func(i, j int) bool {
		if s.RiskSignals[i].Utilization != s.RiskSignals[j].Utilization {
			return s.RiskSignals[i].Utilization > s.RiskSignals[j].Utilization
		}
		return s.RiskSignals[i].MarketID < s.RiskSignals[j].MarketID
	})
	if len(s.RiskSignals) > constants.MaxRiskSignals {
		s.RiskSignals = s.RiskSignals[:constants.MaxRiskSignals]
	}

	s.TopBorrowers = rankAccounts(accounts, func(a *AccountStat) float64 { return a.BorrowUSD })
	s.TopDepositors = rankAccounts(accounts, func(a *AccountStat) float64 { return a.DepositUSD })
	s.NetExposures = netExposures(accounts)

	return s
}

// marketStat derives health numbers for one market snapshot. Velocity comes
// from the published annual variable rate when one is present, else zero.
func marketStat(m *models.Market) MarketStat {
	utilization := safeDiv(m.TotalBorrowBalanceUSD, m.TotalDepositBalanceUSD)
	buffer := m.TotalDepositBalanceUSD - m.TotalBorrowBalanceUSD

	var bufferPct float64
	if m.LiquidationThreshold > 0 {
		bufferPct = safeDiv(buffer, m.TotalDepositBalanceUSD*m.LiquidationThreshold/100)
	}

	var borrowVel, depositVel float64
	for _, r := range m.Rates {
		if !strings.EqualFold(r.Type, "VARIABLE") {
			continue
		}
		daily := r.Rate / 100 / 365
		switch strings.ToUpper(r.Side) {
		case "BORROWER":
			borrowVel = daily * m.TotalBorrowBalanceUSD
		case "LENDER":
			depositVel = daily * m.TotalDepositBalanceUSD
		}
	}

	return MarketStat{
		MarketID:                m.ID,
		Name:                    m.Name,
		Token:                   m.InputTokenSymbol,
		DepositUSD:              roundUSD(m.TotalDepositBalanceUSD),
		BorrowUSD:               roundUSD(m.TotalBorrowBalanceUSD),
		Utilization:             roundRatio(utilization),
		LiquidationBufferUSD:    roundUSD(buffer),
		BufferPctOfThreshold:    roundRatio(bufferPct),
		DailyBorrowVelocityUSD:  roundUSD(borrowVel),
		DailyDepositVelocityUSD: roundUSD(depositVel),
	}
}

func rankAccounts(accounts map[string]*AccountStat, key func(*AccountStat) float64) []AccountStat {
	out := make([]AccountStat, 0)
	for _, a := range accounts {
		if key(a) <= 0 {
			continue
		}
		out = append(out, AccountStat{
			Account:        a.Account,
			BorrowUSD:      roundUSD(a.BorrowUSD),
			DepositUSD:     roundUSD(a.DepositUSD),
			NetExposureUSD: roundUSD(a.BorrowUSD - a.DepositUSD),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := key(&out[i]), key(&out[j])
		if ki != kj {
			return ki > kj
		}
		return out[i].Account < out[j].Account
	})
	if len(out) > constants.MaxTopAccounts {
		out = out[:constants.MaxTopAccounts]
	}
	return out
}

// netExposures keeps only accounts that appear on both sides.
func netExposures(accounts map[string]*AccountStat) []AccountStat {
	out := make([]AccountStat, 0)
	for _, a := range accounts {
		if a.BorrowUSD <= 0 || a.DepositUSD <= 0 {
			continue
		}
		out = append(out, AccountStat{
			Account:        a.Account,
			BorrowUSD:      roundUSD(a.BorrowUSD),
			DepositUSD:     roundUSD(a.DepositUSD),
			NetExposureUSD: roundUSD(a.BorrowUSD - a.DepositUSD),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NetExposureUSD != out[j].NetExposureUSD {
			return out[i].NetExposureUSD > out[j].NetExposureUSD
		}
		return out[i].Account < out[j].Account
	})
	if len(out) > constants.MaxTopAccounts {
		out = out[:constants.MaxTopAccounts]
	}
	return out
}
