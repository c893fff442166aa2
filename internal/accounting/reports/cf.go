package reports

import (
	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/balances"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
)

// Cash flow activity buckets.
const (
	ActivityOperating = "operating"
	ActivityInvesting = "investing"
	ActivityFinancing = "financing"
)

// ActivityOf buckets an entry type.
func ActivityOf(t journals.EntryType) string {
	switch t {
	case journals.EntryTypeTransfer:
		return ActivityInvesting
	case journals.EntryTypeAdjustment:
		return ActivityFinancing
	default:
		return ActivityOperating
	}
}

// CashFlowLine is the cash movement of one entry type.
type CashFlowLine struct {
	EntryType string          `json:"entry_type"`
	Inflow    decimal.Decimal `json:"inflow"`
	Outflow   decimal.Decimal `json:"outflow"`
	Net       decimal.Decimal `json:"net"`
}

// CashFlowSection groups entry types of one activity.
type CashFlowSection struct {
	Label string          `json:"label"`
	Lines []CashFlowLine  `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// CashFlowStatement reports movement on cash and bank accounts.
type CashFlowStatement struct {
	Range       Range           `json:"range"`
	Operating   CashFlowSection `json:"operating"`
	Investing   CashFlowSection `json:"investing"`
	Financing   CashFlowSection `json:"financing"`
	NetCashFlow decimal.Decimal `json:"net_cash_flow"`
}

// BuildCashFlow buckets cash movements by entry type. Movements arrive
// ordered by entry type.
func BuildCashFlow(movements []balances.CashMovement) CashFlowStatement {
	out := CashFlowStatement{
		Operating: CashFlowSection{Label: ActivityOperating},
		Investing: CashFlowSection{Label: ActivityInvesting},
		Financing: CashFlowSection{Label: ActivityFinancing},
	}
	for _, m := range movements {
		line := CashFlowLine{EntryType: m.EntryType, Inflow: m.Inflow, Outflow: m.Outflow, Net: m.Inflow.Sub(m.Outflow)}
		var section *CashFlowSection
		switch ActivityOf(journals.EntryType(m.EntryType)) {
		case ActivityInvesting:
			section = &out.Investing
		case ActivityFinancing:
			section = &out.Financing
		default:
			section = &out.Operating
		}
		section.Lines = append(section.Lines, line)
		section.Total = section.Total.Add(line.Net)
	}
	out.NetCashFlow = out.Operating.Total.Add(out.Investing.Total).Add(out.Financing.Total)
	return out
}
