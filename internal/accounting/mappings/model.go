package mappings

import (
	"strings"
	"time"
)

// Modules that resolve accounts through mappings.
const (
	ModulePayment = "PAYMENT"
	ModuleExpense = "EXPENSE"
)

// Keys of the payment module.
const (
	KeyBank        = "bank"
	KeyReceivables = "receivables"
	KeyPayables    = "payables"
	KeyDefault     = "default"
)

// AccountMapping links integration keys to ledger account codes.
type AccountMapping struct {
	OrganizationID int64     `json:"organization_id"`
	Module         string    `json:"module"`
	Key            string    `json:"key"`
	AccountCode    string    `json:"account_code"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Defaults apply when an organization has no explicit mapping row.
var Defaults = map[string]map[string]string{
	ModulePayment: {
		KeyBank:        "51",
		KeyReceivables: "62",
		KeyPayables:    "60",
	},
	ModuleExpense: {
		"materials":      "20",
		"labor":          "20",
		"subcontract":    "20",
		"equipment":      "20",
		"transport":      "26",
		"overhead":       "26",
		"administrative": "26",
		"marketing":      "44",
		KeyDefault:       "26",
	},
}

func normalize(module, key string) (string, string) {
	return strings.ToUpper(strings.TrimSpace(module)), strings.ToLower(strings.TrimSpace(key))
}
