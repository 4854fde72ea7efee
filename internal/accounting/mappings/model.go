package mappings

import (
	"strings"
	"time"
)

// Modules that post through the adapters.
const (
	ModuleSales    = "SALES"
	ModulePayments = "PAYMENTS"
)

// Keys resolved per module.
const (
	KeyReceivable = "AR"
	KeyRevenue    = "REVENUE"
	KeyVAT        = "VAT_OUTPUT"
	KeyCash       = "CASH"
)

// AccountMapping links integration keys to ledger account codes.
type AccountMapping struct {
	Module      string
	Key         string
	AccountCode string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var defaults = map[string]string{
	ModuleSales + "/" + KeyReceivable:    "1300",
	ModuleSales + "/" + KeyRevenue:       "4000",
	ModuleSales + "/" + KeyVAT:           "2410",
	ModulePayments + "/" + KeyCash:       "1000",
	ModulePayments + "/" + KeyReceivable: "1300",
}

// Default returns the built-in account code for module/key.
func Default(module, key string) (string, bool) {
	code, ok := defaults[strings.ToUpper(module)+"/"+key]
	return code, ok
}
