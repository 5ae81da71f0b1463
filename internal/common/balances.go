package common

const PlaceholderSymbol = "UNKNOWN"

type NativeBalance struct {
	Symbol           string `json:"symbol"`
	Decimals         int    `json:"decimals"`
	BalanceRaw       string `json:"balanceRaw"`
	BalanceFormatted string `json:"balanceFormatted"`
	ExplorerURL      string `json:"explorerUrl"`
}

type TokenBalance struct {
	Address          string `json:"address"`
	Symbol           string `json:"symbol"`
	SymbolDegraded   bool   `json:"symbolDegraded,omitempty"`
	Decimals         int    `json:"decimals"`
	BalanceRaw       string `json:"balanceRaw"`
	BalanceFormatted string `json:"balanceFormatted"`
	ExplorerURL      string `json:"explorerUrl"`
}

// SymbolResult is the outcome of a best-effort symbol() lookup. A degraded
// result carries the placeholder and the cause so callers can log it.
type SymbolResult struct {
	Value    string
	Degraded bool
	Cause    error
}

func SymbolOk(symbol string) SymbolResult {
	return SymbolResult{Value: symbol}
}

func SymbolDegraded(placeholder string, cause error) SymbolResult {
	return SymbolResult{Value: placeholder, Degraded: true, Cause: cause}
}
