package snapshot

import (
	"fmt"
	"time"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
)

// TokenHoldings is everything collected for one configured token.
type TokenHoldings struct {
	Balance   common.TokenBalance
	Transfers []common.TransferRecord
}

// ChainAssets lists the symbols reported for a chain, native first.
type ChainAssets struct {
	Chain   string
	Symbols []string
}

// Assemble composes the snapshot of one chain. capturedAt is shared by every
// chain of a run and is never recomputed here.
func Assemble(chain common.ChainContext, tracked string, capturedAt time.Time, native common.NativeBalance, holdings []TokenHoldings) common.ChainSnapshot {
	keys := SymbolKeys(holdings)

	tokens := make(map[string]common.TokenBalance, len(holdings))
	transfers := make(map[string][]common.TransferRecord, len(holdings))
	for i, h := range holdings {
		tokens[keys[i]] = h.Balance
		records := h.Transfers
		if records == nil {
			records = []common.TransferRecord{}
		}
		transfers[keys[i]] = records
	}

	return common.ChainSnapshot{
		Chain:           chain.Name,
		ChainID:         chain.ChainID,
		TreasuryAddress: checksum(tracked),
		GeneratedAt:     common.FormatTimestamp(capturedAt),
		Native:          native,
		Tokens:          tokens,
		RecentTransfers: transfers,
		Sources: common.Sources{
			RPC:      chain.RPCEnv,
			Explorer: chain.ExplorerAPIURL,
		},
	}
}

// SymbolKeys returns the map key for each token in order. When a symbol was
// already taken by an earlier token the later one is keyed <symbol>:<contract>.
func SymbolKeys(holdings []TokenHoldings) []string {
	keys := make([]string, len(holdings))
	taken := make(map[string]bool, len(holdings))
	for i, h := range holdings {
		key := h.Balance.Symbol
		if taken[key] {
			key = fmt.Sprintf("%s:%s", h.Balance.Symbol, h.Balance.Address)
		}
		taken[key] = true
		keys[i] = key
	}
	return keys
}

// Assets lists the native symbol followed by the token keys in configuration
// order.
func Assets(chain common.ChainContext, native common.NativeBalance, holdings []TokenHoldings) ChainAssets {
	symbols := make([]string, 0, len(holdings)+1)
	symbols = append(symbols, native.Symbol)
	symbols = append(symbols, SymbolKeys(holdings)...)
	return ChainAssets{Chain: chain.Name, Symbols: symbols}
}

func BuildIndex(capturedAt time.Time, tracked string, chains []ChainAssets) common.SnapshotIndex {
	assets := make(map[string][]string, len(chains))
	for _, c := range chains {
		assets[c.Chain] = c.Symbols
	}
	return common.SnapshotIndex{
		GeneratedAt: common.FormatTimestamp(capturedAt),
		Address:     checksum(tracked),
		Assets:      assets,
	}
}

func checksum(address string) string {
	if !gethCommon.IsHexAddress(address) {
		return address
	}
	return gethCommon.HexToAddress(address).Hex()
}
