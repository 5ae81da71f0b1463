package rpc

import (
	"context"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/accounts/abi"
	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
)

const erc20ABIJSON = `[
	{"constant":true,"stateMutability":"view","payable":false,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"stateMutability":"view","payable":false,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"stateMutability":"view","payable":false,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

// some early tokens (MKR, SAI) declare symbol() as bytes32
const erc20Bytes32SymbolABIJSON = `[
	{"constant":true,"stateMutability":"view","payable":false,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"bytes32"}],"type":"function"}
]`

var (
	erc20ABI        = mustParseABI(erc20ABIJSON)
	erc20Bytes32ABI = mustParseABI(erc20Bytes32SymbolABIJSON)
)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}
	return parsed
}

func (c *Client) readDecimals(ctx context.Context, token gethCommon.Address) (int, error) {
	data, err := erc20ABI.Pack("decimals")
	if err != nil {
		return 0, err
	}
	out, err := c.call(ctx, token, data)
	if err != nil {
		return 0, common.NewNetworkError(err, "decimals() failed for %s on %s", token.Hex(), c.chain.Name)
	}
	values, err := erc20ABI.Unpack("decimals", out)
	if err != nil || len(values) != 1 {
		return 0, common.NewNetworkError(err, "decimals() returned malformed data for %s on %s", token.Hex(), c.chain.Name)
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, common.NewNetworkError(nil, "decimals() returned %T for %s on %s", values[0], token.Hex(), c.chain.Name)
	}
	return int(decimals), nil
}

func (c *Client) readBalanceOf(ctx context.Context, token gethCommon.Address, holder gethCommon.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", holder)
	if err != nil {
		return nil, err
	}
	out, err := c.call(ctx, token, data)
	if err != nil {
		return nil, common.NewNetworkError(err, "balanceOf() failed for %s on %s", token.Hex(), c.chain.Name)
	}
	values, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil || len(values) != 1 {
		return nil, common.NewNetworkError(err, "balanceOf() returned malformed data for %s on %s", token.Hex(), c.chain.Name)
	}
	balance, ok := values[0].(*big.Int)
	if !ok || balance == nil {
		return nil, common.NewNetworkError(nil, "balanceOf() returned %T for %s on %s", values[0], token.Hex(), c.chain.Name)
	}
	return balance, nil
}

func (c *Client) readSymbol(ctx context.Context, token gethCommon.Address) common.SymbolResult {
	data, err := erc20ABI.Pack("symbol")
	if err != nil {
		return common.SymbolDegraded(common.PlaceholderSymbol, err)
	}
	out, err := c.call(ctx, token, data)
	if err != nil {
		return common.SymbolDegraded(common.PlaceholderSymbol, err)
	}

	if values, err := erc20ABI.Unpack("symbol", out); err == nil && len(values) == 1 {
		if symbol, ok := values[0].(string); ok {
			if symbol = strings.TrimSpace(symbol); symbol != "" && utf8.ValidString(symbol) {
				return common.SymbolOk(symbol)
			}
		}
	}

	if values, err := erc20Bytes32ABI.Unpack("symbol", out); err == nil && len(values) == 1 {
		if raw, ok := values[0].([32]byte); ok {
			symbol := strings.Trim(string(raw[:]), "\x00 \t")
			if symbol != "" && utf8.ValidString(symbol) {
				return common.SymbolOk(symbol)
			}
		}
	}

	return common.SymbolDegraded(common.PlaceholderSymbol, common.NewFormatError("symbol() returned undecodable data %x", out))
}
