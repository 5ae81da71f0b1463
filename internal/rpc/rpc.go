package rpc

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
	"github.com/thirdweb-dev/treasury-snapshot/internal/metrics"
)

// EthBackend is the subset of ethclient.Client used by the balance reader.
type EthBackend interface {
	BalanceAt(ctx context.Context, account gethCommon.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

type IBalanceReader interface {
	GetNativeBalance(ctx context.Context, address string) (common.NativeBalance, error)
	GetTokenBalance(ctx context.Context, contract string, owner string) (common.TokenBalance, error)
	Close()
}

type Client struct {
	backend EthBackend
	chain   common.ChainContext
	timeout time.Duration
}

var _ IBalanceReader = (*Client)(nil)

// Dial connects to the chain's RPC endpoint. When verifyChainID is set the
// node must report the configured chain id.
func Dial(ctx context.Context, chain common.ChainContext, timeout time.Duration, verifyChainID bool) (IBalanceReader, error) {
	if chain.RPCURL == "" {
		return nil, common.NewConfigError("%s is not set", chain.RPCEnv)
	}
	log.Debug().Str("chain", chain.Name).Msg("Initializing RPC")

	dialCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	ethClient, err := ethclient.DialContext(dialCtx, chain.RPCURL)
	if err != nil {
		return nil, common.NewNetworkError(err, "failed to dial %s rpc", chain.Name)
	}

	client := NewClient(ethClient, chain, timeout)
	if verifyChainID {
		if err := client.verifyChainID(ctx); err != nil {
			client.Close()
			return nil, err
		}
	}
	return client, nil
}

func NewClient(backend EthBackend, chain common.ChainContext, timeout time.Duration) *Client {
	return &Client{
		backend: backend,
		chain:   chain,
		timeout: timeout,
	}
}

func (c *Client) Close() {
	c.backend.Close()
}

func (c *Client) verifyChainID(ctx context.Context) error {
	callCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	chainID, err := c.backend.ChainID(callCtx)
	if err != nil {
		return common.NewNetworkError(err, "failed to get %s chain ID", c.chain.Name)
	}
	if !chainID.IsUint64() || chainID.Uint64() != c.chain.ChainID {
		return common.NewConfigError("%s rpc reports chain id %s, expected %d", c.chain.Name, chainID.String(), c.chain.ChainID)
	}
	return nil
}

func (c *Client) GetNativeBalance(ctx context.Context, address string) (common.NativeBalance, error) {
	callCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	balance, err := c.backend.BalanceAt(callCtx, gethCommon.HexToAddress(address), nil)
	if err != nil {
		return common.NativeBalance{}, common.NewNetworkError(err, "eth_getBalance failed on %s", c.chain.Name)
	}
	if balance == nil || balance.Sign() < 0 {
		return common.NativeBalance{}, common.NewNetworkError(nil, "eth_getBalance returned malformed balance on %s", c.chain.Name)
	}

	return common.NativeBalance{
		Symbol:           c.chain.NativeSymbol,
		Decimals:         c.chain.NativeDecimals,
		BalanceRaw:       balance.String(),
		BalanceFormatted: common.FormatUnits(balance, c.chain.NativeDecimals),
		ExplorerURL:      c.chain.AddressURL(address),
	}, nil
}

// GetTokenBalance reads decimals and balanceOf from an ERC-20 contract. The
// symbol lookup is best-effort and never fails the read.
func (c *Client) GetTokenBalance(ctx context.Context, contract string, owner string) (common.TokenBalance, error) {
	token := gethCommon.HexToAddress(contract)
	holder := gethCommon.HexToAddress(owner)

	decimals, err := c.readDecimals(ctx, token)
	if err != nil {
		return common.TokenBalance{}, err
	}
	balance, err := c.readBalanceOf(ctx, token, holder)
	if err != nil {
		return common.TokenBalance{}, err
	}

	symbol := c.readSymbol(ctx, token)
	if symbol.Degraded {
		metrics.DegradedSymbols.WithLabelValues(c.chain.Name).Inc()
		log.Warn().Err(symbol.Cause).
			Str("chain", c.chain.Name).
			Str("contract", contract).
			Str("placeholder", symbol.Value).
			Msg("Token symbol lookup failed, using placeholder")
	}

	return common.TokenBalance{
		Address:          contract,
		Symbol:           symbol.Value,
		SymbolDegraded:   symbol.Degraded,
		Decimals:         decimals,
		BalanceRaw:       balance.String(),
		BalanceFormatted: common.FormatUnits(balance, decimals),
		ExplorerURL:      c.chain.TokenURL(contract, owner),
	}, nil
}

func (c *Client) call(ctx context.Context, to gethCommon.Address, data []byte) ([]byte, error) {
	callCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	return c.backend.CallContract(callCtx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
