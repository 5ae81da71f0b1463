package rpc

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
	"github.com/thirdweb-dev/treasury-snapshot/test/mocks"
)

const (
	treasury = "0x000000000000000000000000000000000000dEaD"
	usdc     = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
)

var testChain = common.ChainContext{
	Name:           "ethereum",
	ChainID:        1,
	RPCEnv:         "ETH_RPC_URL",
	ExplorerURL:    "https://etherscan.io",
	NativeSymbol:   "ETH",
	NativeDecimals: 18,
}

func selector(t *testing.T, method string) []byte {
	m, ok := erc20ABI.Methods[method]
	require.True(t, ok)
	return m.ID
}

func callTo(t *testing.T, method string) interface{} {
	sel := selector(t, method)
	return mock.MatchedBy(func(msg ethereum.CallMsg) bool {
		return msg.To != nil && *msg.To == gethCommon.HexToAddress(usdc) && bytes.HasPrefix(msg.Data, sel)
	})
}

func packReturn(t *testing.T, method string, values ...interface{}) []byte {
	t.Helper()
	out, err := erc20ABI.Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	return out
}

func TestGetNativeBalance(t *testing.T) {
	backend := mocks.NewMockEthBackend(t)
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	backend.On("BalanceAt", mock.Anything, gethCommon.HexToAddress(treasury), (*big.Int)(nil)).Return(wei, nil)

	client := NewClient(backend, testChain, time.Second)
	native, err := client.GetNativeBalance(context.Background(), treasury)
	require.NoError(t, err)

	assert.Equal(t, "ETH", native.Symbol)
	assert.Equal(t, 18, native.Decimals)
	assert.Equal(t, "1500000000000000000", native.BalanceRaw)
	assert.Equal(t, "1.5", native.BalanceFormatted)
	assert.Equal(t, "https://etherscan.io/address/"+treasury, native.ExplorerURL)
}

func TestGetNativeBalanceNetworkError(t *testing.T) {
	backend := mocks.NewMockEthBackend(t)
	backend.On("BalanceAt", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	client := NewClient(backend, testChain, time.Second)
	_, err := client.GetNativeBalance(context.Background(), treasury)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNetwork))
}

func TestGetTokenBalance(t *testing.T) {
	backend := mocks.NewMockEthBackend(t)
	backend.On("CallContract", mock.Anything, callTo(t, "decimals"), (*big.Int)(nil)).Return(packReturn(t, "decimals", uint8(6)), nil)
	backend.On("CallContract", mock.Anything, callTo(t, "balanceOf"), (*big.Int)(nil)).Return(packReturn(t, "balanceOf", big.NewInt(1500000)), nil)
	backend.On("CallContract", mock.Anything, callTo(t, "symbol"), (*big.Int)(nil)).Return(packReturn(t, "symbol", "USDC"), nil)

	client := NewClient(backend, testChain, time.Second)
	token, err := client.GetTokenBalance(context.Background(), usdc, treasury)
	require.NoError(t, err)

	assert.Equal(t, usdc, token.Address)
	assert.Equal(t, "USDC", token.Symbol)
	assert.False(t, token.SymbolDegraded)
	assert.Equal(t, 6, token.Decimals)
	assert.Equal(t, "1500000", token.BalanceRaw)
	assert.Equal(t, "1.5", token.BalanceFormatted)
	assert.Equal(t, "https://etherscan.io/token/"+usdc+"?a="+treasury, token.ExplorerURL)
}

func TestGetTokenBalanceSymbolRevertIsDegraded(t *testing.T) {
	backend := mocks.NewMockEthBackend(t)
	backend.On("CallContract", mock.Anything, callTo(t, "decimals"), mock.Anything).Return(packReturn(t, "decimals", uint8(6)), nil)
	backend.On("CallContract", mock.Anything, callTo(t, "balanceOf"), mock.Anything).Return(packReturn(t, "balanceOf", big.NewInt(2000000)), nil)
	backend.On("CallContract", mock.Anything, callTo(t, "symbol"), mock.Anything).Return(nil, errors.New("execution reverted"))

	client := NewClient(backend, testChain, time.Second)
	token, err := client.GetTokenBalance(context.Background(), usdc, treasury)
	require.NoError(t, err)

	assert.Equal(t, common.PlaceholderSymbol, token.Symbol)
	assert.True(t, token.SymbolDegraded)
	assert.Equal(t, 6, token.Decimals)
	assert.Equal(t, "2000000", token.BalanceRaw)
	assert.Equal(t, "2", token.BalanceFormatted)
}

func TestGetTokenBalanceBytes32Symbol(t *testing.T) {
	var raw [32]byte
	copy(raw[:], "MKR")
	out, err := erc20Bytes32ABI.Methods["symbol"].Outputs.Pack(raw)
	require.NoError(t, err)

	backend := mocks.NewMockEthBackend(t)
	backend.On("CallContract", mock.Anything, callTo(t, "decimals"), mock.Anything).Return(packReturn(t, "decimals", uint8(18)), nil)
	backend.On("CallContract", mock.Anything, callTo(t, "balanceOf"), mock.Anything).Return(packReturn(t, "balanceOf", big.NewInt(0)), nil)
	backend.On("CallContract", mock.Anything, callTo(t, "symbol"), mock.Anything).Return(out, nil)

	client := NewClient(backend, testChain, time.Second)
	token, err := client.GetTokenBalance(context.Background(), usdc, treasury)
	require.NoError(t, err)

	assert.Equal(t, "MKR", token.Symbol)
	assert.False(t, token.SymbolDegraded)
	assert.Equal(t, "0", token.BalanceFormatted)
}

func TestGetTokenBalanceDecimalsFailureIsFatal(t *testing.T) {
	backend := mocks.NewMockEthBackend(t)
	backend.On("CallContract", mock.Anything, callTo(t, "decimals"), mock.Anything).Return(nil, errors.New("execution reverted"))

	client := NewClient(backend, testChain, time.Second)
	_, err := client.GetTokenBalance(context.Background(), usdc, treasury)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNetwork))
	backend.AssertNotCalled(t, "CallContract", mock.Anything, callTo(t, "balanceOf"), mock.Anything)
}

func TestGetTokenBalanceMalformedBalanceIsFatal(t *testing.T) {
	backend := mocks.NewMockEthBackend(t)
	backend.On("CallContract", mock.Anything, callTo(t, "decimals"), mock.Anything).Return(packReturn(t, "decimals", uint8(6)), nil)
	backend.On("CallContract", mock.Anything, callTo(t, "balanceOf"), mock.Anything).Return([]byte{}, nil)

	client := NewClient(backend, testChain, time.Second)
	_, err := client.GetTokenBalance(context.Background(), usdc, treasury)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNetwork))
}

func TestVerifyChainIDMismatch(t *testing.T) {
	backend := mocks.NewMockEthBackend(t)
	backend.On("ChainID", mock.Anything).Return(big.NewInt(8453), nil)

	client := NewClient(backend, testChain, time.Second)
	err := client.verifyChainID(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfig))
}

func TestDialWithoutURLIsConfigError(t *testing.T) {
	_, err := Dial(context.Background(), testChain, time.Second, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfig))
}
