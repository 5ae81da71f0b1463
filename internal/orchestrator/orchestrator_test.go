package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	config "github.com/thirdweb-dev/treasury-snapshot/configs"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
	"github.com/thirdweb-dev/treasury-snapshot/internal/rpc"
	"github.com/thirdweb-dev/treasury-snapshot/test/mocks"
)

const (
	treasury = "0x000000000000000000000000000000000000dEaD"
	ethUSDC  = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	baseUSDC = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	outside  = "0xdef0000000000000000000000000000000000002"
)

var (
	capturedAt     = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	nativeDecimals = 18
)

func testConfig(env map[string]string) config.Config {
	cfg := config.Config{
		Treasury: config.TreasuryConfig{Address: treasury},
		Explorer: config.ExplorerConfig{APIURL: "https://api.etherscan.io/v2/api"},
		Chains: []config.ChainConfig{
			{
				Name:           "ethereum",
				ChainID:        1,
				RPCEnv:         "ETH_RPC_URL",
				ExplorerURL:    "https://etherscan.io",
				NativeSymbol:   "ETH",
				NativeDecimals: &nativeDecimals,
				Tokens:         []config.TokenConfig{{Contract: ethUSDC}},
			},
			{
				Name:           "base",
				ChainID:        8453,
				RPCEnv:         "BASE_RPC_URL",
				ExplorerURL:    "https://basescan.org",
				NativeSymbol:   "ETH",
				NativeDecimals: &nativeDecimals,
				Tokens:         []config.TokenConfig{{Contract: baseUSDC}},
			},
		},
	}
	cfg.ResolveEnv(func(key string) string { return env[key] })
	return cfg
}

func fullEnv() map[string]string {
	return map[string]string{
		"ETH_RPC_URL":       "https://eth.example",
		"BASE_RPC_URL":      "https://base.example",
		"ETHERSCAN_API_KEY": "key",
	}
}

type fixture struct {
	readers  map[string]*mocks.MockIBalanceReader
	explorer *mocks.MockIExplorerClient
	mu       sync.Mutex
	dialed   []string
}

func (f *fixture) factory(ctx context.Context, chain common.ChainContext) (rpc.IBalanceReader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialed = append(f.dialed, chain.Name)
	return f.readers[chain.Name], nil
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		readers: map[string]*mocks.MockIBalanceReader{
			"ethereum": mocks.NewMockIBalanceReader(t),
			"base":     mocks.NewMockIBalanceReader(t),
		},
		explorer: mocks.NewMockIExplorerClient(t),
	}
}

// expectHappyPath wires both chains with a USDC balance of 1.5 and one
// outgoing transfer each.
func (f *fixture) expectHappyPath() {
	for name, contract := range map[string]string{"ethereum": ethUSDC, "base": baseUSDC} {
		reader := f.readers[name]
		reader.On("GetNativeBalance", mock.Anything, treasury).Return(common.NativeBalance{
			Symbol:           "ETH",
			Decimals:         18,
			BalanceRaw:       "2500000000000000000",
			BalanceFormatted: "2.5",
			ExplorerURL:      "https://example/address/" + treasury,
		}, nil)
		reader.On("GetTokenBalance", mock.Anything, contract, treasury).Return(common.TokenBalance{
			Address:          contract,
			Symbol:           "USDC",
			Decimals:         6,
			BalanceRaw:       "1500000",
			BalanceFormatted: "1.5",
		}, nil)
		reader.On("Close").Return()
	}

	f.explorer.On("FetchTransfers", mock.Anything, uint64(1), treasury, ethUSDC, 1, config.DefaultPageSize).
		Return([]common.RawTransferEvent{{Hash: "0xaaa", TimeStamp: 1700000000, From: treasury, To: outside, Value: "2000000"}}, nil)
	f.explorer.On("FetchTransfers", mock.Anything, uint64(8453), treasury, baseUSDC, 1, config.DefaultPageSize).
		Return([]common.RawTransferEvent{}, nil)
}

func (f *fixture) orchestrator(cfg config.Config, opts ...OrchestratorOption) *Orchestrator {
	base := []OrchestratorOption{
		WithReaderFactory(f.factory),
		WithExplorerClient(f.explorer),
		WithClock(func() time.Time { return capturedAt }),
	}
	return New(cfg, append(base, opts...)...)
}

func TestRunProducesChainAndIndexArtifacts(t *testing.T) {
	f := newFixture(t)
	f.expectHappyPath()

	artifacts, err := f.orchestrator(testConfig(fullEnv())).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, artifacts.Documents, 3)
	assert.Equal(t, "ethereum.json", artifacts.Documents[0].Name)
	assert.Equal(t, "base.json", artifacts.Documents[1].Name)
	assert.Equal(t, "index.json", artifacts.Documents[2].Name)
	for _, doc := range artifacts.Documents {
		assert.Equal(t, byte('\n'), doc.Body[len(doc.Body)-1])
	}

	var eth common.ChainSnapshot
	require.NoError(t, json.Unmarshal(artifacts.Documents[0].Body, &eth))
	assert.Equal(t, "2024-05-01T12:00:00.000Z", eth.GeneratedAt)
	assert.Equal(t, "1.5", eth.Tokens["USDC"].BalanceFormatted)
	require.Len(t, eth.RecentTransfers["USDC"], 1)
	transfer := eth.RecentTransfers["USDC"][0]
	assert.Equal(t, common.DirectionOut, transfer.Direction)
	assert.Equal(t, "2", transfer.AmountFormatted)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", transfer.Timestamp)
	assert.Equal(t, "https://etherscan.io/tx/0xaaa", transfer.ExplorerURL)
	assert.Equal(t, common.Sources{RPC: "ETH_RPC_URL", Explorer: "https://api.etherscan.io/v2/api"}, eth.Sources)

	var index common.SnapshotIndex
	require.NoError(t, json.Unmarshal(artifacts.Documents[2].Body, &index))
	assert.Equal(t, treasury, index.Address)
	assert.Equal(t, []string{"ETH", "USDC"}, index.Assets["ethereum"])
	assert.Equal(t, []string{"ETH", "USDC"}, index.Assets["base"])

	assert.Equal(t, eth.GeneratedAt, index.GeneratedAt)
	assert.Equal(t, artifacts.Snapshots[1].GeneratedAt, index.GeneratedAt)
}

func TestRunMissingRPCURLFailsBeforeAnyCall(t *testing.T) {
	f := newFixture(t)
	env := fullEnv()
	delete(env, "ETH_RPC_URL")

	artifacts, err := f.orchestrator(testConfig(env)).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, artifacts)
	assert.True(t, errors.Is(err, common.ErrConfig))
	assert.Contains(t, err.Error(), "ETH_RPC_URL")
	assert.Empty(t, f.dialed)
	f.explorer.AssertNotCalled(t, "FetchTransfers", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunMissingAPIKeyFailsBeforeAnyCall(t *testing.T) {
	f := newFixture(t)
	env := fullEnv()
	delete(env, "ETHERSCAN_API_KEY")

	_, err := f.orchestrator(testConfig(env)).Run(context.Background())
	assert.True(t, errors.Is(err, common.ErrConfig))
	assert.Empty(t, f.dialed)
}

var generatedAt = regexp.MustCompile(`"generatedAt": "[^"]*"`)

func TestRunIsIdempotentExceptCaptureTime(t *testing.T) {
	f := newFixture(t)
	f.expectHappyPath()
	cfg := testConfig(fullEnv())

	first, err := f.orchestrator(cfg).Run(context.Background())
	require.NoError(t, err)
	later := capturedAt.Add(time.Hour)
	second, err := f.orchestrator(cfg, WithClock(func() time.Time { return later })).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, second.Documents, len(first.Documents))
	for i := range first.Documents {
		assert.NotEqual(t, first.Documents[i].Body, second.Documents[i].Body)
		a := generatedAt.ReplaceAll(first.Documents[i].Body, nil)
		b := generatedAt.ReplaceAll(second.Documents[i].Body, nil)
		assert.Equal(t, string(a), string(b), first.Documents[i].Name)
	}
}

func TestRunSequentialMatchesConcurrent(t *testing.T) {
	f := newFixture(t)
	f.expectHappyPath()
	cfg := testConfig(fullEnv())

	concurrent, err := f.orchestrator(cfg).Run(context.Background())
	require.NoError(t, err)
	sequential, err := f.orchestrator(cfg, WithConcurrency(1)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, concurrent.Documents, sequential.Documents)
}

func TestRunFailsFastOnExplorerError(t *testing.T) {
	f := newFixture(t)
	eth := f.readers["ethereum"]
	eth.On("GetNativeBalance", mock.Anything, treasury).Return(common.NativeBalance{Symbol: "ETH"}, nil)
	eth.On("GetTokenBalance", mock.Anything, ethUSDC, treasury).Return(common.TokenBalance{Symbol: "USDC", Decimals: 6}, nil)
	eth.On("Close").Return()
	f.explorer.On("FetchTransfers", mock.Anything, uint64(1), treasury, ethUSDC, 1, config.DefaultPageSize).
		Return(nil, common.NewAPIError("0", "NOTOK", "Invalid API Key"))

	base := f.readers["base"]
	base.On("GetNativeBalance", mock.Anything, treasury).Return(common.NativeBalance{Symbol: "ETH"}, nil).Maybe()
	base.On("GetTokenBalance", mock.Anything, baseUSDC, treasury).Return(common.TokenBalance{Symbol: "USDC", Decimals: 6}, nil).Maybe()
	base.On("Close").Return().Maybe()
	f.explorer.On("FetchTransfers", mock.Anything, uint64(8453), treasury, baseUSDC, 1, config.DefaultPageSize).
		Return([]common.RawTransferEvent{}, nil).Maybe()

	sink := &recordingSink{}
	o := f.orchestrator(testConfig(fullEnv()), WithSinks(sink))
	artifacts, err := o.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrAPI))
	assert.Nil(t, artifacts)

	assert.Error(t, o.Publish(context.Background(), artifacts))
	assert.Empty(t, sink.written)
}

func TestRunFailsOnNetworkError(t *testing.T) {
	f := newFixture(t)
	eth := f.readers["ethereum"]
	eth.On("GetNativeBalance", mock.Anything, treasury).
		Return(common.NativeBalance{}, common.NewNetworkError(errors.New("connection refused"), "eth_getBalance failed on ethereum"))
	eth.On("Close").Return()

	base := f.readers["base"]
	base.On("GetNativeBalance", mock.Anything, treasury).Return(common.NativeBalance{Symbol: "ETH"}, nil).Maybe()
	base.On("GetTokenBalance", mock.Anything, baseUSDC, treasury).Return(common.TokenBalance{Symbol: "USDC", Decimals: 6}, nil).Maybe()
	base.On("Close").Return().Maybe()
	f.explorer.On("FetchTransfers", mock.Anything, uint64(8453), treasury, baseUSDC, 1, config.DefaultPageSize).
		Return([]common.RawTransferEvent{}, nil).Maybe()

	_, err := f.orchestrator(testConfig(fullEnv())).Run(context.Background())
	assert.True(t, errors.Is(err, common.ErrNetwork))
}

func TestRunKeepsDegradedSymbol(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig(fullEnv())
	cfg.Chains = cfg.Chains[:1]

	reader := f.readers["ethereum"]
	reader.On("GetNativeBalance", mock.Anything, treasury).Return(common.NativeBalance{Symbol: "ETH"}, nil)
	reader.On("GetTokenBalance", mock.Anything, ethUSDC, treasury).Return(common.TokenBalance{
		Address:          ethUSDC,
		Symbol:           common.PlaceholderSymbol,
		SymbolDegraded:   true,
		Decimals:         6,
		BalanceRaw:       "1500000",
		BalanceFormatted: "1.5",
	}, nil)
	reader.On("Close").Return()
	f.explorer.On("FetchTransfers", mock.Anything, uint64(1), treasury, ethUSDC, 1, config.DefaultPageSize).
		Return([]common.RawTransferEvent{}, nil)

	artifacts, err := f.orchestrator(cfg).Run(context.Background())
	require.NoError(t, err)

	token := artifacts.Snapshots[0].Tokens[common.PlaceholderSymbol]
	assert.True(t, token.SymbolDegraded)
	assert.Equal(t, "1.5", token.BalanceFormatted)
	assert.Equal(t, []string{"ETH", common.PlaceholderSymbol}, artifacts.Index.Assets["ethereum"])
}

func TestPublishWritesAllDocuments(t *testing.T) {
	f := newFixture(t)
	f.expectHappyPath()
	sink := &recordingSink{}
	o := f.orchestrator(testConfig(fullEnv()), WithSinks(sink))

	artifacts, err := o.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.Publish(context.Background(), artifacts))

	require.Len(t, sink.written, 1)
	assert.Equal(t, artifacts.Documents, sink.written[0])
}

type recordingSink struct {
	written [][]common.Artifact
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Write(ctx context.Context, artifacts []common.Artifact) error {
	r.written = append(r.written, artifacts)
	return nil
}

func (r *recordingSink) Close() error { return nil }
