package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	config "github.com/thirdweb-dev/treasury-snapshot/configs"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
	"github.com/thirdweb-dev/treasury-snapshot/internal/explorer"
	"github.com/thirdweb-dev/treasury-snapshot/internal/metrics"
	"github.com/thirdweb-dev/treasury-snapshot/internal/rpc"
	"github.com/thirdweb-dev/treasury-snapshot/internal/snapshot"
	"github.com/thirdweb-dev/treasury-snapshot/internal/storage"
	"github.com/thirdweb-dev/treasury-snapshot/internal/transfers"
	"golang.org/x/sync/errgroup"
)

const IndexArtifactName = common.IndexArtifactName

// ReaderFactory opens a balance reader for one chain.
type ReaderFactory func(ctx context.Context, chain common.ChainContext) (rpc.IBalanceReader, error)

type Orchestrator struct {
	cfg           config.Config
	readerFactory ReaderFactory
	explorer      explorer.IExplorerClient
	now           func() time.Time
	sinks         []storage.Sink
	concurrency   int
}

type OrchestratorOption func(*Orchestrator)

func WithReaderFactory(factory ReaderFactory) OrchestratorOption {
	return func(o *Orchestrator) {
		o.readerFactory = factory
	}
}

func WithExplorerClient(client explorer.IExplorerClient) OrchestratorOption {
	return func(o *Orchestrator) {
		o.explorer = client
	}
}

func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func WithSinks(sinks ...storage.Sink) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sinks = sinks
	}
}

// WithConcurrency bounds how many chains are processed at once. Zero or less
// processes every chain in parallel.
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.concurrency = n
	}
}

// New builds an orchestrator over an immutable copy of cfg. The RPC and
// explorer clients default to the real network implementations.
func New(cfg config.Config, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.readerFactory == nil {
		timeout := time.Duration(cfg.RPC.Timeout) * time.Millisecond
		verify := cfg.RPC.VerifyChainID
		o.readerFactory = func(ctx context.Context, chain common.ChainContext) (rpc.IBalanceReader, error) {
			return rpc.Dial(ctx, chain, timeout, verify)
		}
	}
	if o.explorer == nil {
		timeout := time.Duration(cfg.Explorer.Timeout) * time.Millisecond
		o.explorer = explorer.NewClient(cfg.Explorer.APIURL, cfg.Explorer.APIKey, timeout)
	}
	return o
}

type chainResult struct {
	snapshot common.ChainSnapshot
	assets   snapshot.ChainAssets
}

// Run validates the configuration, collects every chain and serializes the
// artifacts. Any failure aborts the whole run and nothing is returned.
func (o *Orchestrator) Run(ctx context.Context) (*common.Artifacts, error) {
	if err := o.cfg.Validate(); err != nil {
		metrics.SnapshotRuns.WithLabelValues("failure").Inc()
		return nil, err
	}

	capturedAt := o.now().UTC()
	chains := o.cfg.ChainContexts()
	tracked := o.cfg.Treasury.Address
	log.Info().
		Str("address", tracked).
		Int("chains", len(chains)).
		Time("captured_at", capturedAt).
		Msg("Starting snapshot run")

	results := make([]chainResult, len(chains))
	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}
	for i, chain := range chains {
		g.Go(func() error {
			result, err := o.processChain(gctx, chain, tracked, capturedAt)
			if err != nil {
				log.Error().Err(err).Str("chain", chain.Name).Msg("Failed to process chain")
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.SnapshotRuns.WithLabelValues("failure").Inc()
		return nil, err
	}

	artifacts, err := assembleArtifacts(capturedAt, tracked, results)
	if err != nil {
		metrics.SnapshotRuns.WithLabelValues("failure").Inc()
		return nil, err
	}

	metrics.SnapshotRuns.WithLabelValues("success").Inc()
	metrics.LastCaptureTimestamp.Set(float64(capturedAt.Unix()))
	log.Info().Int("artifacts", len(artifacts.Documents)).Msg("Snapshot run completed")
	return artifacts, nil
}

// Publish writes a successful run to every configured sink.
func (o *Orchestrator) Publish(ctx context.Context, artifacts *common.Artifacts) error {
	if artifacts == nil {
		return fmt.Errorf("no artifacts to publish")
	}
	return storage.WriteAll(ctx, o.sinks, artifacts.Documents)
}

func (o *Orchestrator) processChain(ctx context.Context, chain common.ChainContext, tracked string, capturedAt time.Time) (chainResult, error) {
	start := time.Now()
	defer func() {
		metrics.ChainDuration.WithLabelValues(chain.Name).Observe(time.Since(start).Seconds())
	}()

	reader, err := o.readerFactory(ctx, chain)
	if err != nil {
		return chainResult{}, err
	}
	defer reader.Close()

	native, err := reader.GetNativeBalance(ctx, tracked)
	if err != nil {
		return chainResult{}, err
	}
	log.Debug().Str("chain", chain.Name).Str("balance", native.BalanceFormatted).Msg("Fetched native balance")

	pageSize := o.cfg.Explorer.PageSize
	holdings := make([]snapshot.TokenHoldings, 0, len(chain.Tokens))
	for _, token := range chain.Tokens {
		balance, err := reader.GetTokenBalance(ctx, token.Contract, tracked)
		if err != nil {
			return chainResult{}, err
		}

		events, err := o.explorer.FetchTransfers(ctx, chain.ChainID, tracked, token.Contract, 1, pageSize)
		if err != nil {
			return chainResult{}, err
		}

		records, err := transfers.Normalize(events, tracked, balance.Decimals, chain, pageSize)
		if err != nil {
			return chainResult{}, err
		}
		metrics.TransfersNormalized.WithLabelValues(chain.Name).Add(float64(len(records)))
		log.Debug().
			Str("chain", chain.Name).
			Str("contract", token.Contract).
			Str("symbol", balance.Symbol).
			Int("transfers", len(records)).
			Msg("Collected token")

		holdings = append(holdings, snapshot.TokenHoldings{Balance: balance, Transfers: records})
	}

	return chainResult{
		snapshot: snapshot.Assemble(chain, tracked, capturedAt, native, holdings),
		assets:   snapshot.Assets(chain, native, holdings),
	}, nil
}

func assembleArtifacts(capturedAt time.Time, tracked string, results []chainResult) (*common.Artifacts, error) {
	artifacts := &common.Artifacts{
		CapturedAt: capturedAt,
		Snapshots:  make([]common.ChainSnapshot, 0, len(results)),
		Documents:  make([]common.Artifact, 0, len(results)+1),
	}

	assets := make([]snapshot.ChainAssets, 0, len(results))
	for _, result := range results {
		body, err := marshalDocument(result.snapshot)
		if err != nil {
			return nil, err
		}
		artifacts.Snapshots = append(artifacts.Snapshots, result.snapshot)
		artifacts.Documents = append(artifacts.Documents, common.Artifact{
			Name: ChainArtifactName(result.snapshot.Chain),
			Body: body,
		})
		assets = append(assets, result.assets)
	}

	artifacts.Index = snapshot.BuildIndex(capturedAt, tracked, assets)
	body, err := marshalDocument(artifacts.Index)
	if err != nil {
		return nil, err
	}
	artifacts.Documents = append(artifacts.Documents, common.Artifact{Name: IndexArtifactName, Body: body})

	return artifacts, nil
}

func ChainArtifactName(chain string) string {
	return chain + ".json"
}

func marshalDocument(v interface{}) ([]byte, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal artifact: %w", err)
	}
	return append(body, '\n'), nil
}
