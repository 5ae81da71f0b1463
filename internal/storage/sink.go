package storage

import (
	"context"

	"github.com/rs/zerolog/log"
	config "github.com/thirdweb-dev/treasury-snapshot/configs"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
	"github.com/thirdweb-dev/treasury-snapshot/internal/metrics"
)

// Sink receives the complete artifact set of a successful run.
type Sink interface {
	Name() string
	Write(ctx context.Context, artifacts []common.Artifact) error
	Close() error
}

// NewSinks builds the file sink plus every optional sink enabled in cfg.
// Sinks already opened are closed when a later one fails.
func NewSinks(ctx context.Context, cfg config.OutputConfig) ([]Sink, error) {
	sinks := []Sink{NewFileSink(cfg.Dir)}

	if cfg.S3.Enabled {
		sink, err := NewS3Sink(ctx, &cfg.S3)
		if err != nil {
			CloseAll(sinks)
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if cfg.Redis.Enabled {
		sink, err := NewRedisSink(ctx, &cfg.Redis)
		if err != nil {
			CloseAll(sinks)
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if cfg.Kafka.Enabled {
		sink, err := NewKafkaSink(ctx, &cfg.Kafka)
		if err != nil {
			CloseAll(sinks)
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	return sinks, nil
}

// WriteAll writes the artifacts to each sink and stops at the first failure.
// Local file sinks go last so a failed remote write leaves the previous local
// artifacts in place.
func WriteAll(ctx context.Context, sinks []Sink, artifacts []common.Artifact) error {
	for _, sink := range publishOrder(sinks) {
		if err := sink.Write(ctx, artifacts); err != nil {
			log.Error().Err(err).Str("sink", sink.Name()).Msg("Failed to publish artifacts")
			return err
		}
		metrics.ArtifactsPublished.WithLabelValues(sink.Name()).Add(float64(len(artifacts)))
		log.Info().Str("sink", sink.Name()).Int("artifacts", len(artifacts)).Msg("Published artifacts")
	}
	return nil
}

func CloseAll(sinks []Sink) {
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			log.Warn().Err(err).Str("sink", sink.Name()).Msg("Failed to close sink")
		}
	}
}

func publishOrder(sinks []Sink) []Sink {
	ordered := make([]Sink, 0, len(sinks))
	var local []Sink
	for _, sink := range sinks {
		if _, ok := sink.(*FileSink); ok {
			local = append(local, sink)
			continue
		}
		ordered = append(ordered, sink)
	}
	return append(ordered, local...)
}
