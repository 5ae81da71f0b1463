package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	configs "github.com/thirdweb-dev/treasury-snapshot/configs"
	"github.com/thirdweb-dev/treasury-snapshot/internal/env"
	customLogger "github.com/thirdweb-dev/treasury-snapshot/internal/log"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "treasury-snapshot",
		Short: "Point-in-time treasury balances and transfer history across EVM chains",
		Long: "treasury-snapshot reads native and ERC-20 balances of one treasury address over RPC, " +
			"pulls recent token transfers from an Etherscan-compatible explorer and publishes " +
			"one JSON snapshot per chain plus an index.",
		Run: func(cmd *cobra.Command, args []string) {
			RunSnapshot(cmd, args)
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level to use for the application")
	rootCmd.PersistentFlags().Bool("log-prettify", false, "Whether to prettify the log output")
	rootCmd.PersistentFlags().String("treasury-address", "", "Address whose holdings are captured")
	rootCmd.PersistentFlags().String("explorer-api-url", "", "Explorer API endpoint")
	rootCmd.PersistentFlags().String("explorer-api-key-env", "", "Environment variable holding the explorer API key")
	rootCmd.PersistentFlags().Int("explorer-page-size", 0, "How many recent transfers to fetch per token")
	rootCmd.PersistentFlags().Int("explorer-timeout", 0, "Explorer request timeout in milliseconds")
	rootCmd.PersistentFlags().Int("rpc-timeout", 0, "RPC call timeout in milliseconds")
	rootCmd.PersistentFlags().Bool("rpc-verify-chain-id", false, "Check eth_chainId against the configured chain id")
	rootCmd.PersistentFlags().String("output-dir", "", "Directory the artifacts are written to")
	rootCmd.PersistentFlags().Bool("output-s3-enabled", false, "Also upload artifacts to S3")
	rootCmd.PersistentFlags().String("output-s3-bucket", "", "S3 bucket for artifacts")
	rootCmd.PersistentFlags().String("output-s3-region", "", "S3 region for artifacts")
	rootCmd.PersistentFlags().String("output-s3-prefix", "", "S3 key prefix for artifacts")
	rootCmd.PersistentFlags().Bool("output-redis-enabled", false, "Also store artifacts in Redis")
	rootCmd.PersistentFlags().String("output-redis-addr", "", "Redis address for artifacts")
	rootCmd.PersistentFlags().String("output-redis-key-prefix", "", "Redis key prefix for artifacts")
	rootCmd.PersistentFlags().Bool("output-kafka-enabled", false, "Also publish artifacts to Kafka")
	rootCmd.PersistentFlags().String("output-kafka-brokers", "", "Comma separated Kafka brokers")
	rootCmd.PersistentFlags().String("output-kafka-topic", "", "Kafka topic for artifacts")
	rootCmd.PersistentFlags().String("metrics-push-gateway", "", "Prometheus Pushgateway URL")
	rootCmd.PersistentFlags().String("api-host", "", "Address the artifact API listens on")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.prettify", rootCmd.PersistentFlags().Lookup("log-prettify"))
	viper.BindPFlag("treasury.address", rootCmd.PersistentFlags().Lookup("treasury-address"))
	viper.BindPFlag("explorer.apiUrl", rootCmd.PersistentFlags().Lookup("explorer-api-url"))
	viper.BindPFlag("explorer.apiKeyEnv", rootCmd.PersistentFlags().Lookup("explorer-api-key-env"))
	viper.BindPFlag("explorer.pageSize", rootCmd.PersistentFlags().Lookup("explorer-page-size"))
	viper.BindPFlag("explorer.timeout", rootCmd.PersistentFlags().Lookup("explorer-timeout"))
	viper.BindPFlag("rpc.timeout", rootCmd.PersistentFlags().Lookup("rpc-timeout"))
	viper.BindPFlag("rpc.verifyChainId", rootCmd.PersistentFlags().Lookup("rpc-verify-chain-id"))
	viper.BindPFlag("output.dir", rootCmd.PersistentFlags().Lookup("output-dir"))
	viper.BindPFlag("output.s3.enabled", rootCmd.PersistentFlags().Lookup("output-s3-enabled"))
	viper.BindPFlag("output.s3.bucket", rootCmd.PersistentFlags().Lookup("output-s3-bucket"))
	viper.BindPFlag("output.s3.region", rootCmd.PersistentFlags().Lookup("output-s3-region"))
	viper.BindPFlag("output.s3.prefix", rootCmd.PersistentFlags().Lookup("output-s3-prefix"))
	viper.BindPFlag("output.redis.enabled", rootCmd.PersistentFlags().Lookup("output-redis-enabled"))
	viper.BindPFlag("output.redis.addr", rootCmd.PersistentFlags().Lookup("output-redis-addr"))
	viper.BindPFlag("output.redis.keyPrefix", rootCmd.PersistentFlags().Lookup("output-redis-key-prefix"))
	viper.BindPFlag("output.kafka.enabled", rootCmd.PersistentFlags().Lookup("output-kafka-enabled"))
	viper.BindPFlag("output.kafka.brokers", rootCmd.PersistentFlags().Lookup("output-kafka-brokers"))
	viper.BindPFlag("output.kafka.topic", rootCmd.PersistentFlags().Lookup("output-kafka-topic"))
	viper.BindPFlag("metrics.pushGateway", rootCmd.PersistentFlags().Lookup("metrics-push-gateway"))
	viper.BindPFlag("api.host", rootCmd.PersistentFlags().Lookup("api-host"))
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	env.Load()
	if err := configs.LoadConfig(cfgFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	customLogger.InitLogger()
}
