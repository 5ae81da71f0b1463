package config

import (
	"fmt"
	"strings"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
)

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Prettify bool   `mapstructure:"prettify"`
}

type TreasuryConfig struct {
	Address string `mapstructure:"address"`
}

type ExplorerConfig struct {
	APIURL    string `mapstructure:"apiUrl"`
	APIKeyEnv string `mapstructure:"apiKeyEnv"`
	APIKey    string `mapstructure:"-"`
	PageSize  int    `mapstructure:"pageSize"`
	Timeout   int    `mapstructure:"timeout"`
}

type RPCConfig struct {
	Timeout       int  `mapstructure:"timeout"`
	VerifyChainID bool `mapstructure:"verifyChainId"`
}

type TokenConfig struct {
	Contract string `mapstructure:"contract"`
}

type ChainConfig struct {
	Name           string        `mapstructure:"name"`
	ChainID        uint64        `mapstructure:"chainId"`
	RPCEnv         string        `mapstructure:"rpcEnv"`
	RPCURL         string        `mapstructure:"-"`
	ExplorerURL    string        `mapstructure:"explorerUrl"`
	NativeSymbol   string        `mapstructure:"nativeSymbol"`
	NativeDecimals *int          `mapstructure:"nativeDecimals"`
	Tokens         []TokenConfig `mapstructure:"tokens"`
}

type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"keyPrefix"`
	EnableTLS bool   `mapstructure:"enableTLS"`
}

type KafkaConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Brokers   string `mapstructure:"brokers"`
	Topic     string `mapstructure:"topic"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	EnableTLS bool   `mapstructure:"enableTLS"`
}

type OutputConfig struct {
	Dir   string      `mapstructure:"dir"`
	S3    S3Config    `mapstructure:"s3"`
	Redis RedisConfig `mapstructure:"redis"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type MetricsConfig struct {
	PushGateway string `mapstructure:"pushGateway"`
	Job         string `mapstructure:"job"`
}

type BasicAuthConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type APIConfig struct {
	Host      string          `mapstructure:"host"`
	BasicAuth BasicAuthConfig `mapstructure:"basicAuth"`
}

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Treasury TreasuryConfig `mapstructure:"treasury"`
	Explorer ExplorerConfig `mapstructure:"explorer"`
	RPC      RPCConfig      `mapstructure:"rpc"`
	Chains   []ChainConfig  `mapstructure:"chains"`
	Output   OutputConfig   `mapstructure:"output"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	API      APIConfig      `mapstructure:"api"`
}

var Cfg Config

const (
	DefaultPageSize        = 25
	DefaultExplorerTimeout = 15000
	DefaultRPCTimeout      = 15000
	DefaultAPIKeyEnv       = "ETHERSCAN_API_KEY"
)

func LoadConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file, %s", err)
		}
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./configs")

		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file, %s", err)
		}

		// secrets are optional
		viper.SetConfigName("secrets")
		if err := viper.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("error loading secrets file: %v", err)
			}
		}
	}

	// sets e.g. OUTPUT_DIR to output.dir
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("error unmarshalling config: %v", err)
	}
	cfg.ResolveEnv(viper.GetString)
	Cfg = cfg

	return nil
}

// ResolveEnv fills the values that are looked up through the environment
// variable names declared in the config file, and applies defaults.
func (c *Config) ResolveEnv(lookup func(string) string) {
	if c.Explorer.APIKeyEnv == "" {
		c.Explorer.APIKeyEnv = DefaultAPIKeyEnv
	}
	c.Explorer.APIKey = strings.TrimSpace(lookup(c.Explorer.APIKeyEnv))
	if c.Explorer.PageSize <= 0 {
		c.Explorer.PageSize = DefaultPageSize
	}
	if c.Explorer.Timeout <= 0 {
		c.Explorer.Timeout = DefaultExplorerTimeout
	}
	if c.RPC.Timeout <= 0 {
		c.RPC.Timeout = DefaultRPCTimeout
	}
	for i := range c.Chains {
		if c.Chains[i].RPCEnv != "" {
			c.Chains[i].RPCURL = strings.TrimSpace(lookup(c.Chains[i].RPCEnv))
		}
	}
}

// Validate reports every missing or malformed required value at once.
func (c Config) Validate() error {
	var problems []string

	if !gethCommon.IsHexAddress(c.Treasury.Address) {
		problems = append(problems, fmt.Sprintf("treasury.address %q is not a valid address", c.Treasury.Address))
	}
	if c.Explorer.APIURL == "" {
		problems = append(problems, "explorer.apiUrl is not set")
	}
	if c.Explorer.APIKey == "" {
		problems = append(problems, fmt.Sprintf("%s is not set", c.Explorer.APIKeyEnv))
	}
	if len(c.Chains) == 0 {
		problems = append(problems, "no chains configured")
	}

	seen := make(map[string]bool, len(c.Chains))
	for i, chain := range c.Chains {
		label := chain.Name
		if label == "" {
			label = fmt.Sprintf("chains[%d]", i)
			problems = append(problems, fmt.Sprintf("%s.name is not set", label))
		} else if seen[label] {
			problems = append(problems, fmt.Sprintf("chain %s is configured twice", label))
		}
		seen[label] = true

		if chain.ChainID == 0 {
			problems = append(problems, fmt.Sprintf("%s: chainId is not set", label))
		}
		if chain.RPCEnv == "" {
			problems = append(problems, fmt.Sprintf("%s: rpcEnv is not set", label))
		} else if chain.RPCURL == "" {
			problems = append(problems, fmt.Sprintf("%s is not set", chain.RPCEnv))
		}
		if chain.ExplorerURL == "" {
			problems = append(problems, fmt.Sprintf("%s: explorerUrl is not set", label))
		}
		if chain.NativeSymbol == "" {
			problems = append(problems, fmt.Sprintf("%s: nativeSymbol is not set", label))
		}
		if chain.NativeDecimals == nil {
			problems = append(problems, fmt.Sprintf("%s: nativeDecimals is not set", label))
		} else if *chain.NativeDecimals < 0 {
			problems = append(problems, fmt.Sprintf("%s: nativeDecimals is negative", label))
		}
		for j, token := range chain.Tokens {
			if !gethCommon.IsHexAddress(token.Contract) {
				problems = append(problems, fmt.Sprintf("%s: tokens[%d].contract %q is not a valid address", label, j, token.Contract))
			}
		}
	}

	if c.Output.S3.Enabled && c.Output.S3.Bucket == "" {
		problems = append(problems, "output.s3.bucket is not set")
	}
	if c.Output.Redis.Enabled && c.Output.Redis.Addr == "" {
		problems = append(problems, "output.redis.addr is not set")
	}
	if c.Output.Kafka.Enabled && (c.Output.Kafka.Brokers == "" || c.Output.Kafka.Topic == "") {
		problems = append(problems, "output.kafka.brokers and output.kafka.topic must be set")
	}

	if len(problems) > 0 {
		return common.NewConfigError("%s", strings.Join(problems, "; "))
	}
	return nil
}

// ChainContexts converts the chain section into the immutable contexts used by
// the pipeline.
func (c Config) ChainContexts() []common.ChainContext {
	contexts := make([]common.ChainContext, 0, len(c.Chains))
	for _, chain := range c.Chains {
		nativeDecimals := 0
		if chain.NativeDecimals != nil {
			nativeDecimals = *chain.NativeDecimals
		}
		tokens := make([]common.TokenContext, 0, len(chain.Tokens))
		for _, token := range chain.Tokens {
			tokens = append(tokens, common.TokenContext{Contract: token.Contract})
		}
		contexts = append(contexts, common.ChainContext{
			Name:           chain.Name,
			ChainID:        chain.ChainID,
			RPCURL:         chain.RPCURL,
			RPCEnv:         chain.RPCEnv,
			ExplorerURL:    chain.ExplorerURL,
			ExplorerAPIURL: c.Explorer.APIURL,
			NativeSymbol:   chain.NativeSymbol,
			NativeDecimals: nativeDecimals,
			Tokens:         tokens,
		})
	}
	return contexts
}
