package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	API       APIConfig       `mapstructure:"api"`
	Subgraph  SubgraphConfig  `mapstructure:"subgraph"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Vaults    VaultsConfig    `mapstructure:"vaults"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// APIConfig points at the vaults REST API. ExperimentalURL serves the
// non-endorsed vaults and is only queried for allow-listed addresses.
type APIConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	ExperimentalURL string `mapstructure:"experimental_url"`
	TimeoutMs       int    `mapstructure:"timeout_ms"`
}

type SubgraphConfig struct {
	URL       string `mapstructure:"url"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

type ChainConfig struct {
	RPCURL           string `mapstructure:"rpc_url"`
	MulticallAddress string `mapstructure:"multicall_address"`
	TimeoutMs        int    `mapstructure:"timeout_ms"`
	MaxQueueLength   int    `mapstructure:"max_queue_length"`
}

type VaultsConfig struct {
	PageSize  int      `mapstructure:"page_size"`
	AllowList []string `mapstructure:"allow_list"` // experimental vaults always included
	DenyList  []string `mapstructure:"deny_list"`  // added to the built-in deny-list
}

type RedisConfig struct {
	Addr        string `mapstructure:"addr"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	SnapshotKey string `mapstructure:"snapshot_key"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type RateLimitConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("api.base_url", "https://api.yearn.finance/v1/chains/1")
	v.SetDefault("api.experimental_url", "https://dev-api.yearn.finance/v1/chains/1")
	v.SetDefault("api.timeout_ms", 15000)
	v.SetDefault("subgraph.url", "https://api.thegraph.com/subgraphs/name/rareweasel/yearn-vaults-v2-subgraph-mainnet")
	v.SetDefault("subgraph.timeout_ms", 15000)
	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.multicall_address", "0xcA11bde05977b3631167028862bE2a173976CA11")
	v.SetDefault("chain.timeout_ms", 10000)
	v.SetDefault("chain.max_queue_length", 20)
	v.SetDefault("vaults.page_size", 30)
	v.SetDefault("vaults.allow_list", []string{})
	v.SetDefault("vaults.deny_list", []string{})
	v.SetDefault("redis.snapshot_key", "vaultscope:snapshot")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("ratelimit.qps", 20)
	v.SetDefault("ratelimit.burst", 40)
}

// Load reads config.yaml from . or ./configs, then VAULTSCOPE_* env vars.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// e.g. VAULTSCOPE_CHAIN_RPC_URL
	v.SetEnvPrefix("vaultscope")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Vaults.PageSize <= 0 {
		cfg.Vaults.PageSize = 30
	}

	return &cfg, nil
}
