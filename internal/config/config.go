package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ServiceName    = ""
	ServiceVersion = ""
)

var (
	Env *EnvConfig
)

type EnvConfig struct {
	Env                     string                        `mapstructure:"env"`
	Log                     LogConfig                     `mapstructure:"log"`
	GracefulShutdownTimeout time.Duration                 `mapstructure:"graceful_shutdown_timeout"`
	APIKeys                 []APIKeyConfig                `mapstructure:"api_keys"`
	Port                    map[string]string             `mapstructure:"port"`
	Database                map[string]DatabaseConfig     `mapstructure:"database"`
	Redis                   map[string]RedisConfig        `mapstructure:"redis"`
	NatsJetstream           NatsJetstreamConfig           `mapstructure:"nats_jetstream"`
	Standards               StandardsConfig               `mapstructure:"standards"`
	PairProvider            PairProviderConfig            `mapstructure:"pair_provider"`
	RestExchanges           map[string]RestExchangeConfig `mapstructure:"rest_exchanges"`
	FeedProbe               FeedProbeConfig               `mapstructure:"feed_probe"`
}

type StandardsConfig struct {
	// TablesDir overrides the embedded translation tables when set.
	TablesDir   string   `mapstructure:"tables_dir"`
	WarmOnStart []string `mapstructure:"warm_on_start"`
}

type PairProviderConfig struct {
	Default   string            `mapstructure:"default"`
	Exchanges map[string]string `mapstructure:"exchanges"`
	FilePath  string            `mapstructure:"file_path"`
	RedisName string            `mapstructure:"redis_name"`
	Database  string            `mapstructure:"database"`
}

type RestExchangeConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type FeedProbeConfig struct {
	// Endpoints overrides the websocket url per exchange.
	Endpoints         map[string]string `mapstructure:"endpoints"`
	PingInterval      time.Duration     `mapstructure:"ping_interval"`
	ReconnectMinDelay time.Duration     `mapstructure:"reconnect_min_delay"`
	ReconnectMaxDelay time.Duration     `mapstructure:"reconnect_max_delay"`
	PublishTrades     bool              `mapstructure:"publish_trades"`
}

type APIKeyConfig struct {
	Name      string `mapstructure:"name"`
	Key       string `mapstructure:"key"`
	Active    bool   `mapstructure:"active"`
	ExpiredAt any    `mapstructure:"expired_at"`
}

type NatsJetstreamConfig struct {
	URL             string                   `mapstructure:"url"`
	MaxRetries      int                      `mapstructure:"max_retries"`
	ReconnectFactor float64                  `mapstructure:"reconnect_factor"`
	MinJitter       time.Duration            `mapstructure:"min_jitter"`
	MaxJitter       time.Duration            `mapstructure:"max_jitter"`
	TimeoutHandler  map[string]time.Duration `mapstructure:"timeout_handler"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	ReconnectFactor float64       `mapstructure:"reconnect_factor"`
	MinJitter       time.Duration `mapstructure:"min_jitter"`
	MaxJitter       time.Duration `mapstructure:"max_jitter"`
	MaxRetry        int           `mapstructure:"max_retry"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxActiveConns  int           `mapstructure:"max_active_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type LogConfig struct {
	ShowCaller bool   `mapstructure:"show_caller"`
	LogLevel   string `mapstructure:"log_level"`
}

type RedisConfig struct {
	CacheDSN string `mapstructure:"cache_dsn"`
}

func LoadConfig(configPath string) error {
	viper.Reset()

	configPath = strings.TrimSpace(configPath)
	if configPath == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	} else {
		ext := strings.ToLower(filepath.Ext(configPath))
		if ext == ".yml" || ext == ".yaml" {
			viper.SetConfigFile(configPath)
		} else {
			viper.SetConfigName(filepath.Base(configPath))
			viper.SetConfigType("yml")
			configDir := filepath.Dir(configPath)
			if configDir == "." || configDir == "" {
				viper.AddConfigPath(".")
			} else {
				viper.AddConfigPath(configDir)
			}
		}
	}

	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	viper.SetDefault("graceful_shutdown_timeout", 10*time.Second)
	viper.SetDefault("log.log_level", "info")
	viper.SetDefault("pair_provider.default", "postgres")
	viper.SetDefault("pair_provider.redis_name", "standards")
	viper.SetDefault("pair_provider.database", "market_data")
	viper.SetDefault("feed_probe.ping_interval", 30*time.Second)
	viper.SetDefault("feed_probe.reconnect_min_delay", time.Second)
	viper.SetDefault("feed_probe.reconnect_max_delay", 15*time.Second)

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	err = viper.Unmarshal(&Env)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	return nil
}
