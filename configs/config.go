package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Prettify bool   `mapstructure:"prettify"`
}

type RPCConfig struct {
	URLs    []string `mapstructure:"urls"`
	ChainID string   `mapstructure:"chainId"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"poolSize"`
}

type KafkaConfig struct {
	Brokers     string `mapstructure:"brokers"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	EnableTLS   bool   `mapstructure:"enableTls"`
	TopicPrefix string `mapstructure:"topicPrefix"`
	GroupPrefix string `mapstructure:"groupPrefix"`
}

type NatsConfig struct {
	URL               string `mapstructure:"url"`
	SubjectPrefix     string `mapstructure:"subjectPrefix"`
	GroupPrefix       string `mapstructure:"groupPrefix"`
	MaxRetryCount     int    `mapstructure:"maxRetryCount"`
	BackoffSeconds    int    `mapstructure:"backoffSeconds"`
	ConsumersPerQueue int    `mapstructure:"consumersPerQueue"`
}

type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"sslMode"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns"`
	MaxConnLifetime int    `mapstructure:"maxConnLifetime"`
	ConnectTimeout  int    `mapstructure:"connectTimeout"`
}

type MemoryConfig struct {
	MaxItems int `mapstructure:"maxItems"`
}

type StorageConnectionConfig struct {
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Memory   *MemoryConfig   `mapstructure:"memory"`
}

type StorageConfig struct {
	Main StorageConnectionConfig `mapstructure:"main"`
}

type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PollerConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	Interval  int  `mapstructure:"interval"`
	FromBlock int  `mapstructure:"fromBlock"`
}

// PricingConfig lists the token addresses recognized as each anchor currency.
// A token on one of these lists seeds the bridging pass with price = 1.
type PricingConfig struct {
	USDTokens []string `mapstructure:"usdTokens"`
	ETHTokens []string `mapstructure:"ethTokens"`
	BTCTokens []string `mapstructure:"btcTokens"`
}

type DexConfig struct {
	Routers []string `mapstructure:"routers"`
}

type Config struct {
	RPC     RPCConfig     `mapstructure:"rpc"`
	Log     LogConfig     `mapstructure:"log"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Nats    NatsConfig    `mapstructure:"nats"`
	Storage StorageConfig `mapstructure:"storage"`
	API     APIConfig     `mapstructure:"api"`
	Poller  PollerConfig  `mapstructure:"poller"`
	Pricing PricingConfig `mapstructure:"pricing"`
	Dex     DexConfig     `mapstructure:"dex"`
}

var Cfg Config

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
	}

	// sets e.g. RPC_CHAINID to rpc.chainId
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv()

	err := viper.Unmarshal(&Cfg)
	if err != nil {
		return fmt.Errorf("error unmarshalling config: %v", err)
	}

	return nil
}
