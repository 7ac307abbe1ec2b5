package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	viper "github.com/spf13/viper"
)

/*
init : 讀取 .env + 環境變數，設置 watch 與 onConfigChange
read : GetConfig 讀鎖
*/
var configSingleton *ConfigSingleton
var muonce sync.Once

type ConfigSingleton struct {
	config *Config
	mu     sync.RWMutex
}

type Config struct {
	ServerPort        string        `mapstructure:"SERVER_PORT"`
	DbName            string        `mapstructure:"POSTGRES_DB"`
	DbHost            string        `mapstructure:"POSTGRES_HOST"`
	DbPort            string        `mapstructure:"POSTGRES_PORT"`
	DbUser            string        `mapstructure:"POSTGRES_USER"`
	DbPas             string        `mapstructure:"POSTGRES_PASSWORD"`
	DbSSLMode         string        `mapstructure:"POSTGRES_SSLMODE"`
	DbMaxOpenConns    int           `mapstructure:"POSTGRES_MAX_OPEN_CONNS"`
	DbMaxIdleConns    int           `mapstructure:"POSTGRES_MAX_IDLE_CONNS"`
	DbConnMaxLifetime time.Duration `mapstructure:"POSTGRES_CONN_MAX_LIFETIME"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	RedisPassword     string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int           `mapstructure:"REDIS_DB"`
	CartTTL           time.Duration `mapstructure:"CART_TTL"`
	KafkaBrokers      string        `mapstructure:"KAFKA_BROKERS"`
	KafkaChangeTopic  string        `mapstructure:"KAFKA_CHANGE_TOPIC"`
	KafkaGroupID      string        `mapstructure:"KAFKA_GROUP_ID"`
	AuthTokenKey      string        `mapstructure:"AUTH_TOKEN_KEY"`
	AuthTokenDuration time.Duration `mapstructure:"AUTH_TOKEN_DURATION"`
	AdminEmail        string        `mapstructure:"ADMIN_EMAIL"`
	AdminPasswordHash string        `mapstructure:"ADMIN_PASSWORD_HASH"`
	CloudinaryURL     string        `mapstructure:"CLOUDINARY_URL"`
	SettingsSeedPath  string        `mapstructure:"SETTINGS_SEED_PATH"`
	FeaturedLimit     int           `mapstructure:"FEATURED_LIMIT"`
	RateLimitCapacity int           `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRate     int           `mapstructure:"RATE_LIMIT_RATE"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogFormat         string        `mapstructure:"LOG_FORMAT"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
}

// Brokers KAFKA_BROKERS 以逗號分隔，空字串代表不啟用 kafka relay
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

var defaults = map[string]any{
	"SERVER_PORT":                "8080",
	"POSTGRES_DB":                "storefront",
	"POSTGRES_HOST":              "localhost",
	"POSTGRES_PORT":              "5432",
	"POSTGRES_USER":              "postgres",
	"POSTGRES_PASSWORD":          "",
	"POSTGRES_SSLMODE":           "disable",
	"POSTGRES_MAX_OPEN_CONNS":    20,
	"POSTGRES_MAX_IDLE_CONNS":    5,
	"POSTGRES_CONN_MAX_LIFETIME": "30m",
	"REDIS_ADDR":                 "localhost:6379",
	"REDIS_PASSWORD":             "",
	"REDIS_DB":                   0,
	"CART_TTL":                   "720h",
	"KAFKA_BROKERS":              "",
	"KAFKA_CHANGE_TOPIC":         "storefront-changes",
	"KAFKA_GROUP_ID":             "",
	"AUTH_TOKEN_KEY":             "",
	"AUTH_TOKEN_DURATION":        "24h",
	"ADMIN_EMAIL":                "",
	"ADMIN_PASSWORD_HASH":        "",
	"CLOUDINARY_URL":             "",
	"SETTINGS_SEED_PATH":         "config/settings_seed.yaml",
	"FEATURED_LIMIT":             8,
	"RATE_LIMIT_CAPACITY":        10,
	"RATE_LIMIT_RATE":            1,
	"REQUEST_TIMEOUT":            "15s",
	"LOG_FORMAT":                 "console",
	"LOG_LEVEL":                  "info",
}

func GetConfig() *Config {
	initConfig()
	configSingleton.mu.RLock()
	defer configSingleton.mu.RUnlock()
	return configSingleton.config
}

func initConfig() {
	muonce.Do(func() {
		configSingleton = &ConfigSingleton{}
		path := os.Getenv("CONFIG_PATH")
		if path == "" {
			path = ".env"
		}
		v := viper.New()
		cf, err := load(v, path)
		if err != nil {
			log.Fatal().Err(err).Msg("read config failed")
		}
		configSingleton.config = cf

		if v.ConfigFileUsed() == "" {
			return
		}
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			cf := &Config{}
			if err := v.Unmarshal(cf); err != nil {
				log.Error().Err(err).Str("file", e.Name).Msg("reload config failed")
				return
			}
			configSingleton.mu.Lock()
			configSingleton.config = cf
			configSingleton.mu.Unlock()
			log.Info().Str("file", e.Name).Msg("config reloaded")
		})
	})
}

// Load 讀取指定的 .env，檔案不存在時只使用環境變數與預設值
// 單純回傳錯誤，由外部決定要不要 Fatal
func Load(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cf, nil
}
