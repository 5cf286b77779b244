package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultChunkSize            = 250
	DefaultParallelism          = 8
	DefaultRetentionPeriodHours = 168
	DefaultLogLevel             = "warn"
	DefaultLogFormat            = "text"
	DefaultStorageType          = "s3"

	// MaxS3ChunkSize is the DeleteObjects per-request key limit.
	MaxS3ChunkSize = 1000

	// MaxRetentionPeriodHours is the largest window a time.Duration can hold.
	MaxRetentionPeriodHours = math.MaxInt64 / int64(time.Hour)

	envPrefix = "DELTAPURGE"
)

type Config struct {
	Table                string               `mapstructure:"table"`
	ChunkSize            int                  `mapstructure:"chunk_size"`
	Parallelism          int                  `mapstructure:"parallelism"`
	RetentionPeriodHours int64                `mapstructure:"retention_period_hours"`
	DryRun               bool                 `mapstructure:"dry_run"`
	ChunkTimeout         time.Duration        `mapstructure:"chunk_timeout"`
	Storage              StorageConfig        `mapstructure:"storage"`
	Log                  LogConfig            `mapstructure:"log"`
	Metrics              MetricsConfig        `mapstructure:"metrics"`
	Notifications        []NotificationConfig `mapstructure:"notifications"`
}

// StorageConfig holds backend options. Empty credentials fall back to the
// SDK default chain.
type StorageConfig struct {
	Type      string `mapstructure:"type"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	PathStyle bool   `mapstructure:"path_style"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type NotificationConfig struct {
	Type   string              `mapstructure:"type"`
	On     []string            `mapstructure:"on"`
	Config NotificationDetails `mapstructure:"config"`
}

type NotificationDetails struct {
	SMTPHost string            `mapstructure:"smtp_host"`
	SMTPPort int               `mapstructure:"smtp_port"`
	From     string            `mapstructure:"from"`
	To       string            `mapstructure:"to"`
	Username string            `mapstructure:"username"`
	Password string            `mapstructure:"password"`
	URL      string            `mapstructure:"url"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig reads defaults, DELTAPURGE_* environment variables and, when
// path is non-empty, the config file at path.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ModifyConfig(&cfg)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("table", "")
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("parallelism", DefaultParallelism)
	v.SetDefault("retention_period_hours", DefaultRetentionPeriodHours)
	v.SetDefault("dry_run", false)
	v.SetDefault("chunk_timeout", time.Duration(0))
	v.SetDefault("storage.type", DefaultStorageType)
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.path_style", false)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("metrics.textfile", "")
}

// ModifyConfig expands ${VAR} references in string values.
func ModifyConfig(cfg *Config) {
	cfg.Table = os.ExpandEnv(cfg.Table)

	st := &cfg.Storage
	st.Type = os.ExpandEnv(st.Type)
	st.Region = os.ExpandEnv(st.Region)
	st.Endpoint = os.ExpandEnv(st.Endpoint)
	st.AccessKey = os.ExpandEnv(st.AccessKey)
	st.SecretKey = os.ExpandEnv(st.SecretKey)

	cfg.Metrics.Textfile = os.ExpandEnv(cfg.Metrics.Textfile)

	for i := range cfg.Notifications {
		nt := &cfg.Notifications[i]
		nt.Type = os.ExpandEnv(nt.Type)
		for j := range nt.On {
			nt.On[j] = os.ExpandEnv(nt.On[j])
		}
		nt.Config.SMTPHost = os.ExpandEnv(nt.Config.SMTPHost)
		nt.Config.From = os.ExpandEnv(nt.Config.From)
		nt.Config.To = os.ExpandEnv(nt.Config.To)
		nt.Config.Username = os.ExpandEnv(nt.Config.Username)
		nt.Config.Password = os.ExpandEnv(nt.Config.Password)
		nt.Config.URL = os.ExpandEnv(nt.Config.URL)
		for k, v := range nt.Config.Headers {
			nt.Config.Headers[k] = os.ExpandEnv(v)
		}
	}
}
