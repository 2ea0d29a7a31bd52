package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Storage     StorageConfig
	Billing     BillingConfig
	Downstream  DownstreamConfig
	Admin       AdminConfig
	Debug       bool
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Path string
}

type StorageConfig struct {
	// Bucket is the storage namespace artifacts are addressed under; it is
	// the first segment of every generated object key and the bucketName
	// reported to the downstream processor.
	Bucket string
	// DataDir is where the filesystem artifact store roots its objects.
	DataDir string
}

type BillingConfig struct {
	// CostPerUnit is the credits debited per object in a batch.
	CostPerUnit int64
}

type DownstreamConfig struct {
	// CallbackURL receives the post-persist notification. Empty disables
	// the notify step entirely.
	CallbackURL string
}

type AdminConfig struct {
	// Token guards the provisioning endpoints. Empty disables them.
	Token string
}

func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ingestgate_env", "")
	v.SetDefault("app_env", "")
	v.SetDefault("ingestgate_port", 8080)
	v.SetDefault("ingestgate_db_path", "data/subscriptions")
	v.SetDefault("ingestgate_data_dir", "data/artifacts")
	v.SetDefault("ingestgate_bucket", "ssfs-inbound")
	v.SetDefault("ingestgate_cost_per_unit", 2)
	v.SetDefault("ingestgate_callback_url", "")
	v.SetDefault("ingestgate_admin_token", "")
	v.SetDefault("ingestgate_debug", false)

	port := v.GetInt("ingestgate_port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid INGESTGATE_PORT: %d", port)
	}

	costPerUnit := v.GetInt64("ingestgate_cost_per_unit")
	if costPerUnit < 1 {
		return Config{}, fmt.Errorf("invalid INGESTGATE_COST_PER_UNIT: %d", costPerUnit)
	}

	bucket := strings.TrimSpace(v.GetString("ingestgate_bucket"))
	if bucket == "" {
		return Config{}, fmt.Errorf("INGESTGATE_BUCKET must not be empty")
	}

	cfg := Config{
		Environment: resolveEnvironment(v),
		Server:      ServerConfig{Port: port},
		Database: DatabaseConfig{
			Path: strings.TrimSpace(v.GetString("ingestgate_db_path")),
		},
		Storage: StorageConfig{
			Bucket:  bucket,
			DataDir: strings.TrimSpace(v.GetString("ingestgate_data_dir")),
		},
		Billing: BillingConfig{
			CostPerUnit: costPerUnit,
		},
		Downstream: DownstreamConfig{
			CallbackURL: strings.TrimSpace(v.GetString("ingestgate_callback_url")),
		},
		Admin: AdminConfig{
			Token: strings.TrimSpace(v.GetString("ingestgate_admin_token")),
		},
		Debug: v.GetBool("ingestgate_debug"),
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/subscriptions"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data/artifacts"
	}
	if !cfg.IsLocalDevelopment() && cfg.Downstream.CallbackURL == "" {
		return Config{}, fmt.Errorf("INGESTGATE_CALLBACK_URL is required outside local/dev environments")
	}

	return cfg, nil
}

func (c Config) IsLocalDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"ingestgate_env", "app_env"} {
		value := strings.TrimSpace(v.GetString(key))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}
