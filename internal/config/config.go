// Package config loads and persists the daemon's global and per-server
// YAML configuration files.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"gopkg.in/yaml.v3"

	"github.com/dncore/swi/pkg/types"
)

// ScreenConfig controls the legacy "screen" multiplexer fallback some
// operators still use instead of the built-in PTY console.
type ScreenConfig struct {
	Enable     bool   `yaml:"enable" json:"enable"`
	ScreenCommand string `yaml:"screen_command,omitempty" json:"screenCommand,omitempty"`
}

// BackupConfig is the backup: section of the global config.
type BackupConfig struct {
	EnableSnapshots   bool     `yaml:"enable_snapshots" json:"enableSnapshots"`
	BackupsDirectory  string   `yaml:"backups_directory" json:"backupsDirectory"`
	Suffixes          []string `yaml:"suffixes" json:"suffixes"`
	MaxSnapshotAgeDays int     `yaml:"max_snapshot_age_days,omitempty" json:"maxSnapshotAgeDays,omitempty"`
	TrashRetentionHours int    `yaml:"trash_retention_hours" json:"trashRetentionHours"`
	S3Mirror          *S3MirrorConfig `yaml:"s3_mirror,omitempty" json:"s3Mirror,omitempty"`
}

// S3MirrorConfig optionally mirrors FULL backups to an S3-compatible bucket.
type S3MirrorConfig struct {
	Enable          bool   `yaml:"enable" json:"enable"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	Region          string `yaml:"region,omitempty" json:"region,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"-"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"-"`
	ForcePathStyle  bool   `yaml:"force_path_style,omitempty" json:"forcePathStyle,omitempty"`
}

// PublicAPIConfig is the api_server: section: bind address, session/JWT
// secrets, and CORS origins for the control plane.
type PublicAPIConfig struct {
	Enable        bool     `yaml:"enable" json:"enable"`
	Bind          string   `yaml:"bind" json:"bind"`
	SessionSecret string   `yaml:"session_secret,omitempty" json:"-"`
	JWTSecret     string   `yaml:"jwt_secret,omitempty" json:"-"`
	CORSOrigins   []string `yaml:"cors_origins,omitempty" json:"corsOrigins,omitempty"`
	MetricsEnable bool     `yaml:"metrics_enable" json:"metricsEnable"`
}

// SwitcherConfig is the top-level schema of swi.yml, the global config.
type SwitcherConfig struct {
	Servers        map[string]string           `yaml:"servers" json:"servers"` // id -> directory
	ServerDefaults types.ServerGlobalConfig    `yaml:"server_defaults" json:"serverDefaults"`
	RootDirectory  string                      `yaml:"root_directory" json:"rootDirectory"`
	ServersLocation string                     `yaml:"servers_location" json:"serversLocation"`
	Java           types.JavaConfigSection     `yaml:"java" json:"java"`
	Screen         ScreenConfig                `yaml:"screen" json:"screen"`
	MaxConsoleLinesInMemory int                `yaml:"max_console_lines_in_memory" json:"maxConsoleLinesInMemory"`
	APIServer      PublicAPIConfig             `yaml:"api_server" json:"apiServer"`
	Backup         BackupConfig                `yaml:"backup" json:"backup"`

	// SecretsARN, if set (or if SWI_SECRETS_ARN is set), is resolved via
	// AWS Secrets Manager at load time before the env-var overlay is applied.
	SecretsARN string `yaml:"-" json:"-"`
	path       string `yaml:"-" json:"-"`
}

// Default returns the config used when no swi.yml exists yet, matching
// the original implementation's defaults.
func Default() *SwitcherConfig {
	return &SwitcherConfig{
		Servers: map[string]string{},
		ServerDefaults: types.ServerGlobalConfig{
			LaunchOption: types.LaunchGlobalOption{
				JavaPreset:            "default",
				JavaOptions:           "-Dfile.encoding=UTF-8",
				ServerOptions:         "nogui",
				MaxHeapMemoryMB:       2048,
				MinHeapMemoryMB:       2048,
				EnableFreeMemoryCheck: true,
				EnableReporterAgent:   true,
				EnableScreen:          false,
			},
			ShutdownTimeoutSec: 15,
		},
		RootDirectory:   "./minecraft_servers",
		ServersLocation: "/",
		Java: types.JavaConfigSection{
			AutoDetectionPaths: types.DefaultJavaAutoDetectionPaths(),
			Presets:            map[string]types.JavaPreset{},
		},
		MaxConsoleLinesInMemory: 10_000,
		APIServer: PublicAPIConfig{
			Enable: true,
			Bind:   ":8443",
		},
		Backup: BackupConfig{
			EnableSnapshots:     true,
			BackupsDirectory:    "./data_backups",
			Suffixes:            []string{"7z", "zip"},
			TrashRetentionHours: 72,
		},
	}
}

// Load reads swi.yml from path, applying defaults for any missing
// section and an environment-variable overlay for secrets that operators
// generally don't want committed to disk. If path doesn't exist, Load
// returns Default() without error (first-run behavior).
func Load(path string) (*SwitcherConfig, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.path = path

	if arn := envOrDefault("SWI_SECRETS_ARN", cfg.SecretsARN); arn != "" {
		cfg.SecretsARN = arn
		if err := loadSecretsManager(arn); err != nil {
			return nil, fmt.Errorf("load secrets from %s: %w", arn, err)
		}
	}

	applyEnvOverlay(cfg)
	return cfg, nil
}

// Save writes the config back to its loaded path (or the given path on
// first save) as YAML.
func (c *SwitcherConfig) Save(path string) error {
	if path == "" {
		path = c.path
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	c.path = path
	return nil
}

// applyEnvOverlay lets a handful of secrets/ports be overridden by
// environment variables without editing swi.yml, matching the teacher's
// env-first posture for anything sensitive.
func applyEnvOverlay(cfg *SwitcherConfig) {
	cfg.APIServer.Bind = envOrDefault("SWI_API_BIND", cfg.APIServer.Bind)
	cfg.APIServer.SessionSecret = envOrDefault("SWI_SESSION_SECRET", cfg.APIServer.SessionSecret)
	cfg.APIServer.JWTSecret = envOrDefault("SWI_JWT_SECRET", cfg.APIServer.JWTSecret)
	if v := os.Getenv("SWI_ROOT_DIRECTORY"); v != "" {
		cfg.RootDirectory = v
	}
	if v := os.Getenv("SWI_BACKUPS_DIRECTORY"); v != "" {
		cfg.Backup.BackupsDirectory = v
	}
	if cfg.Backup.S3Mirror != nil {
		cfg.Backup.S3Mirror.AccessKeyID = envOrDefault("SWI_S3_ACCESS_KEY_ID", cfg.Backup.S3Mirror.AccessKeyID)
		cfg.Backup.S3Mirror.SecretAccessKey = envOrDefault("SWI_S3_SECRET_ACCESS_KEY", cfg.Backup.S3Mirror.SecretAccessKey)
	}
	if n := envOrDefaultInt("SWI_MAX_CONSOLE_LINES", 0); n > 0 {
		cfg.MaxConsoleLinesInMemory = n
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// loadSecretsManager fetches a JSON secret from AWS Secrets Manager and
// sets any values as environment variables (only if not already set, so
// explicit env vars always win). Uses the default AWS credential chain.
func loadSecretsManager(arn string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var opts []func(*awsconfig.LoadOptions) error
	if parts := strings.Split(arn, ":"); len(parts) >= 4 && parts[3] != "" {
		opts = append(opts, awsconfig.WithRegion(parts[3]))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg)
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &arn,
	})
	if err != nil {
		return fmt.Errorf("GetSecretValue: %w", err)
	}
	if result.SecretString == nil {
		return fmt.Errorf("secret %s has no string value", arn)
	}

	var secrets map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &secrets); err != nil {
		return fmt.Errorf("parse secret JSON: %w", err)
	}

	applied := 0
	for key, value := range secrets {
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
			applied++
		}
	}
	log.Printf("config: loaded %d secrets from Secrets Manager (%d keys in secret)", applied, len(secrets))
	return nil
}
