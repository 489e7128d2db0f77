package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names shared by the client and server binaries
const (
	EnvTweetproofConfig         = "TWEETPROOF_CONFIG"
	EnvTweetproofPort           = "TWEETPROOF_PORT"
	EnvTweetproofVerbose        = "TWEETPROOF_VERBOSE"
	EnvTweetproofDataDir        = "TWEETPROOF_DATA_DIR"
	EnvTweetproofDurableStore   = "TWEETPROOF_DURABLE_STORE"
	EnvTweetproofSessionStore   = "TWEETPROOF_SESSION_STORE"
	EnvTweetproofSessionExpiry  = "TWEETPROOF_SESSION_EXPIRY"
	EnvTweetproofRedisAddress   = "TWEETPROOF_REDIS_ADDRESS"
	EnvTweetproofRedisPassword  = "TWEETPROOF_REDIS_PASSWORD"
	EnvTweetproofVerifyURL      = "TWEETPROOF_VERIFY_URL"
	EnvTweetproofVerifyTimeout  = "TWEETPROOF_VERIFY_TIMEOUT"
	EnvTweetproofSeed           = "TWEETPROOF_SEED"
	EnvTweetproofStorageKeyName = "TWEETPROOF_STORAGE_KEY"
)

const (
	// DefaultStorageKey is the single logical key the seed is stored under in both channels
	DefaultStorageKey = "tweetproof_seed_hex"

	// DefaultSessionExpiry mirrors the long-lived cookie the web client used
	DefaultSessionExpiry = 365 * 24 * time.Hour

	DefaultServerPort    = 5000
	DefaultVerifyURL     = "http://localhost:5000"
	DefaultVerifyTimeout = 10 * time.Second
	DefaultMaxBodyBytes  = 64 * 1024
	DefaultRedisPrefix   = "tweetproof:"
)

type PersistenceType string

func (p PersistenceType) String() string {
	return string(p)
}

const (
	PersistenceTypeMemory PersistenceType = "memory"
	PersistenceTypeBadger PersistenceType = "badger"
	PersistenceTypeRedis  PersistenceType = "redis"
)

// ParsePersistenceType converts a flag value into a PersistenceType
func ParsePersistenceType(s string) (PersistenceType, error) {
	switch PersistenceType(s) {
	case PersistenceTypeMemory, PersistenceTypeBadger, PersistenceTypeRedis:
		return PersistenceType(s), nil
	default:
		return "", fmt.Errorf("unsupported persistence type: %q (expected memory, badger or redis)", s)
	}
}

type ServerConfig struct {
	Port         int           `json:"port" yaml:"port"`
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	MaxBodyBytes int64         `json:"maxBodyBytes" yaml:"maxBodyBytes"`
}

type ClientConfig struct {
	// VerifyURL is the base URL of the remote verification authority
	VerifyURL   string        `json:"verifyUrl" yaml:"verifyUrl"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	MaxAttempts int           `json:"maxAttempts" yaml:"maxAttempts"`
}

type RedisConfig struct {
	Address   string `json:"address" yaml:"address"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix"`
}

// ChannelConfig describes one seed storage channel
type ChannelConfig struct {
	Type PersistenceType `json:"type" yaml:"type"`
	// Path is the on-disk directory for badger channels
	Path string `json:"path" yaml:"path"`
	// Expiry is the lifetime of a stored seed. Zero means it never expires.
	Expiry time.Duration `json:"expiry" yaml:"expiry"`
	Redis  RedisConfig   `json:"redis" yaml:"redis"`
}

type StorageConfig struct {
	Key     string        `json:"key" yaml:"key"`
	Durable ChannelConfig `json:"durable" yaml:"durable"`
	Session ChannelConfig `json:"session" yaml:"session"`
}

// Config is the complete configuration for the tweetproof binaries
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Client  ClientConfig  `json:"client" yaml:"client"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Debug   bool          `json:"debug" yaml:"debug"`
}

// GetDefaultDataDirectory returns ~/.tweetproof
func GetDefaultDataDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".tweetproof"), nil
}

// DefaultConfig returns a config whose channels live under dataDir
func DefaultConfig(dataDir string) *Config {
	return &Config{
		Server: ServerConfig{
			Port:         DefaultServerPort,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		Client: ClientConfig{
			VerifyURL:   DefaultVerifyURL,
			Timeout:     DefaultVerifyTimeout,
			MaxAttempts: 3,
		},
		Storage: StorageConfig{
			Key: DefaultStorageKey,
			Durable: ChannelConfig{
				Type: PersistenceTypeBadger,
				Path: filepath.Join(dataDir, "durable"),
			},
			Session: ChannelConfig{
				Type:   PersistenceTypeBadger,
				Path:   filepath.Join(dataDir, "session"),
				Expiry: DefaultSessionExpiry,
				Redis: RedisConfig{
					KeyPrefix: DefaultRedisPrefix,
				},
			},
		},
	}
}

// LoadConfigFile overlays the YAML file at path on top of DefaultConfig(dataDir)
func LoadConfigFile(path string, dataDir string) (*Config, error) {
	cfg := DefaultConfig(dataDir)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the whole configuration and reports every problem at once
func (c *Config) Validate() error {
	var allErrors field.ErrorList

	serverPath := field.NewPath("server")
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(serverPath.Child("port"), c.Server.Port, "port must be between 1-65535"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		allErrors = append(allErrors, field.Invalid(serverPath.Child("maxBodyBytes"), c.Server.MaxBodyBytes, "must be positive"))
	}

	clientPath := field.NewPath("client")
	if c.Client.VerifyURL != "" {
		u, err := url.Parse(c.Client.VerifyURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			allErrors = append(allErrors, field.Invalid(clientPath.Child("verifyUrl"), c.Client.VerifyURL, "must be an absolute http(s) URL"))
		}
	}
	if c.Client.Timeout <= 0 {
		allErrors = append(allErrors, field.Invalid(clientPath.Child("timeout"), c.Client.Timeout.String(), "must be positive"))
	}
	if c.Client.MaxAttempts < 1 {
		allErrors = append(allErrors, field.Invalid(clientPath.Child("maxAttempts"), c.Client.MaxAttempts, "must be at least 1"))
	}

	storagePath := field.NewPath("storage")
	if c.Storage.Key == "" {
		allErrors = append(allErrors, field.Required(storagePath.Child("key"), "storage key is required"))
	}
	allErrors = append(allErrors, c.Storage.Durable.validate(storagePath.Child("durable"))...)
	allErrors = append(allErrors, c.Storage.Session.validate(storagePath.Child("session"))...)

	if c.Storage.Durable.Expiry != 0 {
		allErrors = append(allErrors, field.Invalid(storagePath.Child("durable", "expiry"), c.Storage.Durable.Expiry.String(), "durable channel must not expire"))
	}
	if c.Storage.Durable.Type == PersistenceTypeBadger && c.Storage.Session.Type == PersistenceTypeBadger &&
		c.Storage.Durable.Path != "" && filepath.Clean(c.Storage.Durable.Path) == filepath.Clean(c.Storage.Session.Path) {
		allErrors = append(allErrors, field.Duplicate(storagePath.Child("session", "path"), c.Storage.Session.Path))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

func (cc *ChannelConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList

	switch cc.Type {
	case PersistenceTypeMemory:
	case PersistenceTypeBadger:
		if cc.Path == "" {
			allErrors = append(allErrors, field.Required(path.Child("path"), "path is required for badger channels"))
		}
	case PersistenceTypeRedis:
		if cc.Redis.Address == "" {
			allErrors = append(allErrors, field.Required(path.Child("redis", "address"), "address is required for redis channels"))
		}
		if cc.Redis.DB < 0 || cc.Redis.DB > 15 {
			allErrors = append(allErrors, field.Invalid(path.Child("redis", "db"), cc.Redis.DB, "db must be between 0-15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), cc.Type,
			[]string{PersistenceTypeMemory.String(), PersistenceTypeBadger.String(), PersistenceTypeRedis.String()}))
	}

	if cc.Expiry < 0 {
		allErrors = append(allErrors, field.Invalid(path.Child("expiry"), cc.Expiry.String(), "must not be negative"))
	}
	return allErrors
}
