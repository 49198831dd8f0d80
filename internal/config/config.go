package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".config/nodekeeper"
	envPrefix  = "NK"

	KeyBaseURL              = "api.base_url"
	KeyOrigin               = "api.origin"
	KeyMaxAttempts          = "request.max_attempts"
	KeyBackoffBase          = "request.backoff_base"
	KeyRequestTimeout       = "request.timeout"
	KeyPingInterval         = "ping.interval"
	KeyResetRetriesOnPing   = "ping.reset_retries_on_success"
	KeyStartupStagger       = "startup.stagger"
	KeyAccountsPath         = "accounts.path"
	KeyAccountStorePath     = "accounts.store"
	KeyLogLevel             = "log.level"
	KeyLogNoColor           = "log.no_color"
	DefaultBaseURL          = "https://gateway-run.bls.dev/api/v1"
	DefaultOrigin           = "chrome-extension://pljbjcehnhcnofmkdbjolghdcjnmekia"
	defaultAccountsPath     = "nodes.txt"
	defaultAccountStoreFile = "accounts.toml"
)

type Config struct {
	API      API
	Request  Request
	Ping     Ping
	Startup  Startup
	Accounts Accounts
	Log      Log
}

type API struct {
	BaseURL string
	Origin  string
}

type Request struct {
	MaxAttempts int
	BackoffBase time.Duration
	Timeout     time.Duration
}

type Ping struct {
	Interval time.Duration
	// ResetRetriesOnSuccess clears the failure counter after a good ping.
	// Off by default so counters only grow until restart.
	ResetRetriesOnSuccess bool
}

type Startup struct {
	Stagger time.Duration
}

type Accounts struct {
	Path      string
	StorePath string
}

type Log struct {
	Level   string
	NoColor bool
}

// Load reads file when given, otherwise config.toml from the user config
// directory or the working directory. A missing config file is not an error.
func Load(v *viper.Viper, file string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	setDefaults(v, homeDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(filepath.Join(homeDir, configDir))
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		API: API{
			BaseURL: strings.TrimRight(v.GetString(KeyBaseURL), "/"),
			Origin:  v.GetString(KeyOrigin),
		},
		Request: Request{
			MaxAttempts: v.GetInt(KeyMaxAttempts),
			BackoffBase: v.GetDuration(KeyBackoffBase),
			Timeout:     v.GetDuration(KeyRequestTimeout),
		},
		Ping: Ping{
			Interval:              v.GetDuration(KeyPingInterval),
			ResetRetriesOnSuccess: v.GetBool(KeyResetRetriesOnPing),
		},
		Startup: Startup{
			Stagger: v.GetDuration(KeyStartupStagger),
		},
		Accounts: Accounts{
			Path:      v.GetString(KeyAccountsPath),
			StorePath: v.GetString(KeyAccountStorePath),
		},
		Log: Log{
			Level:   v.GetString(KeyLogLevel),
			NoColor: v.GetBool(KeyLogNoColor),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, homeDir string) {
	v.SetDefault(KeyBaseURL, DefaultBaseURL)
	v.SetDefault(KeyOrigin, DefaultOrigin)
	v.SetDefault(KeyMaxAttempts, 3)
	v.SetDefault(KeyBackoffBase, time.Second)
	v.SetDefault(KeyRequestTimeout, 30*time.Second)
	v.SetDefault(KeyPingInterval, 60*time.Second)
	v.SetDefault(KeyResetRetriesOnPing, false)
	v.SetDefault(KeyStartupStagger, 10*time.Second)
	v.SetDefault(KeyAccountsPath, defaultAccountsPath)
	v.SetDefault(KeyAccountStorePath, filepath.Join(homeDir, configDir, defaultAccountStoreFile))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogNoColor, false)
}

func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api base url is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return errors.New("api base url must use http or https")
	}
	if c.Request.MaxAttempts <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyMaxAttempts, c.Request.MaxAttempts)
	}
	if c.Request.BackoffBase < 0 {
		return fmt.Errorf("%s must not be negative", KeyBackoffBase)
	}
	if c.Request.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", KeyRequestTimeout)
	}
	if c.Ping.Interval <= 0 {
		return fmt.Errorf("%s must be positive", KeyPingInterval)
	}
	if c.Startup.Stagger < 0 {
		return fmt.Errorf("%s must not be negative", KeyStartupStagger)
	}
	if strings.TrimSpace(c.Accounts.Path) == "" {
		return errors.New("accounts path is empty")
	}

	return nil
}
