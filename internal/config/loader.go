package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment variables.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "bkr"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "BKR"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Expand environment variables in config values
	cfg = expandEnvVars(cfg)

	return cfg, nil
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	cfg.OpenAI.APIKey = expandEnvString(cfg.OpenAI.APIKey)
	cfg.OpenAI.Model = expandEnvString(cfg.OpenAI.Model)
	cfg.OpenAI.APIURL = expandEnvString(cfg.OpenAI.APIURL)
	cfg.OpenAI.PromptFile = expandEnvString(cfg.OpenAI.PromptFile)

	cfg.ExchangeRate.APIKey = expandEnvString(cfg.ExchangeRate.APIKey)
	cfg.ExchangeRate.APIURL = expandEnvString(cfg.ExchangeRate.APIURL)

	cfg.Drive.AccessToken = expandEnvString(cfg.Drive.AccessToken)
	cfg.Drive.ParentFolderID = expandEnvString(cfg.Drive.ParentFolderID)
	cfg.Drive.APIURL = expandEnvString(cfg.Drive.APIURL)
	cfg.Drive.UploadURL = expandEnvString(cfg.Drive.UploadURL)

	cfg.Store.Path = expandEnvString(cfg.Store.Path)
	cfg.HTTP.Timeout = expandEnvString(cfg.HTTP.Timeout)

	cfg.Observability.Logging.Level = expandEnvString(cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = expandEnvString(cfg.Observability.Logging.Format)

	cfg.User.ID = expandEnvString(cfg.User.ID)

	return cfg
}

// expandEnvString replaces ${VAR} or $VAR with environment variable values.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	// Replace ${VAR} syntax
	re := regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	// Replace $VAR syntax (without braces)
	re = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	return s
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.apiURL", "https://api.openai.com")

	// Exchange rate defaults
	v.SetDefault("exchangeRate.apiURL", "https://v6.exchangerate-api.com/v6/%s/latest/USD")
	v.SetDefault("exchangeRate.cacheTTL", "10m")
	v.SetDefault("exchangeRate.defaultRate", "1300")

	// Drive defaults
	v.SetDefault("drive.apiURL", "https://www.googleapis.com")
	v.SetDefault("drive.uploadURL", "https://www.googleapis.com/upload/drive/v3/files?uploadType=multipart")

	// HTTP defaults
	v.SetDefault("http.timeout", "60s")

	// Store defaults
	v.SetDefault("store.path", defaultStorePath())

	// Observability defaults
	v.SetDefault("observability.logging.enabled", true)
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.logging.redactAPIKeys", true)

	// User defaults
	v.SetDefault("user.id", "local")
	v.SetDefault("user.admin", false)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./reviews.db"
	}
	return filepath.Join(home, ".config", "bkr", "reviews.db")
}
