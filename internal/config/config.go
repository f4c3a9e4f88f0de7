// Package config defines the application configuration and its loader.
package config

// Config represents the full application configuration.
type Config struct {
	OpenAI        OpenAIConfig        `yaml:"openai"`
	ExchangeRate  ExchangeRateConfig  `yaml:"exchangeRate"`
	Drive         DriveConfig         `yaml:"drive"`
	Store         StoreConfig         `yaml:"store"`
	HTTP          HTTPConfig          `yaml:"http"`
	Observability ObservabilityConfig `yaml:"observability"`
	User          UserConfig          `yaml:"user"`
}

// OpenAIConfig configures the AI improvement gateway. An empty APIKey leaves
// the gateway in skipped mode.
type OpenAIConfig struct {
	APIKey      string   `yaml:"apiKey"`
	Model       string   `yaml:"model"`
	APIURL      string   `yaml:"apiURL"`
	PromptFile  string   `yaml:"promptFile"` // JSON prompt template; empty uses the built-in
	MaxTokens   int      `yaml:"maxTokens"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// ExchangeRateConfig configures the USD to KRW conversion gateway.
type ExchangeRateConfig struct {
	APIKey      string `yaml:"apiKey"`
	APIURL      string `yaml:"apiURL"` // format string with one %s for the API key
	CacheTTL    string `yaml:"cacheTTL"`
	DefaultRate string `yaml:"defaultRate"` // decimal string; empty uses 1300
}

// DriveConfig configures the artifact storage gateway. An empty AccessToken
// disables storage.
type DriveConfig struct {
	AccessToken    string `yaml:"accessToken"`
	ParentFolderID string `yaml:"parentFolderID"`
	APIURL         string `yaml:"apiURL"`
	UploadURL      string `yaml:"uploadURL"`
}

// StoreConfig configures the persistence layer.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout string `yaml:"timeout"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`         // debug, info, warn, error
	Format        string `yaml:"format"`        // json, console
	RedactAPIKeys bool   `yaml:"redactAPIKeys"` // Redact API keys in logs
}

// UserConfig identifies who the CLI acts as.
type UserConfig struct {
	ID    string `yaml:"id"`
	Admin bool   `yaml:"admin"`
}
