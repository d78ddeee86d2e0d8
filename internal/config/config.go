package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" validate:"required"`
}

// ServerConfig contains all HTTP-server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains the shared secret collaborating services use to sign
// their API tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// LLMConfig contains all generative-model integration settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`

	// MaxAttempts is the total number of calls per generation request,
	// first try included.
	MaxAttempts int `mapstructure:"max_attempts" validate:"gte=1,lte=10"`

	// BaseDelayMs is the exponential-backoff starting delay in milliseconds.
	BaseDelayMs int `mapstructure:"base_delay_ms" validate:"gte=100"`
}

// PipelineConfig contains the dispatcher's batching settings.
type PipelineConfig struct {
	// BatchSize bounds concurrent outbound generation calls.
	BatchSize int `mapstructure:"batch_size" validate:"gte=1,lte=16"`

	// BatchDelayMs is the pause between batches in milliseconds.
	BatchDelayMs int `mapstructure:"batch_delay_ms" validate:"gte=0"`
}
