package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/perf"
)

// Config holds the full application configuration.
type Config struct {
	Backend  BackendConfig  `yaml:"backend" mapstructure:"backend"`
	Defaults DefaultsConfig `yaml:"defaults" mapstructure:"defaults"`
	Policies PoliciesConfig `yaml:"policies" mapstructure:"policies"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// BackendConfig configures the inference backend connection.
type BackendConfig struct {
	URL            string  `yaml:"url" mapstructure:"url"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst          int     `yaml:"burst" mapstructure:"burst"`
}

// DefaultsConfig holds request defaults applied when the caller leaves a
// field unset.
type DefaultsConfig struct {
	Complexity  string  `yaml:"complexity" mapstructure:"complexity"`
	Focus       string  `yaml:"focus" mapstructure:"focus"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// PoliciesConfig overrides the per-complexity execution policy table. Zero
// fields keep the built-in value.
type PoliciesConfig struct {
	Simple   PolicyConfig `yaml:"simple" mapstructure:"simple"`
	Moderate PolicyConfig `yaml:"moderate" mapstructure:"moderate"`
	Complex  PolicyConfig `yaml:"complex" mapstructure:"complex"`
}

// PolicyConfig overrides one complexity level's policy.
type PolicyConfig struct {
	BaseTimeoutSecs int `yaml:"base_timeout_secs" mapstructure:"base_timeout_secs"`
	MaxTimeoutSecs  int `yaml:"max_timeout_secs" mapstructure:"max_timeout_secs"`
	MaxParallel     int `yaml:"max_parallel" mapstructure:"max_parallel"`
	QueueLimit      int `yaml:"queue_limit" mapstructure:"queue_limit"`
	CacheTTLSecs    int `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	CacheSize       int `yaml:"cache_size" mapstructure:"cache_size"`
	MaxTokens       int `yaml:"max_tokens" mapstructure:"max_tokens"`
	RetryAttempts   int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port             int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeoutS int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COUNCIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("backend.url", "http://localhost:11434")
	v.SetDefault("backend.requests_per_sec", 0)
	v.SetDefault("backend.burst", 1)
	v.SetDefault("defaults.complexity", "moderate")
	v.SetDefault("defaults.focus", "general")
	v.SetDefault("defaults.temperature", 0.7)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 15)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// ExecutionPolicies merges the configured overrides over the built-in
// per-complexity policy table.
func (c *Config) ExecutionPolicies() map[catalog.Complexity]perf.Policy {
	policies := perf.DefaultPolicies()
	overrides := map[catalog.Complexity]PolicyConfig{
		catalog.ComplexitySimple:   c.Policies.Simple,
		catalog.ComplexityModerate: c.Policies.Moderate,
		catalog.ComplexityComplex:  c.Policies.Complex,
	}
	for level, o := range overrides {
		p := policies[level]
		if o.BaseTimeoutSecs > 0 {
			p.BaseTimeout = time.Duration(o.BaseTimeoutSecs) * time.Second
		}
		if o.MaxTimeoutSecs > 0 {
			p.MaxTimeout = time.Duration(o.MaxTimeoutSecs) * time.Second
		}
		if o.MaxParallel > 0 {
			p.MaxParallel = o.MaxParallel
		}
		if o.QueueLimit > 0 {
			p.QueueLimit = o.QueueLimit
		}
		if o.CacheTTLSecs > 0 {
			p.CacheTTL = time.Duration(o.CacheTTLSecs) * time.Second
		}
		if o.CacheSize > 0 {
			p.CacheSize = o.CacheSize
		}
		if o.MaxTokens > 0 {
			p.MaxTokens = o.MaxTokens
		}
		if o.RetryAttempts > 0 {
			p.Retry.MaxAttempts = o.RetryAttempts
		}
		policies[level] = p
	}
	return policies
}

// Validate checks the fields required for the given run mode ("research"
// or "serve") and returns every problem found, joined into one error.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "research":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Backend.URL == "" {
		problems = append(problems, "backend.url is required")
	}
	if c.Backend.RequestsPerSec < 0 {
		problems = append(problems, "backend.requests_per_sec must be >= 0")
	}
	if !catalog.Complexity(c.Defaults.Complexity).Valid() {
		problems = append(problems, "defaults.complexity must be simple, moderate, or complex")
	}
	if !catalog.Focus(c.Defaults.Focus).Valid() {
		problems = append(problems, "defaults.focus is not a known focus area")
	}
	if c.Defaults.Temperature < 0 || c.Defaults.Temperature > 2 {
		problems = append(problems, "defaults.temperature must be between 0 and 2")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
