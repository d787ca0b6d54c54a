package config

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/person-enricher/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	SerpAPI       ProviderConfig `yaml:"serpapi" mapstructure:"serpapi"`
	Scrapin       ProviderConfig `yaml:"scrapin" mapstructure:"scrapin"`
	AnymailFinder ProviderConfig `yaml:"anymailfinder" mapstructure:"anymailfinder"`
	ScrapeOwl     ProviderConfig `yaml:"scrapeowl" mapstructure:"scrapeowl"`
	Pricing       cost.Rates     `yaml:"pricing" mapstructure:"pricing"`
	Enrich        EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Batch         BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server        ServerConfig   `yaml:"server" mapstructure:"server"`
	Log           LogConfig      `yaml:"log" mapstructure:"log"`
}

// ProviderConfig holds credentials for one enrichment API.
type ProviderConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// Configured reports whether an API key is set.
func (p ProviderConfig) Configured() bool {
	return strings.TrimSpace(p.Key) != ""
}

// EnrichConfig tunes provider calls. A zero TimeoutSecs leaves calls to the
// transport's own limits.
type EnrichConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Size int `yaml:"size" mapstructure:"size"`
}

// ServerConfig configures the HTTP endpoint.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An empty path looks
// for an optional config.yaml in the working directory; an explicit path must
// exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("ENRICHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only sees keys viper already knows about.
	for _, key := range []string{"serpapi.key", "scrapin.key", "anymailfinder.key", "scrapeowl.key"} {
		_ = v.BindEnv(key)
	}

	// Defaults
	rates := cost.DefaultRates()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("batch.size", 5)
	v.SetDefault("enrich.timeout_secs", 0)
	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("scrapin.base_url", "https://api.scrapin.io")
	v.SetDefault("anymailfinder.base_url", "https://api.anymailfinder.com")
	v.SetDefault("scrapeowl.base_url", "https://api.scrapeowl.com")
	v.SetDefault("pricing.serpapi", rates.SerpAPI)
	v.SetDefault("pricing.scrapin", rates.ScrapinIO)
	v.SetDefault("pricing.anymailfinder", rates.AnymailFinder)
	v.SetDefault("pricing.scrapeowl", rates.ScrapeOwl)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on. Mode is one of
// "enrich", "plan" or "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Batch.Size < 1 || c.Batch.Size > 50 {
		errs = append(errs, "batch.size must be between 1 and 50")
	}
	if c.Enrich.TimeoutSecs < 0 {
		errs = append(errs, "enrich.timeout_secs must be >= 0")
	}
	p := c.Pricing
	if p.SerpAPI < 0 || p.ScrapinIO < 0 || p.AnymailFinder < 0 || p.ScrapeOwl < 0 {
		errs = append(errs, "pricing values must be >= 0")
	}

	switch mode {
	case "enrich", "plan":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// MissingKeys lists the provider key settings that are empty.
func (c *Config) MissingKeys() []string {
	var missing []string
	for name, p := range map[string]ProviderConfig{
		"serpapi.key":       c.SerpAPI,
		"scrapin.key":       c.Scrapin,
		"anymailfinder.key": c.AnymailFinder,
		"scrapeowl.key":     c.ScrapeOwl,
	} {
		if !p.Configured() {
			missing = append(missing, name)
		}
	}
	slices.Sort(missing)
	return missing
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
