package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	MLLPAddr    string   `mapstructure:"MLLP_ADDR"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Request body caps; FHIR JSON resources run larger than HL7 text.
	MaxBodySize     string `mapstructure:"MAX_BODY_SIZE"`
	MaxFHIRBodySize string `mapstructure:"MAX_FHIR_BODY_SIZE"`

	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`

	// Parser behavior; see hl7v2.Config for semantics.
	StrictMode          bool     `mapstructure:"STRICT_MODE"`
	ValidateChecksum    bool     `mapstructure:"VALIDATE_CHECKSUM"`
	SupportedVersions   []string `mapstructure:"SUPPORTED_VERSIONS"`
	AllowCustomSegments bool     `mapstructure:"ALLOW_CUSTOM_SEGMENTS"`

	// DefaultSystem tags ingested messages whose source vendor is not
	// stated per request: epic, cerner, or generic-fhir.
	DefaultSystem string `mapstructure:"DEFAULT_SYSTEM"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("MAX_BODY_SIZE", "1M")
	v.SetDefault("MAX_FHIR_BODY_SIZE", "5M")
	v.SetDefault("STRICT_MODE", false)
	v.SetDefault("VALIDATE_CHECKSUM", false)
	v.SetDefault("SUPPORTED_VERSIONS", "2.3,2.3.1,2.4,2.5,2.5.1,2.6")
	v.SetDefault("ALLOW_CUSTOM_SEGMENTS", true)
	v.SetDefault("DEFAULT_SYSTEM", "generic-fhir")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("MLLP_ADDR")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("MAX_BODY_SIZE")
	v.BindEnv("MAX_FHIR_BODY_SIZE")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("STRICT_MODE")
	v.BindEnv("VALIDATE_CHECKSUM")
	v.BindEnv("SUPPORTED_VERSIONS")
	v.BindEnv("ALLOW_CUSTOM_SEGMENTS")
	v.BindEnv("DEFAULT_SYSTEM")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	if cfg.SupportedVersions == nil {
		if versions := v.GetString("SUPPORTED_VERSIONS"); versions != "" {
			cfg.SupportedVersions = strings.Split(versions, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Production
// requires a signing key so the ingest API cannot be left open, since
// parsed messages carry PHI.
func (c *Config) Validate() error {
	if c.IsProduction() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required in production")
	}

	switch c.DefaultSystem {
	case "epic", "cerner", "generic-fhir":
	default:
		return fmt.Errorf("DEFAULT_SYSTEM must be \"epic\", \"cerner\", or \"generic-fhir\", got %q", c.DefaultSystem)
	}

	return nil
}
