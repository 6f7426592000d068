package config

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	TelegramBotToken string        `mapstructure:"TELEGRAM_BOT_TOKEN" validate:"required"`
	InitDataMaxAge   time.Duration `mapstructure:"INIT_DATA_MAX_AGE" validate:"gte=0"`

	HTTPAddress string `mapstructure:"HTTP_ADDRESS" validate:"required"`
	GRPCAddress string `mapstructure:"GRPC_ADDRESS"`

	AllowedOrigins   []string `mapstructure:"-" validate:"required,min=1,dive,required"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`

	HTTPSCertFile string `mapstructure:"HTTPS_CERT_FILE" validate:"required_with=HTTPSKeyFile"`
	HTTPSKeyFile  string `mapstructure:"HTTPS_KEY_FILE" validate:"required_with=HTTPSCertFile"`

	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

var keys = []string{
	"TELEGRAM_BOT_TOKEN", "INIT_DATA_MAX_AGE",
	"HTTP_ADDRESS", "GRPC_ADDRESS",
	"ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
	"HTTPS_CERT_FILE", "HTTPS_KEY_FILE",
	"LOG_LEVEL", "SHUTDOWN_TIMEOUT",
}

// Load reads env vars, optionally overlaid by ./config.json.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetDefault("INIT_DATA_MAX_AGE", 24*time.Hour)
	v.SetDefault("HTTP_ADDRESS", ":5175")
	v.SetDefault("GRPC_ADDRESS", ":50051")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("ALLOW_CREDENTIALS", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", 5*time.Second)

	// пустой GRPC_ADDRESS должен перекрывать дефолт и выключать gRPC
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, errors.Wrapf(err, "bind %s", k)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	origins, err := parseOrigins(v.GetString("ALLOWED_ORIGINS"))
	if err != nil {
		return nil, err
	}
	cfg.AllowedOrigins = origins

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if c.AllowCredentials && c.AllowAllOrigins() {
		return errors.New("invalid config: ALLOW_CREDENTIALS cannot be combined with ALLOWED_ORIGINS=*")
	}
	return nil
}

func (c *Config) AllowAllOrigins() bool {
	return len(c.AllowedOrigins) == 1 && c.AllowedOrigins[0] == "*"
}

func (c *Config) TLSEnabled() bool {
	return c.HTTPSCertFile != "" && c.HTTPSKeyFile != ""
}

// parseOrigins принимает и JSON-массив, и список через запятую.
func parseOrigins(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, errors.Wrap(err, "parse ALLOWED_ORIGINS")
		}
		return out, nil
	}
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out, nil
}
