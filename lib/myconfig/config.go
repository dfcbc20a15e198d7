package myconfig

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	defaultPort         = "8080"
	defaultEnvironment  = "test"
	defaultOTPRateLimit = "5-M"
)

// Config is resolved once at startup. Secrets in here must never reach the browser.
type Config struct {
	Port            string        `env:"PORT" validate:"required"`
	Environment     string        `env:"ADYEN_ENVIRONMENT" validate:"oneof=test live"`
	APIKey          string        `env:"ADYEN_API_KEY" validate:"required"`
	MerchantAccount string        `env:"ADYEN_MERCHANT_ACCOUNT" validate:"required"`
	ClientKey       string        `env:"ADYEN_CLIENT_KEY"`
	LiveURLPrefix   string        `env:"ADYEN_LIVE_URL_PREFIX" validate:"required_if=Environment live"`
	// CheckoutBaseURL overrides the checkout endpoint of the environment, e.g. for a local stub.
	CheckoutBaseURL string        `env:"ADYEN_CHECKOUT_BASE_URL" validate:"omitempty,url"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" validate:"gte=0"`
	RedisURL        string        `env:"REDIS_URL" validate:"omitempty,url"`
	OTPRateLimit    string        `env:"OTP_RATE_LIMIT" validate:"required"`
}

// Load reads the environment, optionally seeded from a .env file, and fails when
// a required setting is missing.
func Load() (Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	timeout, err := parseDuration(k.String("PROVIDER_TIMEOUT"))
	if err != nil {
		return Config{}, fmt.Errorf("PROVIDER_TIMEOUT: %w", err)
	}

	cfg := Config{
		Port:            valueOrDefault(k.String("PORT"), defaultPort),
		Environment:     strings.ToLower(valueOrDefault(k.String("ADYEN_ENVIRONMENT"), defaultEnvironment)),
		APIKey:          strings.TrimSpace(k.String("ADYEN_API_KEY")),
		MerchantAccount: strings.TrimSpace(k.String("ADYEN_MERCHANT_ACCOUNT")),
		ClientKey:       strings.TrimSpace(k.String("ADYEN_CLIENT_KEY")),
		LiveURLPrefix:   strings.TrimSpace(k.String("ADYEN_LIVE_URL_PREFIX")),
		CheckoutBaseURL: strings.TrimSuffix(strings.TrimSpace(k.String("ADYEN_CHECKOUT_BASE_URL")), "/"),
		ProviderTimeout: timeout,
		RedisURL:        strings.TrimSpace(k.String("REDIS_URL")),
		OTPRateLimit:    valueOrDefault(k.String("OTP_RATE_LIMIT"), defaultOTPRateLimit),
	}

	err = validate(cfg)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) HTTPAddr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func validate(cfg Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("env")
	})

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	problems := []string{}
	for _, fieldErr := range validationErrors {
		switch fieldErr.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("%s is required", fieldErr.Field()))
		case "required_if":
			problems = append(problems, fmt.Sprintf("%s is required for the %s environment", fieldErr.Field(), cfg.Environment))
		default:
			problems = append(problems, fmt.Sprintf("%s is invalid (%s)", fieldErr.Field(), fieldErr.Tag()))
		}
	}

	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value string) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	return time.ParseDuration(strings.TrimSpace(value))
}
