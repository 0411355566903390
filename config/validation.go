package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks struct tag rules first and then cross-field rules.
// The first problem found is returned as a *ConfigError.
func Validate(cfg *Config) error {
	if err := structValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return toConfigError(verrs[0])
		}
		return err
	}

	if err := validateCache(&cfg.Cache); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	if err := validatePages(&cfg.Pages); err != nil {
		return fmt.Errorf("pages config: %w", err)
	}
	return nil
}

func toConfigError(fe validator.FieldError) *ConfigError {
	// Namespace is "Config.cache.driver"; drop the root type.
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("unsupported value %q", fmt.Sprint(fe.Value())), strings.Fields(fe.Param()))
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param()), nil)
	}
}

func validateCache(cfg *CacheConfig) error {
	if cfg.Driver == "redis" && cfg.Redis.Socket == "" && cfg.Redis.Host == "" {
		return NewMissingFieldError("cache.redis.host")
	}
	if cfg.File.Dir == "" {
		return NewMissingFieldError("cache.file.dir")
	}
	return nil
}

func validatePages(cfg *PagesConfig) error {
	if strings.TrimSpace(cfg.Summary.Delimiter) == "" {
		return NewInvalidFieldError("pages.summary.delimiter", "must not be blank", nil)
	}
	return nil
}
