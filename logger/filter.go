package logger

import "strings"

// DefaultMaskValue replaces the value of any sensitive field.
const DefaultMaskValue = "***"

// FilterConfig lists the field names that must never reach log output in clear.
type FilterConfig struct {
	SensitiveFields []string
	MaskValue       string
}

// DefaultFilterConfig covers credentials that show up in cache backend settings.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "pwd",
			"secret", "api_key", "apikey",
			"token", "access_token",
			"auth", "authorization",
			"credential", "credentials",
			"redis_url", "dsn",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks values keyed by sensitive field names.
type SensitiveDataFilter struct {
	config *FilterConfig
}

// NewSensitiveDataFilter creates a filter; a nil config means DefaultFilterConfig.
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// FilterString masks value when key is sensitive.
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if value != "" && f.isSensitiveField(key) {
		return f.config.MaskValue
	}
	return value
}

// FilterValue masks value when key is sensitive and walks nested string maps.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	if f.isSensitiveField(key) {
		return f.config.MaskValue
	}
	if m, ok := value.(map[string]any); ok {
		return f.FilterFields(m)
	}
	return value
}

// FilterFields returns a copy of fields with sensitive entries masked.
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = f.FilterValue(k, v)
	}
	return out
}

func (f *SensitiveDataFilter) isSensitiveField(key string) bool {
	lower := strings.ToLower(key)
	// dotted config keys such as cache.redis.password
	if i := strings.LastIndexByte(lower, '.'); i >= 0 {
		lower = lower[i+1:]
	}
	for _, s := range f.config.SensitiveFields {
		if lower == s {
			return true
		}
	}
	return false
}
