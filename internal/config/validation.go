package config

import (
	"time"

	"git.home.luguber.info/inful/cardlink/internal/foundation"
)

// Validate checks field bounds after normalization.
func Validate(c *Config) error {
	validators := []foundation.Validator[*Config]{
		foundation.Field(func(c *Config) string { return c.Lookup.BaseURL }, foundation.HTTPURL("lookup.base_url")),
		foundation.Field(func(c *Config) int { return c.Resolver.MaxRedirects }, foundation.Positive("resolver.max_redirects")),
		foundation.Field(func(c *Config) int { return c.Resolver.MaxRetries }, foundation.NonNegative("resolver.max_retries")),
		foundation.Field(func(c *Config) string { return string(c.Resolver.RetryBackoff) },
			foundation.OneOf("resolver.retry_backoff", string(RetryBackoffFixed), string(RetryBackoffLinear), string(RetryBackoffExponential))),
		foundation.Field(func(c *Config) string { return c.Resolver.Timeout }, durationField("resolver.timeout")),
		foundation.Field(func(c *Config) string { return c.Preview.HoverDelay }, durationField("preview.hover_delay")),
		foundation.Field(func(c *Config) string { return c.Preview.LeaveDelay }, durationField("preview.leave_delay")),
		foundation.Field(func(c *Config) int { return c.Preview.ViewportInset }, foundation.NonNegative("preview.viewport_inset")),
		foundation.Field(func(c *Config) int { return c.Preview.Gap }, foundation.NonNegative("preview.gap")),
		foundation.Field(func(c *Config) string { return c.Server.Addr }, foundation.NotEmpty("server.addr")),
	}
	if c.Events.Enabled {
		validators = append(validators,
			foundation.Field(func(c *Config) string { return c.Events.NATSURL }, foundation.NotEmpty("events.nats_url")),
			foundation.Field(func(c *Config) string { return c.Events.Subject }, foundation.NotEmpty("events.subject")),
			foundation.Field(func(c *Config) string { return c.Events.Stream }, foundation.NotEmpty("events.stream")),
		)
	}
	if c.Metrics.Enabled {
		validators = append(validators,
			foundation.Field(func(c *Config) string { return c.Metrics.Path }, foundation.NotEmpty("metrics.path")))
	}
	return foundation.Validate(c, validators...).ToError()
}

func durationField(field string) foundation.Validator[string] {
	return func(raw string) foundation.ValidationResult {
		if raw == "" {
			return foundation.Valid()
		}
		if d, err := time.ParseDuration(raw); err != nil || d < 0 {
			return foundation.Invalid(foundation.FieldError{Field: field, Code: "duration", Message: "must be a non-negative duration such as 300ms"})
		}
		return foundation.Valid()
	}
}
