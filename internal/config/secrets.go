package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields
// replaced by the redaction placeholder "***". Use this when logging or
// printing the active configuration so secrets are never accidentally
// exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	out.Engine = cfg.Engine
	redact(&out.Engine.OMSToken)

	out.Postgres = cfg.Postgres
	redact(&out.Postgres.Password)

	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	out.S3 = cfg.S3
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	out.Exchange = cfg.Exchange
	redactCredential(&out.Exchange.Binance)
	redactCredential(&out.Exchange.Okx)
	redactCredential(&out.Exchange.Bybit)
	redactCredential(&out.Exchange.Gate)
	redactCredential(&out.Exchange.Bitget)
	redactCredential(&out.Exchange.Mexc)

	if cfg.Exchange.Symbols != nil {
		out.Exchange.Symbols = make([]string, len(cfg.Exchange.Symbols))
		copy(out.Exchange.Symbols, cfg.Exchange.Symbols)
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}

func redactCredential(c *ExchangeCredential) {
	redact(&c.APIKey)
	redact(&c.APISecret)
	redact(&c.Passphrase)
}
