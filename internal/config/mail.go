package config

// MailConfig describes the SMTP relay used to deliver OTP codes and complaint
// status emails.  When Host is empty no SMTP delivery is attempted and the
// application falls back to logging outgoing mail.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // envelope and header sender, e.g. "HostelBuddy <no-reply@x.com>"
	AppName  string // product name used in subjects
}

// LoadMailConfig reads SMTP_* variables.  EMAIL_FROM is accepted as a
// fallback sender for deployments configured for the previous mailer.
func LoadMailConfig() MailConfig {
	from := envStr("SMTP_FROM", envStr("EMAIL_FROM", ""))
	return MailConfig{
		Host:     envStr("SMTP_HOST", ""),
		Port:     envInt("SMTP_PORT", 587),
		Username: envStr("SMTP_USERNAME", from),
		Password: envStr("SMTP_PASSWORD", ""),
		From:     from,
		AppName:  envStr("APP_NAME", "HostelBuddy"),
	}
}

// Enabled reports whether enough settings exist to open an SMTP session.
func (m MailConfig) Enabled() bool { return m.Host != "" && m.From != "" }
