package config

// HookConfig defines the command run for each message that mentions an alias.
type HookConfig struct {
	Command     string            `toml:"command"`
	Args        []string          `toml:"args"`
	ArgsLine    string            `toml:"args_line"` // shell-style alternative to args
	Prefix      string            `toml:"prefix"`    // supports ${hostname}, ${sender}, ${conversation}
	CooldownSec float64           `toml:"cooldown_sec"`
	QueueSize   int               `toml:"queue_size"`
	TimeoutSec  float64           `toml:"timeout_sec"`
	Env         map[string]string `toml:"env"`
	RedactPII   bool              `toml:"redact_pii"`
}
