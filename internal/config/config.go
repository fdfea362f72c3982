// Package config provides the configuration schema and loader for the
// rustlink bridge.
package config

// LogLevel controls log verbosity for the bridge.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// DefaultListenAddr is where the HTTP API listens when server.listen_addr
// is not set. Port 3000 is what the downstream Discord bot expects.
const DefaultListenAddr = ":3000"

// Config is the root configuration structure for rustlink.
// It is loaded from a YAML file using [Load] or [LoadFromReader] and is
// read-only after startup.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Rust   RustConfig   `yaml:"rust"`

	// Entities maps human-readable entity names to the numeric ids the
	// game server assigned them. Ids may be negative (the server hashes
	// them); an id of 0 means "not configured yet" and is rejected at
	// resolve time, not at load time, so a template config still loads.
	Entities map[string]int64 `yaml:"entities"`
}

// ServerConfig holds network and logging settings for the HTTP API.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP API listens on.
	// Defaults to [DefaultListenAddr].
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// RustConfig holds the game server address and the player pairing
// credentials obtained from the companion pairing flow.
type RustConfig struct {
	// ServerIP is the game server's address (IP or hostname).
	ServerIP string `yaml:"server_ip"`

	// ServerPort is the companion socket port, not the game port.
	ServerPort int `yaml:"server_port"`

	// PlayerID is the pairing player's steam id.
	PlayerID int64 `yaml:"player_id"`

	// PlayerToken is the pairing token issued for PlayerID. The server
	// hands out signed 32-bit values; validation rejects anything wider.
	PlayerToken int64 `yaml:"player_token"`

	// UseSSL dials wss:// instead of ws://. Most servers run plain.
	UseSSL bool `yaml:"use_ssl"`
}
