package types

// AppConfig represents the complete application configuration.
type AppConfig struct {
	Verbose bool          `mapstructure:"verbose"`
	Config  string        `mapstructure:"config"`
	Gateway GatewayConfig `mapstructure:"gateway" validate:"required"`
	Server  ServerConfig  `mapstructure:"server"`
	Board   BoardConfig   `mapstructure:"board"`
}

// GatewayConfig selects and configures the remote store backend.
type GatewayConfig struct {
	// Backend is the gateway implementation: "sqlite" talks to a local
	// database file, "http" talks to an opsboard server.
	Backend string `mapstructure:"backend" validate:"required,oneof=sqlite http"`
	// Path is the sqlite database file (sqlite backend only).
	Path string `mapstructure:"path"`
	// URL is the base URL of the opsboard server (http backend only).
	URL string `mapstructure:"url" validate:"omitempty,url"`
	// APIKey is sent as a bearer token to the server, if set.
	APIKey string `mapstructure:"apiKey"`
}

// ServerConfig holds settings for the serve command.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}

// BoardConfig holds settings for the live board view.
type BoardConfig struct {
	// RefreshSeconds is the periodic reload interval; realtime events
	// trigger refreshes independently of it.
	RefreshSeconds int `mapstructure:"refreshSeconds" validate:"omitempty,min=1"`
}
